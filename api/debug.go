package api

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// apiLog is a session-tracing logger separate from diagnostics.Log:
// it exists to trace remote-debug session handling (load/run/step
// requests, broadcaster wiring) without a client needing to enable
// general VM/compiler tracing. It writes nowhere unless LOXVM_API_DEBUG
// is set, matching the file-under-temp-dir convention the rest of the
// debug tooling uses.
var apiLog = logrus.New()

func init() {
	apiLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if os.Getenv("LOXVM_API_DEBUG") == "" {
		apiLog.SetOutput(io.Discard)
		return
	}

	apiLog.SetLevel(logrus.DebugLevel)
	logPath := filepath.Join(os.TempDir(), "loxvm-api-debug.log")
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
	if err != nil {
		apiLog.SetOutput(os.Stderr)
		return
	}
	apiLog.SetOutput(f)
}

// debugLog records a session-tracing line at debug level; a no-op
// unless LOXVM_API_DEBUG enabled it at startup.
func debugLog(format string, args ...interface{}) {
	apiLog.Debugf(format, args...)
}
