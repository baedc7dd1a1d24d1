// Package diagnostics wraps logrus for internal scan/compile/run
// tracing. It is strictly separate from the user-facing stdout/stderr
// protocol: compile errors, runtime errors, and OP_RETURN output never
// flow through here.
package diagnostics

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log is the package-level logger, mirroring the way the pack's own
// Lox implementation reaches for logrus directly rather than threading
// a logger value through every call.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	Log.SetLevel(logrus.WarnLevel)
}

// EnableDebug raises the log level so compiler/VM tracing becomes
// visible, and routes it to w.
func EnableDebug(w io.Writer) {
	Log.SetLevel(logrus.DebugLevel)
	Log.SetOutput(w)
}

// Disable silences all diagnostic output.
func Disable() {
	Log.SetOutput(io.Discard)
}
