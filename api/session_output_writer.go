package api

import (
	"bytes"
	"io"
	"sync"
)

// SessionOutputWriter is the io.Writer a session's VM writes its
// stdout/stderr through. Every Write is both buffered (so a client
// that polls /console can catch up on output it missed) and published
// on the event bus as an EventKindOutput event (so a client watching
// over the WebSocket sees it as it happens).
type SessionOutputWriter struct {
	bus       *SessionEventBus
	sessionID string
	stream    string
	buf       bytes.Buffer
	mu        sync.Mutex
}

// NewSessionOutputWriter creates a writer that tags every write with
// sessionID and stream ("stdout" or "stderr") before publishing it.
func NewSessionOutputWriter(bus *SessionEventBus, sessionID, stream string) *SessionOutputWriter {
	return &SessionOutputWriter{
		bus:       bus,
		sessionID: sessionID,
		stream:    stream,
	}
}

func (w *SessionOutputWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.buf.Write(p)
	if err == nil && n > 0 && w.bus != nil {
		w.bus.PublishOutput(w.sessionID, w.stream, string(p))
	}
	return n, err
}

// Drain returns the buffered output accumulated since the last Drain
// and clears it.
func (w *SessionOutputWriter) Drain() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.buf.String()
	w.buf.Reset()
	return out
}

// Peek returns the buffered output without clearing it.
func (w *SessionOutputWriter) Peek() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.buf.String()
}

var _ io.Writer = (*SessionOutputWriter)(nil)
