package api

import "sync"

// SessionEventKind is the closed set of things a debug session can
// tell a watching client about.
type SessionEventKind string

const (
	// EventKindState fires on IP/stack-depth/running changes.
	EventKindState SessionEventKind = "state"
	// EventKindOutput fires once per Write to a session's stdout writer
	// (the only stream SessionManager wires to the bus).
	EventKindOutput SessionEventKind = "output"
	// EventKindExecution tags breakpoint-hit, halt, and error
	// notifications sent through PublishExecution. No handler in this
	// package calls PublishExecution, so the server itself never emits
	// this kind.
	EventKindExecution SessionEventKind = "execution"
)

// SessionEvent is one message published to a session's watchers.
type SessionEvent struct {
	Kind      SessionEventKind       `json:"type"`
	SessionID string                 `json:"sessionId"`
	Data      map[string]interface{} `json:"data"`
}

// SessionWatch is a live client filter: which session (or all of them,
// if SessionID is empty) and which event kinds (or all, if Kinds is
// empty) it wants delivered on Channel.
type SessionWatch struct {
	SessionID string
	Kinds     map[SessionEventKind]bool
	Channel   chan SessionEvent
}

// SessionEventBus fans debug-session events (VM state changes, console
// output, breakpoint/halt/error notifications) out to every watching
// WebSocket client, filtered per watch.
type SessionEventBus struct {
	mu       sync.RWMutex
	watches  map[*SessionWatch]bool
	publish  chan SessionEvent
	watch    chan *SessionWatch
	unwatch  chan *SessionWatch
	shutdown chan struct{}
}

// NewSessionEventBus creates and starts a bus.
func NewSessionEventBus() *SessionEventBus {
	b := &SessionEventBus{
		watches:  make(map[*SessionWatch]bool),
		publish:  make(chan SessionEvent, 256),
		watch:    make(chan *SessionWatch),
		unwatch:  make(chan *SessionWatch),
		shutdown: make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *SessionEventBus) run() {
	for {
		select {
		case w := <-b.watch:
			b.mu.Lock()
			b.watches[w] = true
			b.mu.Unlock()

		case w := <-b.unwatch:
			b.mu.Lock()
			if b.watches[w] {
				delete(b.watches, w)
				close(w.Channel)
			}
			b.mu.Unlock()

		case event := <-b.publish:
			b.mu.RLock()
			for w := range b.watches {
				if w.SessionID != "" && w.SessionID != event.SessionID {
					continue
				}
				if len(w.Kinds) > 0 && !w.Kinds[event.Kind] {
					continue
				}
				select {
				case w.Channel <- event:
				default:
					// watcher too slow to keep up; drop rather than block the bus
				}
			}
			b.mu.RUnlock()

		case <-b.shutdown:
			b.mu.Lock()
			for w := range b.watches {
				close(w.Channel)
			}
			b.watches = make(map[*SessionWatch]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Watch registers a new filter. sessionID == "" matches every session;
// an empty kinds list matches every event kind.
func (b *SessionEventBus) Watch(sessionID string, kinds []SessionEventKind) *SessionWatch {
	kindSet := make(map[SessionEventKind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	w := &SessionWatch{
		SessionID: sessionID,
		Kinds:     kindSet,
		Channel:   make(chan SessionEvent, 64),
	}
	b.watch <- w
	return w
}

// Unwatch deregisters w and closes its channel.
func (b *SessionEventBus) Unwatch(w *SessionWatch) {
	b.unwatch <- w
}

// Publish delivers event to every matching watch. Non-blocking: if the
// bus's internal queue is full, the event is dropped rather than
// stalling the session that produced it.
func (b *SessionEventBus) Publish(event SessionEvent) {
	select {
	case b.publish <- event:
	default:
	}
}

// PublishState announces a VM state change (IP, stack depth, running).
func (b *SessionEventBus) PublishState(sessionID string, data map[string]interface{}) {
	b.Publish(SessionEvent{Kind: EventKindState, SessionID: sessionID, Data: data})
}

// PublishOutput announces a chunk of console output on stream ("stdout"
// or "stderr").
func (b *SessionEventBus) PublishOutput(sessionID, stream, content string) {
	b.Publish(SessionEvent{
		Kind:      EventKindOutput,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"stream":  stream,
			"content": content,
		},
	})
}

// PublishExecution announces a breakpoint hit, halt, or runtime error.
// name identifies which; details carries event-specific fields (e.g.
// breakpoint id, offset, error message).
func (b *SessionEventBus) PublishExecution(sessionID, name string, details map[string]interface{}) {
	data := make(map[string]interface{}, len(details)+1)
	data["event"] = name
	for k, v := range details {
		data[k] = v
	}
	b.Publish(SessionEvent{Kind: EventKindExecution, SessionID: sessionID, Data: data})
}

// Close shuts the bus down and closes every watcher's channel.
func (b *SessionEventBus) Close() {
	close(b.shutdown)
}

// WatchCount returns the number of active watches.
func (b *SessionEventBus) WatchCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.watches)
}
