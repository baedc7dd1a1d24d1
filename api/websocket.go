package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxWatchMessage = 8192 // a watch request is tiny; this is generous headroom
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isAllowedOrigin(r.Header.Get("Origin")) // same localhost-only rule corsMiddleware uses
	},
}

// debugClient is one WebSocket connection watching session events: a
// remote debugger UI (CLI, TUI, or a future web front end) attached to
// one or all loxvm sessions.
type debugClient struct {
	conn  *websocket.Conn
	send  chan SessionEvent
	watch *SessionWatch
	bus   *SessionEventBus
	mu    sync.Mutex
}

// watchRequest is the JSON message a client sends to choose which
// session and event kinds it wants streamed to it.
type watchRequest struct {
	Type      string   `json:"type"`      // "watch"
	SessionID string   `json:"sessionId"` // "" = every session
	Events    []string `json:"events"`    // empty = every event kind
}

// handleWebSocket upgrades the connection and starts the client's
// read/write pumps; the client doesn't start watching anything until
// it sends a watchRequest.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		debugLog("websocket upgrade failed: %v", err)
		return
	}

	client := &debugClient{
		conn: conn,
		send: make(chan SessionEvent, 256),
		bus:  s.bus,
	}

	go client.writePump()
	go client.readPump()
}

func (c *debugClient) readPump() {
	defer func() {
		c.stopWatching()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxWatchMessage)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var req watchRequest
		if err := json.Unmarshal(message, &req); err != nil {
			debugLog("malformed watch request: %v", err)
			continue
		}
		if req.Type == "watch" {
			c.startWatching(req)
		}
	}
}

func (c *debugClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// startWatching swaps in a new SessionWatch for req, replacing any
// prior one, and starts relaying matching events to the client.
func (c *debugClient) startWatching(req watchRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watch != nil {
		c.bus.Unwatch(c.watch)
	}

	kinds := make([]SessionEventKind, 0, len(req.Events))
	for _, e := range req.Events {
		kinds = append(kinds, SessionEventKind(e))
	}

	c.watch = c.bus.Watch(req.SessionID, kinds)
	go c.relay()
}

// relay forwards events from the bus-side channel to the client's send
// queue until the watch is torn down.
func (c *debugClient) relay() {
	c.mu.Lock()
	w := c.watch
	c.mu.Unlock()
	if w == nil {
		return
	}

	for event := range w.Channel {
		select {
		case c.send <- event:
		default:
			// client reading too slowly; drop rather than backpressure the bus
		}
	}
}

func (c *debugClient) stopWatching() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watch != nil {
		c.bus.Unwatch(c.watch)
		c.watch = nil
	}
}
