package api

import (
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"sync"
	"time"

	"github.com/lookbusy1344/loxvm/chunk"
	"github.com/lookbusy1344/loxvm/compiler"
	"github.com/lookbusy1344/loxvm/debugger"
	"github.com/lookbusy1344/loxvm/errors"
	"github.com/lookbusy1344/loxvm/vm"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = stderrors.New("session not found")
	// ErrSessionAlreadyExists is returned when trying to create a session with an existing ID
	ErrSessionAlreadyExists = stderrors.New("session already exists")
)

// Session represents one remote debugging session: a VM, the chunk it
// was last loaded with, and the Debugger wrapped around both.
type Session struct {
	ID        string
	Debugger  *debugger.Debugger
	Chunk     *chunk.Chunk
	CreatedAt time.Time
}

// SessionManager manages multiple debugging sessions
type SessionManager struct {
	sessions map[string]*Session
	bus      *SessionEventBus
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager publishing its
// sessions' output and state changes onto bus.
func NewSessionManager(bus *SessionEventBus) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		bus:      bus,
	}
}

// CreateSession creates a new session with a unique ID and an unloaded VM.
func (sm *SessionManager) CreateSession() (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	machine := vm.New()
	if sm.bus != nil {
		machine.Stdout = NewSessionOutputWriter(sm.bus, sessionID, "stdout")
		debugLog("session %s: stdout wired to the event bus", sessionID)
	} else {
		debugLog("session %s: no event bus available, output will not be streamed", sessionID)
	}

	session := &Session{
		ID:        sessionID,
		Debugger:  debugger.NewDebugger(machine),
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; exists {
		return nil, ErrSessionAlreadyExists
	}

	sm.sessions[sessionID] = session
	return session, nil
}

// LoadSource compiles source into a fresh chunk and loads it into the
// session's VM, replacing any program previously loaded.
func (sm *SessionManager) LoadSource(session *Session, source string) (bool, errors.Diagnostics) {
	c := chunk.New()
	ok, diags := compiler.Compile(source, c, compiler.Options{})
	if ok {
		session.Chunk = c
		session.Debugger.Load(c)
	}
	return ok, diags
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// DestroySession removes a session by ID
func (sm *SessionManager) DestroySession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}

	delete(sm.sessions, sessionID)
	return nil
}

// ListSessions returns a list of all session IDs
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// generateSessionID generates a unique session ID
func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
