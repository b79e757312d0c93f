package handlers

import (
	"sync"

	"callscope/tagging-gateway/internal/tagging"
	"callscope/tagging-gateway/internal/transcript"
)

// Session is one open tagging interaction: a loaded transcript model and the
// annotation workflow over it. HTTP handlers and the playback socket share a
// session, so all access goes through its mutex.
type Session struct {
	ID      string
	CallID  string
	Defects int

	mu       sync.Mutex
	Model    *transcript.Model
	Workflow *tagging.Workflow
}

// Lock serializes access to the session's model and workflow.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// SessionRegistry is the in-memory map of open tagging sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Add registers a session under its ID.
func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session with the given ID.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops a session. Removing an unknown ID is a no-op.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
