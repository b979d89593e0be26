package game

import (
	"sync"
)

// Registry is the process-wide map of active sessions. A session
// exists from the first join targeting its id until its last player
// leaves. The registry is an owned instance wired into the
// coordinator, not a package singleton.
type Registry struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session with the given id, creating an
// empty one if none exists. Concurrent callers for the same id get
// the same instance.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if s, exists := r.sessions[id]; exists {
		return s
	}
	s := NewSession(id)
	r.sessions[id] = s
	return s
}

// Get looks a session up without creating it.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, exists := r.sessions[id]
	return s, exists
}

// Remove deletes the session. Called when a session's roster becomes
// empty.
func (r *Registry) Remove(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.sessions)
}
