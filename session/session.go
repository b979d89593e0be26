// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/guesswho/network"
)

// Session is one live client connection with its authenticated
// identity and, once the client has joined a game, its room binding.
type Session struct {
	ID         string
	Conn       network.Connection
	UserID     string
	Username   string
	CreatedAt  time.Time
	LastActive time.Time

	gameID string
	mutex  sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

// JoinRoom binds the connection to a game's room. A session belongs to
// at most one room at a time.
func (s *Session) JoinRoom(gameID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameID = gameID
}

// LeaveRoom clears the room binding.
func (s *Session) LeaveRoom() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameID = ""
}

// GameID returns the id of the game this connection is bound to, or ""
// if it has not joined one.
func (s *Session) GameID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.gameID
}

func (s *Session) Send(event string, payload interface{}) error {
	return s.Conn.SendEvent(event, payload)
}

func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.LastActive = time.Now()
}

func (s *Session) IdleSince() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.LastActive
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByGameID returns every live connection bound to the given game's
// room. This is the broadcast scope for that game.
func (m *Manager) GetByGameID(gameID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.GameID() == gameID {
			result = append(result, session)
		}
	}
	return result
}

// All returns a snapshot of every live session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
