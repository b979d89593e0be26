// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/guesswho/session"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
)

// Broadcaster delivers named events to a scope of connections. Sends
// are fire-and-forget: a failing connection is skipped, never retried.
type Broadcaster interface {
	EmitToRoom(gameID string, event string, payload interface{}) error
	EmitToConnection(connectionID string, event string, payload interface{}) error
	EmitToAll(event string, payload interface{}) error
}

// RoomBroadcaster resolves rooms through the session manager: a
// game's room is the set of live connections bound to that game id.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) EmitToRoom(gameID string, event string, payload interface{}) error {
	sessions := b.sessionManager.GetByGameID(gameID)

	for _, s := range sessions {
		if err := s.Send(event, payload); err != nil {
			// Dead connections are reaped by their own read loop.
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) EmitToConnection(connectionID string, event string, payload interface{}) error {
	s, exists := b.sessionManager.Get(connectionID)
	if !exists {
		return ErrConnectionNotFound
	}
	return s.Send(event, payload)
}

func (b *RoomBroadcaster) EmitToAll(event string, payload interface{}) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(event, payload); err != nil {
			continue
		}
	}
	return nil
}
