package broadcast

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/guesswho/network"
	"github.com/wfunc/guesswho/session"
)

// recordingConnection captures events sent to one connection.
type recordingConnection struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (c *recordingConnection) SendEvent(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return net.ErrClosed
	}
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConnection) ReadEvent() (*network.Event, error)  { return nil, nil }
func (c *recordingConnection) Close() error                        { return nil }
func (c *recordingConnection) RemoteAddr() net.Addr                { return &net.TCPAddr{} }
func (c *recordingConnection) SetHeartbeat(interval time.Duration) {}

func (c *recordingConnection) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func setup() (*session.Manager, *RoomBroadcaster) {
	manager := session.NewManager()
	return manager, NewRoomBroadcaster(manager)
}

func addSession(manager *session.Manager, id, gameID string) *recordingConnection {
	conn := &recordingConnection{}
	sess := session.NewSession(id, conn)
	if gameID != "" {
		sess.JoinRoom(gameID)
	}
	manager.Add(sess)
	return conn
}

func TestEmitToRoom_ScopedToRoomMembers(t *testing.T) {
	manager, broadcaster := setup()
	inRoom1 := addSession(manager, "s1", "game1")
	alsoInRoom1 := addSession(manager, "s2", "game1")
	inRoom2 := addSession(manager, "s3", "game2")
	unbound := addSession(manager, "s4", "")

	if err := broadcaster.EmitToRoom("game1", "updateTurn", nil); err != nil {
		t.Fatalf("EmitToRoom failed: %v", err)
	}

	if len(inRoom1.received()) != 1 || len(alsoInRoom1.received()) != 1 {
		t.Error("all members of the room should receive the event")
	}
	if len(inRoom2.received()) != 0 {
		t.Error("another room's connection must not receive the event")
	}
	if len(unbound.received()) != 0 {
		t.Error("an unbound connection must not receive the event")
	}
}

func TestEmitToRoom_SkipsFailingConnections(t *testing.T) {
	manager, broadcaster := setup()
	healthy := addSession(manager, "s1", "game1")

	failing := &recordingConnection{fail: true}
	sess := session.NewSession("s2", failing)
	sess.JoinRoom("game1")
	manager.Add(sess)

	if err := broadcaster.EmitToRoom("game1", "updatePlayers", nil); err != nil {
		t.Fatalf("EmitToRoom should not propagate send errors: %v", err)
	}
	if len(healthy.received()) != 1 {
		t.Error("a failing connection must not block delivery to the others")
	}
}

func TestEmitToConnection(t *testing.T) {
	manager, broadcaster := setup()
	conn := addSession(manager, "s1", "")

	if err := broadcaster.EmitToConnection("s1", "gameStarted", true); err != nil {
		t.Fatalf("EmitToConnection failed: %v", err)
	}
	if len(conn.received()) != 1 {
		t.Error("the target connection should receive the event")
	}

	if err := broadcaster.EmitToConnection("ghost", "gameStarted", true); err != ErrConnectionNotFound {
		t.Errorf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestEmitToAll(t *testing.T) {
	manager, broadcaster := setup()
	a := addSession(manager, "s1", "game1")
	b := addSession(manager, "s2", "")

	if err := broadcaster.EmitToAll("notice", nil); err != nil {
		t.Fatalf("EmitToAll failed: %v", err)
	}
	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Error("every live connection should receive the event")
	}
}
