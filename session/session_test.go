package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/guesswho/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	closed bool
}

func (m *MockConnection) SendEvent(event string, payload interface{}) error { return nil }
func (m *MockConnection) ReadEvent() (*network.Event, error)                { return nil, nil }
func (m *MockConnection) Close() error                                      { m.closed = true; return nil }
func (m *MockConnection) RemoteAddr() net.Addr                              { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)               {}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByGameID(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.JoinRoom("game1")

	sess2 := NewSession("session2", &MockConnection{})
	sess2.JoinRoom("game2")

	sess3 := NewSession("session3", &MockConnection{})
	sess3.JoinRoom("game1")

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	game1Sessions := manager.GetByGameID("game1")
	if len(game1Sessions) != 2 {
		t.Errorf("Expected 2 sessions for game1, got %d", len(game1Sessions))
	}

	game2Sessions := manager.GetByGameID("game2")
	if len(game2Sessions) != 1 {
		t.Errorf("Expected 1 session for game2, got %d", len(game2Sessions))
	}

	game3Sessions := manager.GetByGameID("game3")
	if len(game3Sessions) != 0 {
		t.Errorf("Expected 0 sessions for game3, got %d", len(game3Sessions))
	}
}

func TestSession_RoomBinding(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})

	if sess.GameID() != "" {
		t.Errorf("A fresh session should have no room binding, got %q", sess.GameID())
	}

	sess.JoinRoom("game1")
	if sess.GameID() != "game1" {
		t.Errorf("Expected room binding game1, got %q", sess.GameID())
	}

	sess.LeaveRoom()
	if sess.GameID() != "" {
		t.Errorf("LeaveRoom should clear the binding, got %q", sess.GameID())
	}
}

func TestSession_Touch(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})
	before := sess.IdleSince()

	time.Sleep(10 * time.Millisecond)
	sess.Touch()

	if !sess.IdleSince().After(before) {
		t.Error("Touch should advance LastActive")
	}
}
