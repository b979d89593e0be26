// Package coordinator is the event router: it decodes inbound client
// events, applies them to the matching game session, and fans the
// resulting state out to the session's room. Invalid or stale events
// (unknown session, full roster, finished match) are absorbed as
// silent no-ops and produce no broadcast.
package coordinator

import (
	"encoding/json"
	"sync"

	"github.com/wfunc/guesswho/broadcast"
	"github.com/wfunc/guesswho/game"
	"github.com/wfunc/guesswho/logger"
	"github.com/wfunc/guesswho/network"
	"github.com/wfunc/guesswho/random"
	"github.com/wfunc/guesswho/session"
)

// Recorder persists finished matches. Recording happens off the event
// path and never blocks or fails a game operation.
type Recorder interface {
	RecordFinished(gameID string, players []game.Player, outcome game.Outcome)
}

type Coordinator struct {
	registry    *game.Registry
	broadcaster broadcast.Broadcaster
	rand        random.Source
	recorder    Recorder

	// One lock per game id: an event's mutation and its broadcast
	// happen as a unit, so events targeting the same game are
	// delivered to the room in arrival order.
	locks   map[string]*gameLock
	locksMu sync.Mutex
}

// gameLock serializes events for one game id. refs counts holders plus
// waiters, so the table entry is never replaced out from under a
// goroutine already queued on the mutex.
type gameLock struct {
	mu   sync.Mutex
	refs int
}

func New(registry *game.Registry, broadcaster broadcast.Broadcaster, rand random.Source, recorder Recorder) *Coordinator {
	return &Coordinator{
		registry:    registry,
		broadcaster: broadcaster,
		rand:        rand,
		recorder:    recorder,
		locks:       make(map[string]*gameLock),
	}
}

// Inbound payloads.

type joinGamePayload struct {
	SessionID string `json:"sessionId"`
	Player    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"player"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type questionPayload struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

type answerPayload struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
}

type selectCharacterPayload struct {
	SessionID string         `json:"sessionId"`
	PlayerID  string         `json:"playerId"`
	Character game.Character `json:"character"`
}

type makeGuessPayload struct {
	SessionID        string         `json:"sessionId"`
	PlayerID         string         `json:"playerId"`
	GuessedCharacter game.Character `json:"guessedCharacter"`
}

// Outbound payloads.

type playersPayload struct {
	Players []game.Player `json:"players"`
}

type turnPayload struct {
	Turn string `json:"turn"`
}

type receiveQuestionPayload struct {
	Question string `json:"question"`
}

type receiveAnswerPayload struct {
	Answer string `json:"answer"`
}

// HandleEvent routes one inbound event. Unknown events are logged and
// dropped.
func (c *Coordinator) HandleEvent(sess *session.Session, evt *network.Event) {
	switch evt.Name {
	case network.EventJoinGame:
		c.handleJoinGame(sess, evt.Data)
	case network.EventStartGame:
		c.handleStartGame(sess, evt.Data)
	case network.EventAskQuestion:
		c.handleAskQuestion(sess, evt.Data)
	case network.EventAnswerQuestion:
		c.handleAnswerQuestion(sess, evt.Data)
	case network.EventEndTurn, network.EventNextTurn:
		c.handleAdvanceTurn(sess, evt.Data)
	case network.EventSelectCharacter:
		c.handleSelectCharacter(sess, evt.Data)
	case network.EventMakeGuess:
		c.handleMakeGuess(sess, evt.Data)
	default:
		logger.Log.Infof("Unknown event %q from connection %s", evt.Name, sess.ID)
	}
}

// HandleDisconnect reconciles a dropped connection against its game:
// the matching roster entry is removed, the session is deleted from
// the registry once empty, and the reduced roster is broadcast
// otherwise.
func (c *Coordinator) HandleDisconnect(sess *session.Session) {
	gameID := sess.GameID()
	if gameID == "" {
		return
	}
	sess.LeaveRoom()
	c.leaveGame(sess, gameID)
}

// leaveGame removes the connection's roster entry from the given game,
// deleting the game once its roster is empty and broadcasting the
// reduced roster otherwise.
func (c *Coordinator) leaveGame(sess *session.Session, gameID string) {
	unlock := c.lockGame(gameID)
	defer unlock()

	g, exists := c.registry.Get(gameID)
	if !exists {
		return
	}

	removed, players, found := g.Leave(sess.ID)
	if !found {
		return
	}
	logger.Log.Infof("Player %s left game %s", removed.Username, gameID)

	if len(players) == 0 {
		c.registry.Remove(gameID)
		logger.Log.Infof("Game %s removed, no players left", gameID)
		return
	}
	c.broadcaster.EmitToRoom(gameID, network.EventUpdatePlayers, playersPayload{Players: players})
}

func (c *Coordinator) handleJoinGame(sess *session.Session, data json.RawMessage) {
	var req joinGamePayload
	if err := json.Unmarshal(data, &req); err != nil || req.SessionID == "" {
		return
	}

	// A connection rebinding to a different game first runs the leave
	// path for the old one, so no ghost roster entry survives the
	// switch.
	if prev := sess.GameID(); prev != "" && prev != req.SessionID {
		sess.LeaveRoom()
		c.leaveGame(sess, prev)
	}

	unlock := c.lockGame(req.SessionID)
	defer unlock()

	g := c.registry.GetOrCreate(req.SessionID)

	// The identity comes from the authenticated connection, not from
	// the payload; a client cannot join as somebody else.
	p := game.Player{
		ID:           sess.UserID,
		Username:     sess.Username,
		ConnectionID: sess.ID,
	}

	players, turn, ok := g.Join(p)
	if !ok {
		return
	}

	sess.JoinRoom(req.SessionID)
	logger.Log.Infof("Player %s joined game %s", p.Username, req.SessionID)

	c.broadcaster.EmitToRoom(req.SessionID, network.EventUpdatePlayers, playersPayload{Players: players})
	c.broadcaster.EmitToRoom(req.SessionID, network.EventUpdateTurn, turnPayload{Turn: turn})
}

func (c *Coordinator) handleStartGame(sess *session.Session, data json.RawMessage) {
	var req sessionPayload
	if err := json.Unmarshal(data, &req); err != nil || req.SessionID == "" {
		return
	}

	unlock := c.lockGame(req.SessionID)
	defer unlock()

	g, exists := c.registry.Get(req.SessionID)
	if !exists {
		return
	}

	turn, ok := g.Start(c.rand)
	if !ok {
		return
	}
	logger.Log.Infof("Game %s started, first turn: %s", req.SessionID, turn)

	c.broadcaster.EmitToRoom(req.SessionID, network.EventGameStarted, true)
	c.broadcaster.EmitToRoom(req.SessionID, network.EventUpdateTurn, turnPayload{Turn: turn})
}

func (c *Coordinator) handleAskQuestion(sess *session.Session, data json.RawMessage) {
	var req questionPayload
	if err := json.Unmarshal(data, &req); err != nil || req.SessionID == "" {
		return
	}

	unlock := c.lockGame(req.SessionID)
	defer unlock()

	// Pure relay: no state changes, and whose turn it is goes
	// deliberately unchecked.
	if _, exists := c.registry.Get(req.SessionID); !exists {
		return
	}
	c.broadcaster.EmitToRoom(req.SessionID, network.EventReceiveQuestion, receiveQuestionPayload{Question: req.Question})
}

func (c *Coordinator) handleAnswerQuestion(sess *session.Session, data json.RawMessage) {
	var req answerPayload
	if err := json.Unmarshal(data, &req); err != nil || req.SessionID == "" {
		return
	}

	unlock := c.lockGame(req.SessionID)
	defer unlock()

	if _, exists := c.registry.Get(req.SessionID); !exists {
		return
	}
	c.broadcaster.EmitToRoom(req.SessionID, network.EventReceiveAnswer, receiveAnswerPayload{Answer: req.Answer})
}

func (c *Coordinator) handleAdvanceTurn(sess *session.Session, data json.RawMessage) {
	var req sessionPayload
	if err := json.Unmarshal(data, &req); err != nil || req.SessionID == "" {
		return
	}

	unlock := c.lockGame(req.SessionID)
	defer unlock()

	g, exists := c.registry.Get(req.SessionID)
	if !exists {
		return
	}

	turn, ok := g.AdvanceTurn()
	if !ok {
		return
	}
	c.broadcaster.EmitToRoom(req.SessionID, network.EventUpdateTurn, turnPayload{Turn: turn})
}

func (c *Coordinator) handleSelectCharacter(sess *session.Session, data json.RawMessage) {
	var req selectCharacterPayload
	if err := json.Unmarshal(data, &req); err != nil || req.SessionID == "" {
		return
	}

	unlock := c.lockGame(req.SessionID)
	defer unlock()

	g, exists := c.registry.Get(req.SessionID)
	if !exists {
		return
	}

	players, ok := g.SelectCharacter(req.PlayerID, req.Character)
	if !ok {
		return
	}
	c.broadcaster.EmitToRoom(req.SessionID, network.EventUpdateSelectedCharacters, playersPayload{Players: players})
}

func (c *Coordinator) handleMakeGuess(sess *session.Session, data json.RawMessage) {
	var req makeGuessPayload
	if err := json.Unmarshal(data, &req); err != nil || req.SessionID == "" {
		return
	}

	unlock := c.lockGame(req.SessionID)
	defer unlock()

	g, exists := c.registry.Get(req.SessionID)
	if !exists {
		return
	}

	outcome, ok := g.ResolveGuess(req.PlayerID, req.GuessedCharacter)
	if !ok {
		return
	}
	logger.Log.Infof("Game %s over: winner %s, loser %s", req.SessionID, outcome.WinnerID, outcome.LoserID)

	c.broadcaster.EmitToRoom(req.SessionID, network.EventGameOver, outcome)

	if c.recorder != nil {
		players := g.Players()
		go c.recorder.RecordFinished(req.SessionID, players, outcome)
	}
}

func (c *Coordinator) lockGame(id string) func() {
	c.locksMu.Lock()
	l, exists := c.locks[id]
	if !exists {
		l = &gameLock{}
		c.locks[id] = l
	}
	l.refs++
	c.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.releaseLock(id, l)
	}
}

// releaseLock drops the table entry once nobody holds or waits on the
// lock and the game itself is gone, so ids that never existed or whose
// last player left do not accumulate entries.
func (c *Coordinator) releaseLock(id string, l *gameLock) {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l.refs--
	if l.refs > 0 {
		return
	}
	if _, exists := c.registry.Get(id); exists {
		return
	}
	delete(c.locks, id)
}
