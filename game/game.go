// Package game holds the in-memory state of every active match: the
// registry of sessions and the per-session turn state machine. All
// state here is volatile; nothing survives a process restart.
package game

import (
	"sync"

	"github.com/wfunc/guesswho/random"
)

// Phase 表示一局游戏的业务状态
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseInProgress
	PhaseFinished
)

// MaxPlayers is the fixed roster capacity of a match.
const MaxPlayers = 2

// Character is a guessable character, compared by id.
type Character struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player is one participant in a session. ConnectionID ties the
// roster entry back to the live connection that created it.
type Player struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	ConnectionID      string     `json:"connectionId"`
	SelectedCharacter *Character `json:"selectedCharacter,omitempty"`
}

// Outcome is the terminal result of a match.
type Outcome struct {
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
	Message  string `json:"message"`
}

const (
	msgGuessCorrect = "Congratulations! You found the right character."
	msgGuessWrong   = "Your opponent guessed wrong. You win!"
)

// Session is one in-progress match. Every method takes the session
// lock, so sessions are safe to mutate from concurrent connection
// goroutines; methods return copies, never internal state.
type Session struct {
	ID string

	mu      sync.Mutex
	players []*Player
	turn    string
	phase   Phase
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Join appends the player to the roster, preserving join order.
// A join for a player id already on the roster is ignored rather than
// duplicated, so a client re-sending its join is harmless. Returns
// false when the roster is full or the match is already over; callers
// must not broadcast in that case.
func (s *Session) Join(p Player) ([]Player, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished {
		return nil, "", false
	}

	for _, existing := range s.players {
		if existing.ID == p.ID {
			return s.snapshotLocked(), s.turn, true
		}
	}

	if len(s.players) >= MaxPlayers {
		return nil, "", false
	}

	joined := p
	s.players = append(s.players, &joined)
	return s.snapshotLocked(), s.turn, true
}

// Start begins the match: exactly two players must be present and the
// match must not have started yet. The first turn goes to one of the
// two players chosen by src.
func (s *Session) Start(src random.Source) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting || len(s.players) != MaxPlayers {
		return "", false
	}

	first := s.players[src.Intn(MaxPlayers)]
	s.turn = first.ID
	s.phase = PhaseInProgress
	return s.turn, true
}

// SelectCharacter records the player's secret character. Selection is
// allowed before or after Start, but not once the match is over.
func (s *Session) SelectCharacter(playerID string, c Character) ([]Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished {
		return nil, false
	}

	for _, p := range s.players {
		if p.ID == playerID {
			chosen := c
			p.SelectedCharacter = &chosen
			return s.snapshotLocked(), true
		}
	}
	return nil, false
}

// AdvanceTurn hands the turn to the other player. Applying it twice
// returns the turn to where it started.
func (s *Session) AdvanceTurn() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished || s.turn == "" || len(s.players) < MaxPlayers {
		return "", false
	}

	for _, p := range s.players {
		if p.ID != s.turn {
			s.turn = p.ID
			return s.turn, true
		}
	}
	return "", false
}

// ResolveGuess ends the match. A guess matching the opponent's
// selected character (by id) wins; any other guess forfeits the match
// to the opponent, including a guess made before the opponent has
// selected anything.
func (s *Session) ResolveGuess(guesserID string, guessed Character) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished {
		return Outcome{}, false
	}

	var opponent *Player
	for _, p := range s.players {
		if p.ID != guesserID {
			opponent = p
			break
		}
	}
	if opponent == nil {
		return Outcome{}, false
	}

	s.phase = PhaseFinished
	s.turn = ""

	if opponent.SelectedCharacter != nil && opponent.SelectedCharacter.ID == guessed.ID {
		return Outcome{WinnerID: guesserID, LoserID: opponent.ID, Message: msgGuessCorrect}, true
	}
	return Outcome{WinnerID: opponent.ID, LoserID: guesserID, Message: msgGuessWrong}, true
}

// Leave removes the player whose ConnectionID matches. At most one
// roster entry is removed per call. Leave works in every phase; a
// finished or in-progress match just loses the player.
func (s *Session) Leave(connectionID string) (Player, []Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.players {
		if p.ConnectionID == connectionID {
			removed := *p
			s.players = append(s.players[:i], s.players[i+1:]...)
			return removed, s.snapshotLocked(), true
		}
	}
	return Player{}, nil, false
}

// Players returns a copy of the roster in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Turn returns the id of the player whose turn it is, or "" before
// the match starts.
func (s *Session) Turn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) snapshotLocked() []Player {
	players := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		copied := *p
		if p.SelectedCharacter != nil {
			c := *p.SelectedCharacter
			copied.SelectedCharacter = &c
		}
		players = append(players, copied)
	}
	return players
}
