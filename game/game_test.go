package game

import (
	"testing"
)

// fixedSource is a deterministic random source for tests.
type fixedSource struct {
	value int
}

func (f *fixedSource) Intn(n int) int {
	return f.value % n
}

func playerA() Player {
	return Player{ID: "userA", Username: "alice", ConnectionID: "connA"}
}

func playerB() Player {
	return Player{ID: "userB", Username: "bob", ConnectionID: "connB"}
}

func newStartedSession(t *testing.T, first int) *Session {
	t.Helper()
	s := NewSession("g1")
	s.Join(playerA())
	s.Join(playerB())
	if _, ok := s.Start(&fixedSource{value: first}); !ok {
		t.Fatal("Start should succeed with two players")
	}
	return s
}

func TestSession_Join_Order(t *testing.T) {
	s := NewSession("g1")

	players, turn, ok := s.Join(playerA())
	if !ok {
		t.Fatal("first join should succeed")
	}
	if turn != "" {
		t.Errorf("turn should be unset before start, got %q", turn)
	}

	players, _, ok = s.Join(playerB())
	if !ok {
		t.Fatal("second join should succeed")
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	if players[0].ID != "userA" || players[1].ID != "userB" {
		t.Errorf("join order not preserved: %q, %q", players[0].ID, players[1].ID)
	}
}

func TestSession_Join_Idempotent(t *testing.T) {
	s := NewSession("g1")
	s.Join(playerA())

	players, _, ok := s.Join(playerA())
	if !ok {
		t.Fatal("duplicate join should be accepted as a no-op")
	}
	if len(players) != 1 {
		t.Errorf("duplicate join must not duplicate the roster entry, got %d players", len(players))
	}
}

func TestSession_Join_CapacityInvariant(t *testing.T) {
	s := NewSession("g1")
	s.Join(playerA())
	s.Join(playerB())

	_, _, ok := s.Join(Player{ID: "userC", Username: "carol", ConnectionID: "connC"})
	if ok {
		t.Error("third join should be rejected")
	}
	if s.PlayerCount() != 2 {
		t.Errorf("roster must never exceed 2, got %d", s.PlayerCount())
	}
}

func TestSession_Start_RequiresTwoPlayers(t *testing.T) {
	s := NewSession("g1")

	if _, ok := s.Start(&fixedSource{}); ok {
		t.Error("start with 0 players should be a no-op")
	}

	s.Join(playerA())
	if _, ok := s.Start(&fixedSource{}); ok {
		t.Error("start with 1 player should be a no-op")
	}
	if s.Phase() != PhaseWaiting {
		t.Errorf("phase should remain waiting, got %v", s.Phase())
	}
}

func TestSession_Start_TurnIsACurrentPlayer(t *testing.T) {
	for _, first := range []int{0, 1} {
		s := newStartedSession(t, first)

		turn := s.Turn()
		if turn != "userA" && turn != "userB" {
			t.Errorf("turn %q is not one of the current players", turn)
		}
		if s.Phase() != PhaseInProgress {
			t.Errorf("phase should be in progress, got %v", s.Phase())
		}
	}
}

func TestSession_Start_DeterministicWithInjectedSource(t *testing.T) {
	s := NewSession("g1")
	s.Join(playerA())
	s.Join(playerB())

	turn, ok := s.Start(&fixedSource{value: 1})
	if !ok {
		t.Fatal("start should succeed")
	}
	if turn != "userB" {
		t.Errorf("expected second player to go first, got %q", turn)
	}
}

func TestSession_Start_Twice(t *testing.T) {
	s := newStartedSession(t, 0)
	if _, ok := s.Start(&fixedSource{value: 1}); ok {
		t.Error("start on a running game should be a no-op")
	}
	if s.Turn() != "userA" {
		t.Errorf("repeated start must not re-randomize the turn, got %q", s.Turn())
	}
}

func TestSession_AdvanceTurn_Involution(t *testing.T) {
	s := newStartedSession(t, 0)

	original := s.Turn()
	flipped, ok := s.AdvanceTurn()
	if !ok {
		t.Fatal("advance should succeed")
	}
	if flipped == original {
		t.Error("advance must hand the turn to the other player")
	}

	back, ok := s.AdvanceTurn()
	if !ok {
		t.Fatal("second advance should succeed")
	}
	if back != original {
		t.Errorf("advancing twice should restore the turn: got %q, want %q", back, original)
	}
}

func TestSession_AdvanceTurn_BeforeStart(t *testing.T) {
	s := NewSession("g1")
	s.Join(playerA())
	s.Join(playerB())

	if _, ok := s.AdvanceTurn(); ok {
		t.Error("advance before start should be a no-op")
	}
}

func TestSession_AdvanceTurn_SinglePlayer(t *testing.T) {
	s := newStartedSession(t, 0)
	s.Leave("connB")

	if _, ok := s.AdvanceTurn(); ok {
		t.Error("advance with one player should be a no-op")
	}
}

func TestSession_SelectCharacter(t *testing.T) {
	s := NewSession("g1")
	s.Join(playerA())

	players, ok := s.SelectCharacter("userA", Character{ID: "frodo", Name: "Frodo"})
	if !ok {
		t.Fatal("selection for a present player should succeed")
	}
	if players[0].SelectedCharacter == nil || players[0].SelectedCharacter.ID != "frodo" {
		t.Error("selection not recorded on the roster")
	}

	if _, ok := s.SelectCharacter("ghost", Character{ID: "sam"}); ok {
		t.Error("selection for an unknown player should be a no-op")
	}
}

func TestSession_ResolveGuess_Correct(t *testing.T) {
	s := newStartedSession(t, 0)
	s.SelectCharacter("userA", Character{ID: "frodo", Name: "Frodo"})
	s.SelectCharacter("userB", Character{ID: "sam", Name: "Sam"})

	outcome, ok := s.ResolveGuess("userA", Character{ID: "sam", Name: "Sam"})
	if !ok {
		t.Fatal("guess should resolve")
	}
	if outcome.WinnerID != "userA" || outcome.LoserID != "userB" {
		t.Errorf("correct guess must win: %+v", outcome)
	}
	if s.Phase() != PhaseFinished {
		t.Errorf("phase should be finished, got %v", s.Phase())
	}
}

func TestSession_ResolveGuess_Wrong(t *testing.T) {
	s := newStartedSession(t, 0)
	s.SelectCharacter("userB", Character{ID: "sam", Name: "Sam"})

	outcome, ok := s.ResolveGuess("userA", Character{ID: "gandalf", Name: "Gandalf"})
	if !ok {
		t.Fatal("guess should resolve")
	}
	if outcome.WinnerID != "userB" || outcome.LoserID != "userA" {
		t.Errorf("wrong guess must forfeit to the opponent: %+v", outcome)
	}
}

func TestSession_ResolveGuess_OpponentWithoutSelection(t *testing.T) {
	s := newStartedSession(t, 0)

	outcome, ok := s.ResolveGuess("userA", Character{ID: "sam", Name: "Sam"})
	if !ok {
		t.Fatal("guess should resolve even without a selection")
	}
	if outcome.WinnerID != "userB" || outcome.LoserID != "userA" {
		t.Errorf("a guess against no selection must lose: %+v", outcome)
	}
}

func TestSession_Finished_IsTerminal(t *testing.T) {
	s := newStartedSession(t, 0)
	s.SelectCharacter("userB", Character{ID: "sam"})
	s.ResolveGuess("userA", Character{ID: "sam"})

	if _, _, ok := s.Join(Player{ID: "userC", ConnectionID: "connC"}); ok {
		t.Error("join after finish should be rejected")
	}
	if _, ok := s.Start(&fixedSource{}); ok {
		t.Error("start after finish should be rejected")
	}
	if _, ok := s.AdvanceTurn(); ok {
		t.Error("advance after finish should be rejected")
	}
	if _, ok := s.SelectCharacter("userA", Character{ID: "frodo"}); ok {
		t.Error("selection after finish should be rejected")
	}
	if _, ok := s.ResolveGuess("userB", Character{ID: "frodo"}); ok {
		t.Error("second guess after finish should be rejected")
	}
}

func TestSession_Leave(t *testing.T) {
	s := NewSession("g1")
	s.Join(playerA())
	s.Join(playerB())

	removed, players, found := s.Leave("connA")
	if !found {
		t.Fatal("leave should find the player by connection id")
	}
	if removed.ID != "userA" {
		t.Errorf("wrong player removed: %q", removed.ID)
	}
	if len(players) != 1 || players[0].ID != "userB" {
		t.Errorf("unexpected remaining roster: %+v", players)
	}

	if _, _, found := s.Leave("connA"); found {
		t.Error("leave for an unknown connection should be a no-op")
	}
}

func TestSession_Snapshot_IsACopy(t *testing.T) {
	s := NewSession("g1")
	s.Join(playerA())
	s.SelectCharacter("userA", Character{ID: "frodo", Name: "Frodo"})

	players := s.Players()
	players[0].SelectedCharacter.ID = "mutated"
	players[0].Username = "mutated"

	fresh := s.Players()
	if fresh[0].SelectedCharacter.ID != "frodo" || fresh[0].Username != "alice" {
		t.Error("mutating a snapshot must not affect session state")
	}
}
