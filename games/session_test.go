package games

import (
	"errors"
	"strings"
	"testing"
)

// TestAdvanceTurnWrapsOncePerRound applies N turns to N players and checks one round passed.
func TestAdvanceTurnWrapsOncePerRound(t *testing.T) {
	for n := 2; n <= 7; n++ {
		players := make([]string, n)
		for i := range players {
			players[i] = string(rune('a' + i))
		}

		s := NewSession(players, "party", nil)
		for start := 0; start < n; start++ {
			turn, round := s.Turn(), s.Round()

			for i := 0; i < n; i++ {
				s.AdvanceTurn()
				if s.Turn() < 0 || s.Turn() >= n {
					t.Fatalf("turn %d out of range for %d players", s.Turn(), n)
				}
			}

			if s.Turn() != turn {
				t.Fatalf("after %d turns index = %d, want %d", n, s.Turn(), turn)
			}
			if s.Round() != round+1 {
				t.Fatalf("after %d turns round = %d, want %d", n, s.Round(), round+1)
			}

			s.AdvanceTurn()
		}
	}
}

func TestAdvanceTurnIncrementsRoundOnWrap(t *testing.T) {
	s := NewSession([]string{"ana", "bo", "cy"}, "party", nil)

	if s.CurrentPlayer() != "ana" || s.NextPlayer() != "bo" || s.Round() != 1 {
		t.Fatalf("unexpected start: %s/%s round %d", s.CurrentPlayer(), s.NextPlayer(), s.Round())
	}

	s.AdvanceTurn()
	s.AdvanceTurn()
	if s.CurrentPlayer() != "cy" || s.NextPlayer() != "ana" || s.Round() != 1 {
		t.Fatalf("unexpected state: %s/%s round %d", s.CurrentPlayer(), s.NextPlayer(), s.Round())
	}

	s.AdvanceTurn()
	if s.CurrentPlayer() != "ana" || s.Round() != 2 {
		t.Fatalf("expected wrap to ana in round 2, got %s round %d", s.CurrentPlayer(), s.Round())
	}
}

// TestSessionLevelNeverRegresses raises roundsPerLevel mid-game and expects the level to hold.
func TestSessionLevelNeverRegresses(t *testing.T) {
	s := NewSession([]string{"ana", "bo"}, "party", nil)
	for i := 0; i < 2*3; i++ {
		s.AdvanceTurn()
	}

	if s.Round() != 4 {
		t.Fatalf("round = %d, want 4", s.Round())
	}
	if got := s.Level(3); got != Medium {
		t.Fatalf("Level(3) = %s, want medium", got)
	}
	if got := s.Level(10); got != Medium {
		t.Fatalf("Level(10) after reaching medium = %s, want medium", got)
	}
	if got := s.Progress(10); got != 0 {
		t.Fatalf("Progress(10) = %d, want 0", got)
	}
	if got := s.RoundsUntilNextLevel(10); got != 17 {
		t.Fatalf("RoundsUntilNextLevel(10) = %d, want 17", got)
	}
}

// TestDrawDeniedLeavesSessionUntouched ensures the paywall blocks without mutating turn or round.
func TestDrawDeniedLeavesSessionUntouched(t *testing.T) {
	s := NewSession([]string{"ana", "bo"}, "party", nil)
	for i := 0; i < 2*10; i++ {
		s.AdvanceTurn()
	}

	turn, round := s.Turn(), s.Round()
	settings := DefaultSettings()

	for _, kind := range []Kind{Truth, Dare} {
		_, access, err := s.Draw(testCatalog(), kind, settings, false, newRand())
		if err != nil {
			t.Fatalf("Draw returned error: %v", err)
		}
		if access != Denied {
			t.Fatalf("Draw access = %s, want denied", access)
		}
	}

	if s.Turn() != turn || s.Round() != round {
		t.Fatalf("denied draw mutated session: turn %d round %d", s.Turn(), s.Round())
	}
	if _, ok := s.Pending(); ok {
		t.Fatal("denied draw left a pending prompt")
	}

	prompt, access, err := s.Draw(testCatalog(), Truth, settings, true, newRand())
	if err != nil || access != Allowed {
		t.Fatalf("premium Draw = %s, %v", access, err)
	}
	if prompt.Text != "medium truth" {
		t.Fatalf("premium Draw = %q, want medium truth", prompt.Text)
	}
}

// TestDrawFailureDoesNotAdvance keeps the turn when the selector finds nothing.
func TestDrawFailureDoesNotAdvance(t *testing.T) {
	s := NewSession([]string{"ana", "bo"}, "gated", NewItemSet())

	_, _, err := s.Draw(testCatalog(), Dare, DefaultSettings(), false, newRand())
	if !errors.Is(err, ErrNoPromptAvailable) {
		t.Fatalf("Draw error = %v, want %v", err, ErrNoPromptAvailable)
	}
	if s.Turn() != 0 || s.Round() != 1 {
		t.Fatalf("failed draw mutated session: turn %d round %d", s.Turn(), s.Round())
	}
	if err := s.Complete(); !errors.Is(err, ErrNoPromptPending) {
		t.Fatalf("Complete error = %v, want %v", err, ErrNoPromptPending)
	}
}

func TestDrawThenComplete(t *testing.T) {
	s := NewSession([]string{"ana", "bo"}, "party", NewItemSet("ice cube"))

	prompt, access, err := s.Draw(testCatalog(), Dare, DefaultSettings(), false, newRand())
	if err != nil || access != Allowed {
		t.Fatalf("Draw = %s, %v", access, err)
	}
	if prompt.Text != "A" {
		t.Fatalf("Draw = %q, want A", prompt.Text)
	}

	if _, _, err := s.Draw(testCatalog(), Truth, DefaultSettings(), false, newRand()); !errors.Is(err, ErrPromptPending) {
		t.Fatalf("second Draw error = %v, want %v", err, ErrPromptPending)
	}

	pending, ok := s.Pending()
	if !ok || pending.Text != "A" {
		t.Fatalf("Pending = %+v, %v", pending, ok)
	}

	if err := s.Complete(); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if s.CurrentPlayer() != "bo" {
		t.Fatalf("CurrentPlayer = %s, want bo", s.CurrentPlayer())
	}
}

func TestSetupAddRemovePlayers(t *testing.T) {
	var setup Setup

	if _, err := setup.AddPlayer("   "); !errors.Is(err, ErrEmptyPlayerName) {
		t.Fatalf("AddPlayer(blank) error = %v", err)
	}

	name, err := setup.AddPlayer("  Ana ")
	if err != nil {
		t.Fatalf("AddPlayer returned error: %v", err)
	}
	if name != "Ana" {
		t.Fatalf("AddPlayer trimmed name = %q", name)
	}

	if _, err := setup.AddPlayer("Ana"); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("AddPlayer(dup) error = %v", err)
	}

	if _, err := setup.AddPlayer("Bo"); err != nil {
		t.Fatalf("AddPlayer returned error: %v", err)
	}

	if _, err := setup.RemovePlayer(5); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("RemovePlayer(5) error = %v", err)
	}

	removed, err := setup.RemovePlayer(0)
	if err != nil || removed != "Ana" {
		t.Fatalf("RemovePlayer(0) = %q, %v", removed, err)
	}

	players := setup.Players()
	if len(players) != 1 || players[0] != "Bo" {
		t.Fatalf("Players = %v", players)
	}

	setup.Reset()
	if len(setup.Players()) != 0 {
		t.Fatalf("Reset left players: %v", setup.Players())
	}
}

func TestSetupCapsPlayerNameLength(t *testing.T) {
	var setup Setup

	long := strings.Repeat("é", MaxPlayerNameLength+1)
	_, err := setup.AddPlayer(long)
	if !errors.Is(err, ErrPlayerNameTooLong) || ErrorCode(err) != "player_name_too_long" {
		t.Fatalf("AddPlayer(long) error = %v", err)
	}
	if len(setup.Players()) != 0 {
		t.Fatalf("overlong name was added: %v", setup.Players())
	}

	if _, err := setup.AddPlayer("  " + long[:len(long)-len("é")] + "  "); err != nil {
		t.Fatalf("AddPlayer at the limit returned error: %v", err)
	}
}

func TestSetupStartValidates(t *testing.T) {
	catalog := testCatalog()

	var setup Setup
	_, _ = setup.AddPlayer("Ana")

	if _, err := setup.Start(catalog, "party", nil); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("Start with one player error = %v", err)
	}

	_, _ = setup.AddPlayer("Bo")

	if _, err := setup.Start(catalog, "nope", nil); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("Start unknown category error = %v", err)
	}
	if _, err := setup.Start(catalog, "party", []string{"anvil"}); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("Start unknown item error = %v", err)
	}

	s, err := setup.Start(catalog, "party", []string{"rope"})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if s.Category() != "party" || !s.Items().Has("rope") || s.Round() != 1 || s.Turn() != 0 {
		t.Fatalf("unexpected session: %s %v round %d turn %d", s.Category(), s.Items().Names(), s.Round(), s.Turn())
	}
}
