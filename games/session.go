/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	// MinPlayers is the smallest roster a game can start with.
	MinPlayers = 2

	// MaxPlayerNameLength is counted in runes after trimming.
	MaxPlayerNameLength = 40
)

// Setup collects players before a game starts.
type Setup struct {
	players []string
}

func (s *Setup) Players() []string {
	return slices.Clone(s.players)
}

// AddPlayer trims the name and rejects empty, overlong or duplicate names.
func (s *Setup) AddPlayer(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyPlayerName
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLength {
		return "", fmt.Errorf("%w: %d characters", ErrPlayerNameTooLong, utf8.RuneCountInString(name))
	}
	if slices.Contains(s.players, name) {
		return "", fmt.Errorf("%w: %q", ErrDuplicatePlayer, name)
	}

	s.players = append(s.players, name)

	return name, nil
}

func (s *Setup) RemovePlayer(index int) (string, error) {
	if index < 0 || index >= len(s.players) {
		return "", fmt.Errorf("%w: index %d", ErrUnknownPlayer, index)
	}

	name := s.players[index]
	s.players = slices.Delete(s.players, index, index+1)

	return name, nil
}

func (s *Setup) Reset() {
	s.players = nil
}

// Start validates the roster, category and items against the catalog and
// returns a new session. The setup roster is left as-is.
func (s *Setup) Start(catalog *Catalog, category string, items []string) (*Session, error) {
	if len(s.players) < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	if !catalog.HasCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	for _, item := range items {
		if !catalog.HasItem(item) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownItem, item)
		}
	}

	return NewSession(s.players, category, NewItemSet(items...)), nil
}

// Session is the state of a game in progress.
type Session struct {
	players  []string
	category string
	items    ItemSet

	turn  int
	round int

	// highest level reached, so that raising roundsPerLevel mid-game
	// cannot move the session back down
	reached Level

	pending *Prompt
}

func NewSession(players []string, category string, items ItemSet) *Session {
	return &Session{
		players:  slices.Clone(players),
		category: category,
		items:    items,
		turn:     0,
		round:    1,
		reached:  Easy,
	}
}

func (s *Session) Players() []string {
	return slices.Clone(s.players)
}

func (s *Session) Category() string {
	return s.category
}

func (s *Session) Items() ItemSet {
	return s.items
}

func (s *Session) Turn() int {
	return s.turn
}

func (s *Session) Round() int {
	return s.round
}

func (s *Session) CurrentPlayer() string {
	return s.players[s.turn]
}

// NextPlayer is the player who goes after the current one.
func (s *Session) NextPlayer() string {
	return s.players[(s.turn+1)%len(s.players)]
}

// Level is recomputed from the round counter on every call, and never
// reports lower than the highest level already reached.
func (s *Session) Level(roundsPerLevel int) Level {
	level := ComputeLevel(s.round, roundsPerLevel)
	if level < s.reached {
		return s.reached
	}

	s.reached = level

	return level
}

func (s *Session) Progress(roundsPerLevel int) int {
	return progressAt(s.Level(roundsPerLevel), s.round, roundsPerLevel)
}

func (s *Session) RoundsUntilNextLevel(roundsPerLevel int) int {
	return roundsUntilAfter(s.Level(roundsPerLevel), s.round, roundsPerLevel)
}

// AdvanceTurn moves to the next player, counting a new round when the
// order wraps. Call it exactly once per completed turn.
func (s *Session) AdvanceTurn() {
	s.turn = (s.turn + 1) % len(s.players)
	if s.turn == 0 {
		s.round++
	}
}

// Pending returns the prompt the current player has not completed yet.
func (s *Session) Pending() (Prompt, bool) {
	if s.pending == nil {
		return Prompt{}, false
	}

	return *s.pending, true
}

// Draw gates and selects a prompt for the current player. A denied or
// failed draw leaves the session untouched.
func (s *Session) Draw(catalog *Catalog, kind Kind, settings Settings, isPremium bool, rng *rand.Rand) (Prompt, Access, error) {
	if s.pending != nil {
		return Prompt{}, Allowed, ErrPromptPending
	}

	level := s.Level(settings.RoundsPerLevel)

	if CheckAccess(level, isPremium) == Denied {
		return Prompt{}, Denied, nil
	}

	prompt, err := SelectPrompt(catalog, s.category, kind, level, s.items, rng)
	if err != nil {
		return Prompt{}, Allowed, err
	}

	s.pending = &prompt

	return prompt, Allowed, nil
}

// Complete finishes the pending prompt and passes the turn on.
func (s *Session) Complete() error {
	if s.pending == nil {
		return ErrNoPromptPending
	}

	s.pending = nil
	s.AdvanceTurn()

	return nil
}
