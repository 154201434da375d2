/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"fmt"
	"strings"
)

// Level is the difficulty tier a session has reached.
type Level int

const (
	Easy Level = iota
	Medium
	Hard
)

// Levels lists every level, in progression order.
var Levels = []Level{Easy, Medium, Hard}

func (l Level) String() string {
	switch l {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseLevel accepts the names used by content documents.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Easy, fmt.Errorf("unknown level %q", s)
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

func clampRounds(roundsPerLevel int) int {
	if roundsPerLevel < 1 {
		return 1
	}

	return roundsPerLevel
}

// ComputeLevel derives the level from the round counter.
// A non-positive roundsPerLevel is treated as 1.
func ComputeLevel(roundCount, roundsPerLevel int) Level {
	rpl := clampRounds(roundsPerLevel)

	switch {
	case roundCount > 2*rpl:
		return Hard
	case roundCount > rpl:
		return Medium
	default:
		return Easy
	}
}

// LevelProgress returns how far through the current level the round
// counter is, as a percentage.
func LevelProgress(roundCount, roundsPerLevel int) int {
	return progressAt(ComputeLevel(roundCount, roundsPerLevel), roundCount, roundsPerLevel)
}

// RoundsUntilNextLevel returns 0 once the terminal level is reached.
func RoundsUntilNextLevel(roundCount, roundsPerLevel int) int {
	return roundsUntilAfter(ComputeLevel(roundCount, roundsPerLevel), roundCount, roundsPerLevel)
}

func progressAt(level Level, roundCount, roundsPerLevel int) int {
	rpl := clampRounds(roundsPerLevel)

	var done int
	switch level {
	case Easy:
		done = (roundCount - 1) % rpl
	case Medium:
		done = (roundCount - (rpl + 1)) % rpl
	default:
		return 100
	}

	if done < 0 {
		return 0
	}

	return done * 100 / rpl
}

func roundsUntilAfter(level Level, roundCount, roundsPerLevel int) int {
	rpl := clampRounds(roundsPerLevel)

	switch level {
	case Easy:
		return rpl + 1 - roundCount
	case Medium:
		return 2*rpl + 1 - roundCount
	default:
		return 0
	}
}
