/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import "errors"

var (
	ErrNoPromptAvailable    = errors.New("no prompt available for this category, type and level")
	ErrInvalidConfiguration = errors.New("rounds per level must be a positive integer")
	ErrUnsupportedLanguage  = errors.New("unsupported language")
	ErrEmptyPlayerName      = errors.New("player name must not be empty")
	ErrPlayerNameTooLong    = errors.New("player name is too long")
	ErrDuplicatePlayer      = errors.New("player name is already taken")
	ErrUnknownPlayer        = errors.New("no such player")
	ErrNotEnoughPlayers     = errors.New("at least two players are required")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownItem          = errors.New("unknown item")
	ErrUnknownKind          = errors.New("prompt type must be truth or dare")
	ErrNoActiveSession      = errors.New("no game in progress")
	ErrSessionActive        = errors.New("a game is already in progress")
	ErrPromptPending        = errors.New("the current prompt has not been completed")
	ErrNoPromptPending      = errors.New("no prompt to complete")
)

// ErrorCode maps an error to the stable identifier sent to clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoPromptAvailable):
		return "no_prompt_available"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrUnsupportedLanguage):
		return "unsupported_language"
	case errors.Is(err, ErrEmptyPlayerName):
		return "empty_player_name"
	case errors.Is(err, ErrPlayerNameTooLong):
		return "player_name_too_long"
	case errors.Is(err, ErrDuplicatePlayer):
		return "duplicate_player"
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ErrNoActiveSession):
		return "no_active_session"
	case errors.Is(err, ErrSessionActive):
		return "session_active"
	case errors.Is(err, ErrPromptPending):
		return "prompt_pending"
	case errors.Is(err, ErrNoPromptPending):
		return "no_prompt_pending"
	default:
		return "internal"
	}
}
