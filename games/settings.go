/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"fmt"

	"golang.org/x/text/language"
)

const DefaultRoundsPerLevel = 10

// SupportedLanguages lists the languages prompts are authored in.
var SupportedLanguages = []language.Tag{language.English}

var languageMatcher = language.NewMatcher(SupportedLanguages)

// Settings are the user-editable knobs of a game, held in memory only.
type Settings struct {
	RoundsPerLevel int
	Language       language.Tag
}

func DefaultSettings() Settings {
	return Settings{
		RoundsPerLevel: DefaultRoundsPerLevel,
		Language:       language.English,
	}
}

// SetRoundsPerLevel rejects non-positive values and keeps the prior one.
func (s *Settings) SetRoundsPerLevel(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConfiguration, n)
	}

	s.RoundsPerLevel = n

	return nil
}

// SetLanguage accepts a BCP 47 tag matching one of SupportedLanguages.
func (s *Settings) SetLanguage(value string) error {
	tag, err := language.Parse(value)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, value)
	}

	_, index, confidence := languageMatcher.Match(tag)
	if confidence < language.High {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, value)
	}

	s.Language = SupportedLanguages[index]

	return nil
}
