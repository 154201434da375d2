package games

import (
	"errors"
	"testing"

	"golang.org/x/text/language"
)

func TestSetRoundsPerLevelRejectsNonPositive(t *testing.T) {
	s := DefaultSettings()

	for _, n := range []int{0, -1} {
		if err := s.SetRoundsPerLevel(n); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("SetRoundsPerLevel(%d) error = %v", n, err)
		}
		if s.RoundsPerLevel != DefaultRoundsPerLevel {
			t.Fatalf("rejected update changed value to %d", s.RoundsPerLevel)
		}
	}

	if err := s.SetRoundsPerLevel(3); err != nil {
		t.Fatalf("SetRoundsPerLevel(3) returned error: %v", err)
	}
	if s.RoundsPerLevel != 3 {
		t.Fatalf("RoundsPerLevel = %d, want 3", s.RoundsPerLevel)
	}
}

func TestSetLanguage(t *testing.T) {
	s := DefaultSettings()

	if err := s.SetLanguage("en"); err != nil {
		t.Fatalf("SetLanguage(en) returned error: %v", err)
	}
	if s.Language != language.English {
		t.Fatalf("Language = %s", s.Language)
	}

	for _, value := range []string{"fr", "not a tag!!"} {
		if err := s.SetLanguage(value); !errors.Is(err, ErrUnsupportedLanguage) {
			t.Fatalf("SetLanguage(%q) error = %v", value, err)
		}
		if s.Language != language.English {
			t.Fatalf("rejected update changed language to %s", s.Language)
		}
	}
}

func TestCheckAccess(t *testing.T) {
	tcs := []struct {
		level   Level
		premium bool
		want    Access
	}{
		{Easy, false, Allowed},
		{Easy, true, Allowed},
		{Medium, false, Denied},
		{Medium, true, Allowed},
		{Hard, false, Denied},
		{Hard, true, Allowed},
	}

	for _, tc := range tcs {
		if got := CheckAccess(tc.level, tc.premium); got != tc.want {
			t.Errorf("CheckAccess(%s, %v) = %s, want %s", tc.level, tc.premium, got, tc.want)
		}
	}
}
