/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
)

// Kind is the prompt type a player picks on their turn.
type Kind string

const (
	Truth Kind = "truth"
	Dare  Kind = "dare"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Truth:
		return Truth, nil
	case Dare:
		return Dare, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// DareEntry is a dare and the items it needs.
type DareEntry struct {
	Text     string
	Requires []string
}

// PromptSet holds the authored prompts of one category, by level.
type PromptSet struct {
	Truth map[Level][]string
	Dare  map[Level][]DareEntry
}

// Catalog is everything fetched from the content provider at startup.
// It is read-only once built.
type Catalog struct {
	Categories map[string]PromptSet
	Items      []string
}

// CategoryNames returns the category names in sorted order.
func (c *Catalog) CategoryNames() []string {
	if c == nil {
		return nil
	}

	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func (c *Catalog) HasCategory(name string) bool {
	if c == nil {
		return false
	}

	_, ok := c.Categories[name]

	return ok
}

func (c *Catalog) HasItem(name string) bool {
	if c == nil {
		return false
	}

	return slices.Contains(c.Items, name)
}

// ItemSet is the set of items a group declared as available.
type ItemSet map[string]struct{}

func NewItemSet(names ...string) ItemSet {
	set := make(ItemSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

func (s ItemSet) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// HasAll reports whether every required item is in the set.
func (s ItemSet) HasAll(required []string) bool {
	for _, name := range required {
		if !s.Has(name) {
			return false
		}
	}

	return true
}

// Names returns the items in sorted order.
func (s ItemSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Prompt is a single truth question or dare handed to a player.
type Prompt struct {
	Kind     Kind
	Level    Level
	Text     string
	Requires []string
}

func resolveTruths(set PromptSet, level Level) []string {
	if list := set.Truth[level]; len(list) > 0 {
		return list
	}

	return set.Truth[Easy]
}

func resolveDares(set PromptSet, level Level) []DareEntry {
	if list := set.Dare[level]; len(list) > 0 {
		return list
	}

	return set.Dare[Easy]
}

// SelectPrompt picks one prompt for the given category, kind and level.
//
// Levels without authored content fall back to the easy pool. Dares whose
// required items are all available are preferred; dares requiring nothing
// are used when none of those exist.
func SelectPrompt(catalog *Catalog, category string, kind Kind, level Level, items ItemSet, rng *rand.Rand) (Prompt, error) {
	if catalog == nil {
		return Prompt{}, ErrNoPromptAvailable
	}

	set, ok := catalog.Categories[category]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: category %q", ErrNoPromptAvailable, category)
	}

	switch kind {
	case Truth:
		list := resolveTruths(set, level)
		if len(list) == 0 {
			return Prompt{}, fmt.Errorf("%w: %s/%s/%s", ErrNoPromptAvailable, category, kind, level)
		}

		return Prompt{
			Kind:  Truth,
			Level: level,
			Text:  list[rng.Intn(len(list))],
		}, nil

	case Dare:
		list := resolveDares(set, level)

		var eligible, noRequirement []DareEntry
		for _, dare := range list {
			if len(dare.Requires) == 0 {
				noRequirement = append(noRequirement, dare)
				continue
			}
			if items.HasAll(dare.Requires) {
				eligible = append(eligible, dare)
			}
		}

		pool := eligible
		if len(pool) == 0 {
			pool = noRequirement
		}
		if len(pool) == 0 {
			return Prompt{}, fmt.Errorf("%w: %s/%s/%s", ErrNoPromptAvailable, category, kind, level)
		}

		chosen := pool[rng.Intn(len(pool))]

		return Prompt{
			Kind:     Dare,
			Level:    level,
			Text:     chosen.Text,
			Requires: slices.Clone(chosen.Requires),
		}, nil

	default:
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
