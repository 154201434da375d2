/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package content

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Seednode/truthordare/games"
	"gopkg.in/yaml.v3"
)

// DareDocument is a dare as authored in content documents.
type DareDocument struct {
	Text     string   `json:"text" yaml:"text"`
	Requires []string `json:"requires" yaml:"requires"`
}

// PromptSetDocument is the authored form of a category: kind, then level.
type PromptSetDocument struct {
	Truth map[string][]string       `json:"truth" yaml:"truth"`
	Dare  map[string][]DareDocument `json:"dare" yaml:"dare"`
}

// Document is a complete content bundle, as stored in a file.
type Document struct {
	Categories map[string]PromptSetDocument `json:"categories" yaml:"categories"`
	Items      []string                     `json:"items" yaml:"items"`
}

// Format selects the encoding of a content file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFor picks the format from a file extension, defaulting to YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}

	return FormatYAML
}

// Decode parses a content document.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json content: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml content: %w", err)
		}
	}

	return &doc, nil
}

// Encode is the inverse of Decode.
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	default:
		return yaml.Marshal(doc)
	}
}

// PromptSet converts a category document, rejecting unknown level names.
func (d PromptSetDocument) PromptSet() (games.PromptSet, error) {
	set := games.PromptSet{
		Truth: make(map[games.Level][]string, len(d.Truth)),
		Dare:  make(map[games.Level][]games.DareEntry, len(d.Dare)),
	}

	for name, truths := range d.Truth {
		level, err := games.ParseLevel(name)
		if err != nil {
			return games.PromptSet{}, fmt.Errorf("truth: %w", err)
		}

		for _, truth := range truths {
			if text := strings.TrimSpace(truth); text != "" {
				set.Truth[level] = append(set.Truth[level], text)
			}
		}
	}

	for name, dares := range d.Dare {
		level, err := games.ParseLevel(name)
		if err != nil {
			return games.PromptSet{}, fmt.Errorf("dare: %w", err)
		}

		for _, dare := range dares {
			text := strings.TrimSpace(dare.Text)
			if text == "" {
				continue
			}

			set.Dare[level] = append(set.Dare[level], games.DareEntry{
				Text:     text,
				Requires: slices.Clone(dare.Requires),
			})
		}
	}

	return set, nil
}

// Catalog converts the whole document.
func (d *Document) Catalog() (*games.Catalog, error) {
	catalog := &games.Catalog{
		Categories: make(map[string]games.PromptSet, len(d.Categories)),
		Items:      normalizeItems(d.Items),
	}

	for name, doc := range d.Categories {
		set, err := doc.PromptSet()
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}

		catalog.Categories[name] = set
	}

	return catalog, nil
}

// DocumentFor renders a catalog back into its authored form.
func DocumentFor(catalog *games.Catalog) *Document {
	doc := &Document{
		Categories: make(map[string]PromptSetDocument, len(catalog.Categories)),
		Items:      slices.Clone(catalog.Items),
	}

	for name, set := range catalog.Categories {
		setDoc := PromptSetDocument{
			Truth: make(map[string][]string, len(set.Truth)),
			Dare:  make(map[string][]DareDocument, len(set.Dare)),
		}

		for level, truths := range set.Truth {
			setDoc.Truth[level.String()] = slices.Clone(truths)
		}

		for level, dares := range set.Dare {
			for _, dare := range dares {
				setDoc.Dare[level.String()] = append(setDoc.Dare[level.String()], DareDocument{
					Text:     dare.Text,
					Requires: slices.Clone(dare.Requires),
				})
			}
		}

		doc.Categories[name] = setDoc
	}

	return doc
}

func normalizeItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || slices.Contains(out, item) {
			continue
		}
		out = append(out, item)
	}

	return out
}
