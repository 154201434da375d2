/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Seednode/truthordare/games"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS prompts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('truth', 'dare')),
	level TEXT NOT NULL,
	text TEXT NOT NULL,
	requires_json TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS prompts_category ON prompts (category);
CREATE TABLE IF NOT EXISTS items (
	position INTEGER NOT NULL,
	name TEXT PRIMARY KEY
);
`

// SQLite keeps content in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, creating the schema if needed.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *SQLite) Fetch(ctx context.Context) (*games.Catalog, error) {
	doc := &Document{Categories: make(map[string]PromptSetDocument)}

	rows, err := s.db.QueryContext(ctx, `SELECT category, kind, level, text, requires_json FROM prompts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select prompts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, kind, level, text, requiresJSON string
		if err := rows.Scan(&category, &kind, &level, &text, &requiresJSON); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}

		set, ok := doc.Categories[category]
		if !ok {
			set = PromptSetDocument{
				Truth: make(map[string][]string),
				Dare:  make(map[string][]DareDocument),
			}
		}

		switch games.Kind(kind) {
		case games.Truth:
			set.Truth[level] = append(set.Truth[level], text)
		case games.Dare:
			var requires []string
			if err := json.Unmarshal([]byte(requiresJSON), &requires); err != nil {
				return nil, fmt.Errorf("decode requires for %q: %w", text, err)
			}
			set.Dare[level] = append(set.Dare[level], DareDocument{Text: text, Requires: requires})
		}

		doc.Categories[category] = set
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx, `SELECT name FROM items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var name string
		if err := itemRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		doc.Items = append(doc.Items, name)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return doc.Catalog()
}

// Import replaces the stored content with the given document.
func (s *SQLite) Import(ctx context.Context, doc *Document) (prompts int, err error) {
	// validate levels before touching the database
	if _, err := doc.Catalog(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM prompts`); err != nil {
		return 0, fmt.Errorf("clear prompts: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}

	insert := `INSERT INTO prompts (category, kind, level, text, requires_json) VALUES (?, ?, ?, ?, ?)`

	for category, set := range doc.Categories {
		for level, truths := range set.Truth {
			for _, text := range truths {
				if _, err = tx.ExecContext(ctx, insert, category, string(games.Truth), level, text, "[]"); err != nil {
					return 0, fmt.Errorf("insert truth: %w", err)
				}
				prompts++
			}
		}

		for level, dares := range set.Dare {
			for _, dare := range dares {
				requires := dare.Requires
				if requires == nil {
					requires = []string{}
				}

				var encoded []byte
				encoded, err = json.Marshal(requires)
				if err != nil {
					return 0, fmt.Errorf("encode requires: %w", err)
				}

				if _, err = tx.ExecContext(ctx, insert, category, string(games.Dare), level, dare.Text, string(encoded)); err != nil {
					return 0, fmt.Errorf("insert dare: %w", err)
				}
				prompts++
			}
		}
	}

	for i, name := range normalizeItems(doc.Items) {
		if _, err = tx.ExecContext(ctx, `INSERT INTO items (position, name) VALUES (?, ?)`, i, name); err != nil {
			return 0, fmt.Errorf("insert item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	return prompts, nil
}
