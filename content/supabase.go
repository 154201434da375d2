/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Seednode/truthordare/games"
	"github.com/supabase-community/gotrue-go/types"
	supa "github.com/supabase-community/supabase-go"
)

const (
	ContentTable = "game_content"
	ConfigTable  = "game_config"
	ItemsConfig  = "items"
)

// contentRow matches a row of the game_content table; the category name is
// the primary key and content holds the prompt set.
type contentRow struct {
	Category string            `json:"category"`
	Content  PromptSetDocument `json:"content"`
}

// configRow matches a row of the game_config table.
type configRow struct {
	ID   string   `json:"id"`
	List []string `json:"list"`
}

// Supabase fetches content from a hosted Supabase project, signing in
// anonymously first.
type Supabase struct {
	client *supa.Client
}

// NewSupabase connects to the project at url. A positive timeout bounds each
// auth request; callers bound the whole fetch through the context passed to
// Load.
func NewSupabase(url, key string, timeout time.Duration) (*Supabase, error) {
	client, err := supa.NewClient(strings.TrimSuffix(url, "/"), key, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to supabase: %w", err)
	}

	if timeout > 0 {
		client.Auth = client.Auth.WithClient(http.Client{Timeout: timeout})
	}

	return &Supabase{client: client}, nil
}

// SignIn creates an anonymous user and uses its access token for every
// subsequent request.
func (s *Supabase) SignIn(ctx context.Context) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	resp, err := s.client.Auth.Signup(types.SignupRequest{})
	if err != nil {
		return Credential{}, fmt.Errorf("anonymous sign-in: %w", err)
	}

	if resp.AccessToken == "" {
		return Credential{}, errors.New("anonymous sign-in returned no session")
	}

	s.client.UpdateAuthSession(resp.Session)

	return Credential{
		Subject:     resp.Session.User.ID.String(),
		AccessToken: resp.AccessToken,
		Anonymous:   true,
	}, nil
}

func (s *Supabase) Fetch(ctx context.Context) (*games.Catalog, error) {
	var rows []contentRow
	if _, err := s.client.From(ContentTable).Select("*", "", false).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("select %s: %w", ContentTable, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &Document{Categories: make(map[string]PromptSetDocument, len(rows))}
	for _, row := range rows {
		doc.Categories[row.Category] = row.Content
	}

	var config []configRow
	if _, err := s.client.From(ConfigTable).Select("*", "", false).Eq("id", ItemsConfig).ExecuteTo(&config); err != nil {
		return nil, fmt.Errorf("select %s: %w", ConfigTable, err)
	}

	if len(config) == 0 {
		log.Printf("WARN: no %q row in %s; continuing without items", ItemsConfig, ConfigTable)
	} else {
		doc.Items = config[0].List
	}

	return doc.Catalog()
}
