package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/truthordare/games"
)

type fakeSupabase struct {
	mu        sync.Mutex
	tokens    []string
	noItems   bool
	failLogin bool

	// stall, when set, holds content requests until it is closed
	stall chan struct{}
}

func (f *fakeSupabase) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		if f.failLogin {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"msg":"Anonymous sign-ins are disabled"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "anon-token",
			"token_type": "bearer",
			"expires_in": 3600,
			"refresh_token": "refresh",
			"user": {"id": "9f2b5b7e-4f5e-4c1a-9d0e-1f1e2d3c4b5a", "role": "authenticated"}
		}`))
	})

	mux.HandleFunc("GET /rest/v1/game_content", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokens = append(f.tokens, r.Header.Get("Authorization"))
		f.mu.Unlock()

		if f.stall != nil {
			select {
			case <-f.stall:
			case <-r.Context().Done():
			}
			return
		}

		rows := []contentRow{{
			Category: "party",
			Content: PromptSetDocument{
				Truth: map[string][]string{"easy": {"t1"}},
				Dare:  map[string][]DareDocument{"easy": {{Text: "d1", Requires: []string{"rope"}}}},
			},
		}}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})

	mux.HandleFunc("GET /rest/v1/game_config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if f.noItems || r.URL.Query().Get("id") != "eq.items" {
			_, _ = w.Write([]byte(`[]`))
			return
		}

		_, _ = w.Write([]byte(`[{"id":"items","list":["rope","spoon"]}]`))
	})

	return mux
}

// TestSupabaseSignInAndFetch signs in anonymously and reads the catalog with the issued token.
func TestSupabaseSignInAndFetch(t *testing.T) {
	fake := &fakeSupabase{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	provider, err := NewSupabase(srv.URL+"/", "anon-key", time.Second)
	if err != nil {
		t.Fatalf("NewSupabase returned error: %v", err)
	}

	catalog, cred, err := Load(context.Background(), provider, provider)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cred.Anonymous || cred.AccessToken != "anon-token" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if !strings.HasPrefix(cred.Subject, "9f2b5b7e") {
		t.Fatalf("unexpected subject: %q", cred.Subject)
	}

	party := catalog.Categories["party"]
	if party.Truth[games.Easy][0] != "t1" || party.Dare[games.Easy][0].Requires[0] != "rope" {
		t.Fatalf("unexpected category: %+v", party)
	}
	if strings.Join(catalog.Items, ",") != "rope,spoon" {
		t.Fatalf("items = %q", catalog.Items)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.tokens) != 1 || fake.tokens[0] != "Bearer anon-token" {
		t.Fatalf("content fetched with %q, want the anonymous session token", fake.tokens)
	}
}

func TestSupabaseMissingItemsIsNotFatal(t *testing.T) {
	srv := httptest.NewServer((&fakeSupabase{noItems: true}).handler())
	defer srv.Close()

	provider, err := NewSupabase(srv.URL, "anon-key", time.Second)
	if err != nil {
		t.Fatalf("NewSupabase returned error: %v", err)
	}

	catalog, _, err := Load(context.Background(), provider, provider)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(catalog.Items) != 0 || !catalog.HasCategory("party") {
		t.Fatalf("unexpected catalog: %v %q", catalog.CategoryNames(), catalog.Items)
	}
}

func TestSupabaseSignInFailure(t *testing.T) {
	srv := httptest.NewServer((&fakeSupabase{failLogin: true}).handler())
	defer srv.Close()

	provider, err := NewSupabase(srv.URL, "anon-key", time.Second)
	if err != nil {
		t.Fatalf("NewSupabase returned error: %v", err)
	}

	if _, _, err := Load(context.Background(), provider, provider); !errors.Is(err, ErrContentFetchFailed) {
		t.Fatalf("Load error = %v, want %v", err, ErrContentFetchFailed)
	}
}

// TestSupabaseUnresponsiveFetchTimesOut ensures a backend that never answers
// fails the load once the context deadline passes.
func TestSupabaseUnresponsiveFetchTimesOut(t *testing.T) {
	fake := &fakeSupabase{stall: make(chan struct{})}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()
	defer close(fake.stall)

	provider, err := NewSupabase(srv.URL, "anon-key", time.Second)
	if err != nil {
		t.Fatalf("NewSupabase returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()

	_, _, err = Load(ctx, provider, provider)
	if !errors.Is(err, ErrContentFetchFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Load error = %v, want %v and %v", err, ErrContentFetchFailed, context.DeadlineExceeded)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Load returned after %s", elapsed)
	}
}

func TestNewSupabaseRequiresCredentials(t *testing.T) {
	if _, err := NewSupabase("", "", 0); err == nil {
		t.Fatal("expected error without url and key")
	}
}
