/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Seednode/truthordare/content"
	"github.com/Seednode/truthordare/games"
)

type contentState string

const (
	stateLoading contentState = "loading"
	stateReady   contentState = "ready"
	stateFailed  contentState = "failed"
)

// newContentSource builds the identity and content providers named by the
// configuration. The returned closer releases any local database handle.
func newContentSource(cfg *Config) (content.IdentityProvider, content.Provider, io.Closer, error) {
	switch cfg.contentSource {
	case sourceFile:
		return content.Anonymous{}, content.NewFileProvider(cfg.contentPath), nil, nil
	case sourceSQLite:
		store, err := content.OpenSQLite(cfg.contentPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return content.Anonymous{}, store, store, nil
	default:
		sb, err := content.NewSupabase(cfg.supabaseURL, cfg.supabaseKey, cfg.fetchTimeout)
		if err != nil {
			return nil, nil, nil, err
		}
		return sb, sb, nil, nil
	}
}

// ContentLoader runs the startup fetch in the background and tells
// subscribed hubs whenever its state changes.
type ContentLoader struct {
	cfg      *Config
	identity content.IdentityProvider
	provider content.Provider

	mu          sync.RWMutex
	state       contentState
	catalog     *games.Catalog
	err         error
	loadedAt    time.Time
	running     bool
	subscribers map[chan struct{}]struct{}
}

func newContentLoader(cfg *Config, identity content.IdentityProvider, provider content.Provider) *ContentLoader {
	return &ContentLoader{
		cfg:         cfg,
		identity:    identity,
		provider:    provider,
		state:       stateLoading,
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Start begins a fetch unless one is running or content is already loaded.
func (l *ContentLoader) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running || l.state == stateReady {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.state = stateLoading
	l.err = nil
	l.mu.Unlock()

	l.notify()

	go l.load(ctx)
}

// Retry restarts the fetch after a failure.
func (l *ContentLoader) Retry(ctx context.Context) {
	l.mu.RLock()
	failed := l.state == stateFailed
	l.mu.RUnlock()

	if failed {
		logf(l.cfg, "CONTENT: Retrying content fetch")
		l.Start(ctx)
	}
}

func (l *ContentLoader) load(ctx context.Context) {
	startTime := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, l.cfg.fetchTimeout)
	defer cancel()

	catalog, cred, err := content.Load(fetchCtx, l.identity, l.provider)

	l.mu.Lock()
	l.running = false
	if err != nil {
		l.state = stateFailed
		l.err = err
	} else {
		l.state = stateReady
		l.catalog = catalog
		l.loadedAt = time.Now()
	}
	l.mu.Unlock()

	if err != nil {
		logError(err)
	} else {
		logf(l.cfg, "CONTENT: Loaded %d categories and %d items as %s in %s",
			len(catalog.Categories),
			len(catalog.Items),
			cred.Subject,
			time.Since(startTime).Round(time.Microsecond),
		)
	}

	l.notify()
}

// Snapshot returns the current state and, once ready, the catalog.
func (l *ContentLoader) Snapshot() (contentState, *games.Catalog, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.state, l.catalog, l.err
}

// Subscribe returns a channel that receives a value after each state change.
func (l *ContentLoader) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)

	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()

	return ch
}

func (l *ContentLoader) Unsubscribe(ch chan struct{}) {
	l.mu.Lock()
	delete(l.subscribers, ch)
	l.mu.Unlock()
}

func (l *ContentLoader) notify() {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for ch := range l.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
