/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package content fetches the prompt catalog and item list the game is
// played with.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/Seednode/truthordare/games"
)

// ErrContentFetchFailed wraps every failure to sign in or to retrieve the
// catalog. It is never fatal: the caller reports a degraded state.
var ErrContentFetchFailed = errors.New("content fetch failed")

// Provider returns the catalog. It is called once at startup, or again
// after a failed attempt.
type Provider interface {
	Fetch(ctx context.Context) (*games.Catalog, error)
}

// Credential is the anonymous identity content is fetched under.
type Credential struct {
	Subject     string
	AccessToken string
	Anonymous   bool
}

// IdentityProvider obtains a credential before the content fetch.
type IdentityProvider interface {
	SignIn(ctx context.Context) (Credential, error)
}

// Anonymous is the identity provider for backends without sign-in.
type Anonymous struct{}

func (Anonymous) SignIn(context.Context) (Credential, error) {
	return Credential{Subject: "anonymous", Anonymous: true}, nil
}

type loadResult struct {
	catalog *games.Catalog
	cred    Credential
	err     error
}

// Load signs in and then fetches the catalog, wrapping any failure in
// ErrContentFetchFailed. It returns once ctx is done even if the backend
// never answers.
func Load(ctx context.Context, identity IdentityProvider, provider Provider) (*games.Catalog, Credential, error) {
	if identity == nil {
		identity = Anonymous{}
	}

	done := make(chan loadResult, 1)

	go func() {
		catalog, cred, err := load(ctx, identity, provider)
		done <- loadResult{catalog: catalog, cred: cred, err: err}
	}()

	select {
	case r := <-done:
		return r.catalog, r.cred, r.err
	case <-ctx.Done():
		return nil, Credential{}, fmt.Errorf("%w: %w", ErrContentFetchFailed, ctx.Err())
	}
}

func load(ctx context.Context, identity IdentityProvider, provider Provider) (*games.Catalog, Credential, error) {
	cred, err := identity.SignIn(ctx)
	if err != nil {
		return nil, Credential{}, fmt.Errorf("%w: sign in: %w", ErrContentFetchFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, cred, fmt.Errorf("%w: %w", ErrContentFetchFailed, err)
	}

	catalog, err := provider.Fetch(ctx)
	if err != nil {
		return nil, cred, fmt.Errorf("%w: %w", ErrContentFetchFailed, err)
	}

	return catalog, cred, nil
}
