package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/storefront/internal/storage"
)

// Storage keys for the credential pair.
const (
	keyAccessToken  = "auth.access_token"
	keyRefreshToken = "auth.refresh_token"
)

// Tokens is the persisted credential pair. It satisfies api.TokenSource:
// the HTTP client reads the access token on every request and replaces it
// after a silent refresh.
type Tokens struct {
	store storage.Store

	mu      sync.RWMutex
	access  string
	refresh string
}

// NewTokens loads any persisted credentials from store.
func NewTokens(store storage.Store) (*Tokens, error) {
	t := &Tokens{store: store}

	access, err := store.Get(keyAccessToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load access token: %w", err)
	}
	refresh, err := store.Get(keyRefreshToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}

	t.access = access
	t.refresh = refresh
	return t, nil
}

// Access returns the current access token, or "" when unauthenticated.
func (t *Tokens) Access() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.access
}

// Refresh returns the current refresh token, or "".
func (t *Tokens) Refresh() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refresh
}

// SetAccess replaces the access token, keeping the refresh token.
func (t *Tokens) SetAccess(access string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Set(keyAccessToken, access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	t.access = access
	return nil
}

// SetPair replaces both tokens after a successful login.
func (t *Tokens) SetPair(access, refresh string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Set(keyAccessToken, access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := t.store.Set(keyRefreshToken, refresh); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	t.access = access
	t.refresh = refresh
	return nil
}

// Clear deletes both tokens from memory and from the store.
func (t *Tokens) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.access = ""
	t.refresh = ""

	if err := t.store.Delete(keyAccessToken); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete access token: %w", err)
	}
	if err := t.store.Delete(keyRefreshToken); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
