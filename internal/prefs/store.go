// Package prefs holds small user preferences that must survive restarts,
// currently the UI theme.
package prefs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/storefront/internal/storage"
)

// Theme is a UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const keyTheme = "prefs.theme"

// ErrUnknownTheme rejects values outside the known set.
var ErrUnknownTheme = errors.New("unknown theme")

// Store persists preferences through a storage.Store. Preferences are
// per device, not per account, so logout leaves them untouched.
type Store struct {
	store storage.Store

	mu    sync.RWMutex
	theme Theme
}

// NewStore loads persisted preferences, defaulting the theme to light.
func NewStore(store storage.Store) (*Store, error) {
	s := &Store{store: store, theme: ThemeLight}

	value, err := store.Get(keyTheme)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// first run, keep the default
	case err != nil:
		return nil, fmt.Errorf("load theme: %w", err)
	case Theme(value) == ThemeLight || Theme(value) == ThemeDark:
		s.theme = Theme(value)
	default:
		// A corrupt value falls back to the default rather than failing
		// startup.
	}

	return s, nil
}

// Theme returns the active theme.
func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme switches and persists the theme.
func (s *Store) SetTheme(theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(keyTheme, string(theme)); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	s.theme = theme
	return nil
}

// Toggle flips between light and dark and returns the new theme.
func (s *Store) Toggle() (Theme, error) {
	next := ThemeDark
	if s.Theme() == ThemeDark {
		next = ThemeLight
	}
	if err := s.SetTheme(next); err != nil {
		return "", err
	}
	return next, nil
}
