package prefs

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/storefront/internal/storage/local"
)

func TestStore_DefaultsToLight(t *testing.T) {
	backing, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	s, err := NewStore(backing)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.Theme() != ThemeLight {
		t.Errorf("Theme() = %q, want %q", s.Theme(), ThemeLight)
	}
}

func TestStore_ThemeSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	backing, err := local.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	s, err := NewStore(backing)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.SetTheme(ThemeDark); err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}

	reopened, err := local.NewStore(dir)
	if err != nil {
		t.Fatalf("reopen backing store: %v", err)
	}
	s2, err := NewStore(reopened)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s2.Theme() != ThemeDark {
		t.Errorf("Theme() after reopen = %q, want %q", s2.Theme(), ThemeDark)
	}
}

func TestStore_RejectsUnknownTheme(t *testing.T) {
	backing, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	s, err := NewStore(backing)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := s.SetTheme("sepia"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("SetTheme() error = %v, want ErrUnknownTheme", err)
	}
	if s.Theme() != ThemeLight {
		t.Errorf("Theme() = %q after rejected set", s.Theme())
	}
}

func TestStore_CorruptValueFallsBack(t *testing.T) {
	backing, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := backing.Set("prefs.theme", "neon"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	s, err := NewStore(backing)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.Theme() != ThemeLight {
		t.Errorf("Theme() = %q, want fallback %q", s.Theme(), ThemeLight)
	}
}

func TestStore_Toggle(t *testing.T) {
	backing, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	s, err := NewStore(backing)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	got, err := s.Toggle()
	if err != nil || got != ThemeDark {
		t.Fatalf("Toggle() = (%q, %v), want dark", got, err)
	}
	got, err = s.Toggle()
	if err != nil || got != ThemeLight {
		t.Fatalf("Toggle() = (%q, %v), want light", got, err)
	}
}
