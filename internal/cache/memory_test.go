package cache

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestNewKey_CanonicalQuery(t *testing.T) {
	a := url.Values{}
	a.Set("page", "2")
	a.Set("category", "shoes")

	b := url.Values{}
	b.Set("category", "shoes")
	b.Set("page", "2")

	if NewKey("/products/", a) != NewKey("/products/", b) {
		t.Error("keys with the same parameters in different order should be equal")
	}
	if NewKey("/products/", a) == NewKey("/products/", nil) {
		t.Error("keys with and without parameters should differ")
	}
}

func TestMemory_Get_Miss(t *testing.T) {
	m := NewMemory(0)

	_, err := m.Get(context.Background(), Key{Path: "/products/"})
	if !errors.Is(err, ErrMiss) {
		t.Errorf("Get() error = %v; want ErrMiss", err)
	}
}

func TestMemory_Set_Get(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	key := Key{Path: "/products/"}

	m.Set(ctx, key, []byte(`[{"id":1}]`))

	got, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Errorf("Get() = %s; want %s", got, `[{"id":1}]`)
	}
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(5 * time.Minute)
	ctx := context.Background()
	key := Key{Path: "/products/"}

	inserted := time.Now()
	m.now = func() time.Time { return inserted }
	m.Set(ctx, key, []byte("x"))

	// strictly before the window elapses: still served
	m.now = func() time.Time { return inserted.Add(5*time.Minute - time.Second) }
	if _, err := m.Get(ctx, key); err != nil {
		t.Errorf("Get() before expiry error = %v", err)
	}

	// at the window boundary: expired
	m.now = func() time.Time { return inserted.Add(5 * time.Minute) }
	if _, err := m.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after expiry error = %v; want ErrMiss", err)
	}

	if m.Len() != 0 {
		t.Errorf("expired entry should be dropped, Len() = %d", m.Len())
	}
}

func TestMemory_Invalidate(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	key := NewKey("/auth/profile/", nil)
	m.Set(ctx, key, []byte("profile"))
	m.Invalidate(ctx, key)

	if _, err := m.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after Invalidate error = %v; want ErrMiss", err)
	}
}

func TestMemory_InvalidatePath(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	params := url.Values{}
	params.Set("code", "abc123")

	m.Set(ctx, NewKey("/cart/", nil), []byte("a"))
	m.Set(ctx, NewKey("/cart/", params), []byte("b"))
	m.Set(ctx, NewKey("/cart/add/", nil), []byte("c"))
	m.Set(ctx, NewKey("/products/", nil), []byte("d"))

	m.InvalidatePath(ctx, "/cart/")

	for _, key := range []Key{NewKey("/cart/", nil), NewKey("/cart/", params), NewKey("/cart/add/", nil)} {
		if _, err := m.Get(ctx, key); !errors.Is(err, ErrMiss) {
			t.Errorf("Get(%v) after InvalidatePath error = %v; want ErrMiss", key, err)
		}
	}

	if _, err := m.Get(ctx, NewKey("/products/", nil)); err != nil {
		t.Errorf("unrelated entry was invalidated: %v", err)
	}
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	m.Set(ctx, NewKey("/products/", nil), []byte("a"))
	m.Set(ctx, NewKey("/auth/profile/", nil), []byte("b"))

	m.Clear(ctx)

	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d; want 0", m.Len())
	}
}
