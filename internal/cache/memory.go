package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	payload    []byte
	insertedAt time.Time
}

// Memory is the in-process ResponseCache used by default.
type Memory struct {
	mu      sync.Mutex
	entries map[Key]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory cache. A non-positive ttl falls back to
// DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: make(map[Key]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the live payload for key, or ErrMiss. Expired entries are
// dropped on access.
func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if m.now().Sub(e.insertedAt) >= m.ttl {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return e.payload, nil
}

// Set stores payload under key, stamped with the current time.
func (m *Memory) Set(_ context.Context, key Key, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{payload: payload, insertedAt: m.now()}
	return nil
}

// Invalidate removes the single entry for key.
func (m *Memory) Invalidate(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// InvalidatePath removes every entry whose path starts with prefix.
func (m *Memory) InvalidatePath(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key.Path, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[Key]entry)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
