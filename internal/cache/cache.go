// Package cache stores read responses from the remote API so repeated
// renders of the same page do not hit the network. Entries expire after a
// fixed window and are invalidated as soon as a mutation plausibly affects
// them.
package cache

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// DefaultTTL is the expiration window measured from insertion.
const DefaultTTL = 5 * time.Minute

// ErrMiss is returned when no live entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Key identifies a cached response. The query string is canonically encoded
// (sorted by parameter name), so two lookups with the same parameters in a
// different order hit the same entry.
type Key struct {
	Path  string
	Query string
}

// NewKey builds a Key from a request path and its query parameters.
func NewKey(path string, params url.Values) Key {
	return Key{Path: path, Query: params.Encode()}
}

// ResponseCache is the store the HTTP client consults before dispatching a
// read and updates after successful responses. Implementations must treat
// failures as misses; the client degrades to the network on any error.
type ResponseCache interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, payload []byte) error
	// Invalidate removes the single entry for key.
	Invalidate(ctx context.Context, key Key) error
	// InvalidatePath removes every entry whose path starts with prefix,
	// regardless of query parameters.
	InvalidatePath(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}
