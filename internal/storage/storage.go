// Package storage defines the durable client-side key-value store that
// holds the pieces of state surviving a process restart: the token pair,
// the anonymous cart code and the theme preference.
package storage

import "errors"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store is a durable string key-value store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}
