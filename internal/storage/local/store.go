// Package local provides a JSON-file backed Store for environments without
// SQLite support. All keys live in a single state.json under the state dir.
package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/storefront/internal/storage"
)

const stateFile = "state.json"

// Store provides thread-safe JSON file storage
type Store struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// NewStore creates a new local JSON store rooted at basePath
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &Store{
		path:   filepath.Join(basePath, stateFile),
		values: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s.values); err != nil {
		return fmt.Errorf("decode state file: %w", err)
	}
	return nil
}

// flush writes the full map back to disk. Caller must hold the write lock.
func (s *Store) flush() error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.values); err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}
	return nil
}

// Get returns the stored value for key
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Set persists a value under key
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.flush()
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// Close is a no-op for the file store
func (s *Store) Close() error {
	return nil
}
