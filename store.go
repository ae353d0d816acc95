package pocketflow

import (
	"fmt"
	"maps"
	"sync"
)

// Store is an open key/value shared state for flows whose fields are not
// known ahead of time. Reads of absent keys return a default rather than
// failing. Safe for concurrent use.
//
// Flows with a fixed set of fields should use their own struct type as the
// shared state instead.
type Store struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial map[string]any) *Store {
	data := make(map[string]any, len(initial))
	maps.Copy(data, initial)
	return &Store{data: data}
}

// Get retrieves a value by key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, exists := s.data[key]
	return val, exists
}

// GetOr retrieves a value by key, or def when the key is absent.
func (s *Store) GetOr(key string, def any) any {
	if val, ok := s.Get(key); ok {
		return val
	}
	return def
}

// Set stores a value with the given key.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
}

// Delete removes a key from the store.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Snapshot returns a shallow copy of the contents.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.data)
}

// Lookup returns the value under key as a T. Absent keys yield def; a value
// of another type is an error.
func Lookup[T any](s *Store, key string, def T) (T, error) {
	val, ok := s.Get(key)
	if !ok {
		return def, nil
	}

	typed, ok := val.(T)
	if !ok {
		return def, fmt.Errorf("key %q: type mismatch: expected %T, got %T", key, def, val)
	}
	return typed, nil
}
