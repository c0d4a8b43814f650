package inmemory

import (
	"context"
	"sync"

	"github.com/sufield/evault/internal/recordstore"
)

// State is an in-memory implementation of recordstore.State,
// recordstore.Counter and recordstore.Conditional. Safe for concurrent use.
type State struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewState creates an empty state.
func NewState() *State {
	return &State{values: make(map[string][]byte)}
}

// GetState returns a copy of the value under key, or nil if absent.
func (s *State) GetState(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// PutState stores a copy of value under key.
func (s *State) PutState(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

// DelState removes key. Removing an absent key is not an error.
func (s *State) DelState(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// InsertState stores value under key only if key is absent.
func (s *State) InsertState(key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values[key]) > 0 {
		return false, nil
	}
	s.values[key] = append([]byte(nil), value...)
	return true, nil
}

// ReplaceState overwrites the value under key only if key is present.
func (s *State) ReplaceState(key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values[key]) == 0 {
		return false, nil
	}
	s.values[key] = append([]byte(nil), value...)
	return true, nil
}

// RemoveState deletes key only if it is present.
func (s *State) RemoveState(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values[key]) == 0 {
		return false, nil
	}
	delete(s.values, key)
	return true, nil
}

// CountState returns the number of stored keys.
func (s *State) CountState() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values), nil
}

// Snapshot returns a copy of every key and value, for assertions in tests.
func (s *State) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = string(v)
	}
	return out
}

// Backend hands out one State per namespace.
type Backend struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{states: make(map[string]*State)}
}

// State returns the state for namespace, creating it on first use.
func (b *Backend) State(_ context.Context, namespace string) (recordstore.State, error) {
	return b.Namespace(namespace), nil
}

// Namespace returns the concrete state for namespace, creating it on first use.
func (b *Backend) Namespace(namespace string) *State {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[namespace]
	if !ok {
		st = NewState()
		b.states[namespace] = st
	}
	return st
}

// Close is a no-op; the backend holds no external resources.
func (b *Backend) Close() error { return nil }
