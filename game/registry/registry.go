package registry

import (
	"errors"
	"sync"
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrDuplicateKey = errors.New("entry already exists")
)

// Map is a mutex-guarded key→value map. The zero value is not usable; use
// New.
type Map[K comparable, V comparable] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// New creates an empty Map.
func New[K comparable, V comparable]() *Map[K, V] {
	return &Map[K, V]{
		entries: make(map[K]V),
	}
}

// Store adds a new entry. It fails with ErrDuplicateKey if the key is
// already present; the existing entry is left untouched.
func (m *Map[K, V]) Store(key K, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; exists {
		return ErrDuplicateKey
	}
	m.entries[key] = value
	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (m *Map[K, V]) Get(key K) (V, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.entries[key]
	if !exists {
		var zero V
		return zero, ErrNotFound
	}
	return value, nil
}

// TryGet returns the value stored under key and whether it was found.
func (m *Map[K, V]) TryGet(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.entries[key]
	return value, exists
}

// Delete removes the entry under key and reports whether one was removed.
func (m *Map[K, V]) Delete(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		return false
	}
	delete(m.entries, key)
	return true
}

// Exists reports whether an entry is stored under key.
func (m *Map[K, V]) Exists(key K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.entries[key]
	return exists
}

// Len returns the number of stored entries.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Values returns a snapshot of all stored values. Mutations after the call
// are not reflected in the returned slice.
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := make([]V, 0, len(m.entries))
	for _, value := range m.entries {
		values = append(values, value)
	}
	return values
}

// ValuesExcept returns a snapshot of all values except the one stored under
// the given key.
func (m *Map[K, V]) ValuesExcept(key K) []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := make([]V, 0, len(m.entries))
	for k, value := range m.entries {
		if k == key {
			continue
		}
		values = append(values, value)
	}
	return values
}

// Keys returns a snapshot of all stored keys.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// KeyOf returns the key the given value is stored under, or ErrNotFound.
// Used to recover a game's ID from its data during fan-out.
func (m *Map[K, V]) KeyOf(value V) (K, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for k, v := range m.entries {
		if v == value {
			return k, nil
		}
	}
	var zero K
	return zero, ErrNotFound
}
