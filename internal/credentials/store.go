// Package credentials keeps the bridge service passkey the scanner uses. It
// stands in for the device keychain: values can be read, replaced and deleted,
// and deleting reports whether anything was there.
package credentials

import (
	"context"
	"sync"
)

// PasskeyKey is the key the bridge passkey is stored under.
const PasskeyKey = "connectKey"

// Store is a secret key/value store.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	delete(m.values, key)
	return ok, nil
}

// Passkey reads the bridge passkey. A missing passkey yields "" and no error;
// the bridge service reports it as invalid.
func Passkey(ctx context.Context, s Store) (string, error) {
	v, _, err := s.Get(ctx, PasskeyKey)
	return v, err
}
