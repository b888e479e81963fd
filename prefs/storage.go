// ABOUTME: Durable key/value storage contract for preferences
// ABOUTME: Includes the in-memory backend and the profile-scoping wrapper
package prefs

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Storage.Get for keys that were never written.
var ErrNotFound = errors.New("preference not found")

type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryStorage keeps values for the lifetime of the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Writes counts Set calls, so tests can check that no-op writes are skipped.
func (m *MemoryStorage) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

type scoped struct {
	base   Storage
	prefix string
}

// Scoped namespaces every key under a profile so browsers and terminals
// sharing one backend keep separate preferences.
func Scoped(base Storage, profile string) Storage {
	if profile == "" {
		return base
	}
	return &scoped{base: base, prefix: "profile:" + profile + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.base.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.base.Set(ctx, s.prefix+key, value)
}
