// ABOUTME: Loads and saves preference records against a Storage backend
// ABOUTME: Missing or corrupt values fall back to defaults; unchanged values are not rewritten
package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
)

type Manager struct {
	storage Storage

	mu sync.Mutex
}

func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage}
}

// Load reads every preference key. Read failures are logged and the
// default for that key is used, so a broken backend never blocks the UI.
func (m *Manager) Load(ctx context.Context) State {
	state := Defaults()

	if raw, ok := m.read(ctx, KeyCurrentView); ok {
		if v, err := ParseViewMode(string(raw)); err == nil {
			state.View = v
		}
	}
	if raw, ok := m.read(ctx, KeyTableColumns); ok {
		cols := DefaultColumns()
		if err := json.Unmarshal(raw, &cols); err == nil {
			state.Columns = cols
		} else {
			log.Printf("[prefs] key=%s ignoring corrupt value: %v", KeyTableColumns, err)
		}
	}
	if raw, ok := m.read(ctx, KeyKanbanMetadata); ok {
		meta := DefaultKanbanMetadata()
		if err := json.Unmarshal(raw, &meta); err == nil {
			state.Kanban = meta
		} else {
			log.Printf("[prefs] key=%s ignoring corrupt value: %v", KeyKanbanMetadata, err)
		}
	}
	if raw, ok := m.read(ctx, KeyTheme); ok {
		if t, err := ParseTheme(string(raw)); err == nil {
			state.Theme = t
		}
	}

	return state
}

func (m *Manager) read(ctx context.Context, key string) ([]byte, bool) {
	raw, err := m.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[prefs] key=%s read failed: %v", key, err)
		}
		return nil, false
	}
	return raw, true
}

func (m *Manager) SaveView(ctx context.Context, v ViewMode) error {
	if !v.Valid() {
		return fmt.Errorf("invalid view %q", v)
	}
	return m.write(ctx, KeyCurrentView, []byte(v))
}

func (m *Manager) SaveColumns(ctx context.Context, c ColumnVisibility) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	return m.write(ctx, KeyTableColumns, data)
}

func (m *Manager) SaveKanban(ctx context.Context, k KanbanMetadata) error {
	data, err := json.Marshal(k)
	if err != nil {
		return fmt.Errorf("failed to encode kanban metadata: %w", err)
	}
	return m.write(ctx, KeyKanbanMetadata, data)
}

func (m *Manager) SaveTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("invalid theme %q", t)
	}
	return m.write(ctx, KeyTheme, []byte(t))
}

// write skips the Set when storage already holds value. Other processes may
// share the backend, so the comparison is against what is stored now.
func (m *Manager) write(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, err := m.storage.Get(ctx, key); err == nil && bytes.Equal(current, value) {
		return nil
	}
	if err := m.storage.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
