// ABOUTME: UI preference records persisted in durable local storage
// ABOUTME: Fixed-shape view mode, column visibility, kanban metadata and theme values
package prefs

import (
	"errors"
	"fmt"
)

// Storage keys. These match what earlier browser builds wrote to localStorage.
const (
	KeyCurrentView    = "dealCurrentView"
	KeyTableColumns   = "dealTableColumns"
	KeyKanbanMetadata = "kanbanMetadataVisible"
	KeyTheme          = "theme"
)

var ErrUnknownField = errors.New("unknown preference field")

type ViewMode string

const (
	ViewTable  ViewMode = "table"
	ViewKanban ViewMode = "kanban"
)

func (v ViewMode) Valid() bool {
	return v == ViewTable || v == ViewKanban
}

func ParseViewMode(s string) (ViewMode, error) {
	v := ViewMode(s)
	if !v.Valid() {
		return "", fmt.Errorf("invalid view %q: must be table or kanban", s)
	}
	return v, nil
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid theme %q: must be light or dark", s)
	}
	return t, nil
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ColumnVisibility controls which table columns are rendered.
type ColumnVisibility struct {
	ClientName  bool `json:"clientName"`
	ProductName bool `json:"productName"`
	Stage       bool `json:"stage"`
	CreatedAt   bool `json:"createdAt"`
	Actions     bool `json:"actions"`
}

func DefaultColumns() ColumnVisibility {
	return ColumnVisibility{ClientName: true, ProductName: true, Stage: true, CreatedAt: true, Actions: true}
}

var columnFields = []string{"clientName", "productName", "stage", "createdAt", "actions"}

var columnAccess = map[string]func(*ColumnVisibility) *bool{
	"clientName":  func(c *ColumnVisibility) *bool { return &c.ClientName },
	"productName": func(c *ColumnVisibility) *bool { return &c.ProductName },
	"stage":       func(c *ColumnVisibility) *bool { return &c.Stage },
	"createdAt":   func(c *ColumnVisibility) *bool { return &c.CreatedAt },
	"actions":     func(c *ColumnVisibility) *bool { return &c.Actions },
}

func (c ColumnVisibility) Fields() []string {
	return append([]string(nil), columnFields...)
}

func (c ColumnVisibility) Get(field string) (bool, error) {
	access, ok := columnAccess[field]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return *access(&c), nil
}

func (c *ColumnVisibility) Set(field string, visible bool) error {
	access, ok := columnAccess[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	*access(c) = visible
	return nil
}

// KanbanMetadata controls which fields are printed on board cards.
type KanbanMetadata struct {
	ClientName  bool `json:"clientName"`
	ProductName bool `json:"productName"`
	CreatedAt   bool `json:"createdAt"`
}

func DefaultKanbanMetadata() KanbanMetadata {
	return KanbanMetadata{ClientName: true, ProductName: true, CreatedAt: true}
}

var kanbanFields = []string{"clientName", "productName", "createdAt"}

var kanbanAccess = map[string]func(*KanbanMetadata) *bool{
	"clientName":  func(k *KanbanMetadata) *bool { return &k.ClientName },
	"productName": func(k *KanbanMetadata) *bool { return &k.ProductName },
	"createdAt":   func(k *KanbanMetadata) *bool { return &k.CreatedAt },
}

func (k KanbanMetadata) Fields() []string {
	return append([]string(nil), kanbanFields...)
}

func (k KanbanMetadata) Get(field string) (bool, error) {
	access, ok := kanbanAccess[field]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return *access(&k), nil
}

func (k *KanbanMetadata) Set(field string, visible bool) error {
	access, ok := kanbanAccess[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	*access(k) = visible
	return nil
}

// State is everything the UI remembers between sessions.
type State struct {
	View    ViewMode
	Columns ColumnVisibility
	Kanban  KanbanMetadata
	Theme   Theme
}

func Defaults() State {
	return State{
		View:    ViewTable,
		Columns: DefaultColumns(),
		Kanban:  DefaultKanbanMetadata(),
		Theme:   ThemeLight,
	}
}
