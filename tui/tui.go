// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen deal pipeline with table and kanban views over the shared store
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/prefs"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/views"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
)

// loadedMsg carries a snapshot taken after a command finished.
type loadedMsg store.State

// changedMsg is delivered when the store changed outside the event loop,
// for example when a background move is rolled back.
type changedMsg store.State

type saveResultMsg struct {
	err error
}

type deleteResultMsg struct {
	id  models.DealID
	err error
}

// Model is the main bubbletea model
type Model struct {
	ctx     context.Context
	store   *store.Store
	engine  *kanban.Engine
	actions *views.Actions

	changes     chan struct{}
	unsubscribe func()

	viewMode ViewMode
	state    store.State

	// Table view state
	selectedRow int
	page        int
	searching   bool
	search      textinput.Model
	searchQuery string
	columnsMode bool

	// Kanban view state
	col      int
	card     int
	carrying models.DealID
	target   dropTarget
	metaMode bool
	outcome  string

	// Pipeline view shows DOT source instead of the dashboard
	graphDOT bool

	// Detail, edit and delete state
	selectedID models.DealID
	formInputs []textinput.Model
	focusIndex int
	formAlert  string
	saving     bool
	deleting   bool
	message    string

	// UI state
	width  int
	height int
}

// NewModel creates a new TUI model. Call Close when done with it.
func NewModel(ctx context.Context, s *store.Store, e *kanban.Engine, delays views.Delays) Model {
	search := textinput.New()
	search.Placeholder = "Search deals..."
	search.CharLimit = 100

	changes := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(store.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	return Model{
		ctx:         ctx,
		store:       s,
		engine:      e,
		actions:     views.NewActions(s, delays),
		changes:     changes,
		unsubscribe: unsubscribe,
		viewMode:    ViewList,
		state:       s.Snapshot(),
		page:        1,
		search:      search,
		width:       80,
		height:      24,
	}
}

// Close detaches the model from the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, s *store.Store, e *kanban.Engine, delays views.Delays) error {
	m := NewModel(ctx, s, e, delays)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	// Let in-flight moves settle before the process exits.
	e.Wait()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForChange())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.store.FetchDeals(m.ctx)
		_ = m.store.FetchEntities(m.ctx)
		return loadedMsg(m.store.Snapshot())
	}
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return changedMsg(m.store.Snapshot())
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.setState(store.State(msg))
		return m, nil
	case changedMsg:
		m.setState(store.State(msg))
		return m, m.waitForChange()
	case saveResultMsg:
		return m.handleSaveResult(msg)
	case deleteResultMsg:
		return m.handleDeleteResult(msg)
	}
	return m, nil
}

func (m *Model) setState(st store.State) {
	m.state = st
	m.clampCursors()
}

func (m *Model) refresh() {
	m.setState(m.store.Snapshot())
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Text entry owns every other key.
	if m.viewMode == ViewEdit {
		return m.handleEditKeys(msg)
	}
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	if msg.String() == "q" && m.carrying == 0 {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		if m.currentView() == prefs.ViewKanban {
			return m.handleBoardKeys(msg)
		}
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m Model) currentView() prefs.ViewMode {
	return m.state.Prefs.View
}

// toggleView flips between the table and the board and remembers the choice.
func (m *Model) toggleView() {
	next := prefs.ViewKanban
	if m.currentView() == prefs.ViewKanban {
		next = prefs.ViewTable
	}
	if err := m.store.SetCurrentView(m.ctx, next); err != nil {
		m.message = "Error: " + err.Error()
	}
	m.columnsMode = false
	m.metaMode = false
	m.refresh()
}

// dismissNotification clears the oldest notification.
func (m *Model) dismissNotification() {
	if len(m.state.Notifications) == 0 {
		return
	}
	m.store.DismissNotification(m.state.Notifications[0].ID)
	m.refresh()
}

func (m Model) selectedDeal() (models.Deal, bool) {
	return m.store.Deal(m.selectedID)
}

func (m Model) renderHeader() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("DEALFLOW"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n")
	for _, n := range m.state.Notifications {
		s.WriteString(noticeStyle.Render("! " + n.Message))
		s.WriteString("\n")
	}
	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []struct {
		label string
		view  prefs.ViewMode
	}{
		{"Table", prefs.ViewTable},
		{"Kanban", prefs.ViewKanban},
	}
	var rendered []string

	for _, tab := range tabs {
		if tab.view == m.currentView() {
			rendered = append(rendered, tabActiveStyle.Render(tab.label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab.label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderBody shows the shared error or loading state in place of content.
func (m Model) renderBody(content func() string) string {
	if m.state.Error != "" {
		return errorStyle.Render("Error: " + m.state.Error)
	}
	if m.state.Loading {
		return "Loading..."
	}
	return content()
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)
