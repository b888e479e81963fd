// ABOUTME: Table view for the TUI
// ABOUTME: Searchable, paginated deal table with per-column visibility toggles
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/prefs"
	"github.com/harperreed/dealflow/views"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(m.renderHeader())

	if m.currentView() == prefs.ViewKanban {
		s.WriteString(m.renderBoard())
		s.WriteString("\n")
		s.WriteString(m.renderBoardHelp())
		return s.String()
	}

	if m.searching || m.searchQuery != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}
	if m.columnsMode {
		s.WriteString(m.renderColumnToggles())
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderBody(m.renderTable))
	s.WriteString("\n\n")

	s.WriteString(m.renderListHelp())

	return s.String()
}

// pageRows returns the deals on the current table page.
func (m Model) pageRows() ([]models.Deal, views.Page) {
	filtered := views.FilterDeals(m.state.Deals, m.searchQuery)
	return views.Paginate(filtered, m.page, views.PageSize)
}

func (m Model) renderTable() string {
	rows, page := m.pageRows()
	if len(rows) == 0 {
		return "No deals found"
	}

	cols := views.TableColumns(m.state.Prefs.Columns)
	var columns []table.Column
	for _, c := range cols {
		if c.Visible {
			columns = append(columns, table.Column{Title: c.Label, Width: columnWidth(c.Field)})
		}
	}

	var tableRows []table.Row
	for _, d := range rows {
		var row table.Row
		for _, c := range cols {
			if c.Visible {
				row = append(row, m.cell(d, c.Field))
			}
		}
		tableRows = append(tableRows, row)
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	if m.selectedRow < len(tableRows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View() + "\n" + fmt.Sprintf("Page %d of %d", page.Number, page.Total)
}

func columnWidth(field string) int {
	switch field {
	case "clientName", "productName":
		return 22
	case "stage":
		return 26
	case "createdAt":
		return 12
	default:
		return 16
	}
}

func (m Model) cell(d models.Deal, field string) string {
	switch field {
	case "clientName":
		return d.ClientName
	case "productName":
		return d.ProductName
	case "stage":
		return string(d.Stage)
	case "createdAt":
		return views.FormatDate(d.CreatedAt)
	case "actions":
		if m.actions.Tracker.InFlight(d.ID) {
			return views.LabelDeleting
		}
		return "e:edit d:delete"
	}
	return ""
}

func (m Model) renderColumnToggles() string {
	var parts []string
	for i, c := range views.TableColumns(m.state.Prefs.Columns) {
		parts = append(parts, fmt.Sprintf("%d: %s", i+1, views.ToggleLabel(c.Label, c.Visible)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Kanban",
		"Enter: View details",
		"/: Search",
		"[/]: Page",
		"c: Columns",
		"n: New",
		"e: Edit",
		"d: Delete",
		"g: Pipeline",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.columnsMode {
		if n, err := strconv.Atoi(key); err == nil {
			m.toggleColumn(n - 1)
			return m, nil
		}
	}

	switch key {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		rows, _ := m.pageRows()
		if m.selectedRow < len(rows)-1 {
			m.selectedRow++
		}
	case "[":
		m.page--
		m.selectedRow = 0
		m.clampCursors()
	case "]":
		m.page++
		m.selectedRow = 0
		m.clampCursors()
	case "tab":
		m.toggleView()
	case "/":
		m.searching = true
		m.search.Focus()
		return m, nil
	case "c":
		m.columnsMode = !m.columnsMode
	case "esc":
		m.columnsMode = false
	case "x":
		m.dismissNotification()
	case "r":
		return m, m.loadCmd()
	case "g":
		m.viewMode = ViewGraph
	case "n":
		return m.openForm(0)
	case "enter", "e", "d":
		rows, _ := m.pageRows()
		if m.selectedRow >= len(rows) {
			return m, nil
		}
		id := rows[m.selectedRow].ID
		switch key {
		case "enter":
			m.selectedID = id
			m.viewMode = ViewDetail
		case "e":
			return m.openForm(id)
		case "d":
			m.openDelete(id)
		}
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.searchQuery = ""
		m.page = 1
		m.selectedRow = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.searchQuery = m.search.Value()
	m.page = 1
	m.selectedRow = 0
	return m, cmd
}

func (m *Model) toggleColumn(i int) {
	cols := views.TableColumns(m.state.Prefs.Columns)
	if i < 0 || i >= len(cols) {
		return
	}
	if err := m.store.SetColumnVisible(m.ctx, cols[i].Field, !cols[i].Visible); err != nil {
		m.message = "Error: " + err.Error()
	}
	m.refresh()
}

// clampCursors keeps every cursor inside the data it points at.
func (m *Model) clampCursors() {
	rows, page := m.pageRows()
	m.page = page.Number
	if m.selectedRow >= len(rows) {
		m.selectedRow = len(rows) - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}

	cols := views.GroupByStage(m.state.Deals)
	if m.col >= len(cols) {
		m.col = len(cols) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	if n := len(cols[m.col].Deals); m.card >= n {
		m.card = n - 1
	}
	if m.card < 0 {
		m.card = 0
	}
}
