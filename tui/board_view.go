// ABOUTME: Kanban board view for the TUI
// ABOUTME: Keyboard drag and drop of deal cards between pipeline stages
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
)

// boardRowWidth is how many stage columns are drawn side by side.
const boardRowWidth = 4

// dropTarget is where a carried card would land. card -1 means the column itself.
type dropTarget struct {
	set  bool
	col  int
	card int
}

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(26)

	targetColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	columnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	cursorCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func (m Model) renderBoard() string {
	var s strings.Builder
	if m.metaMode {
		s.WriteString(m.renderMetaToggles())
		s.WriteString("\n\n")
	}
	if m.outcome != "" {
		s.WriteString(metaStyle.Render("last drop: " + m.outcome))
		s.WriteString("\n")
	}
	s.WriteString(m.renderBody(m.renderColumns))
	return s.String()
}

func (m Model) renderColumns() string {
	cols := views.GroupByStage(m.state.Deals)
	var rows []string
	for start := 0; start < len(cols); start += boardRowWidth {
		end := start + boardRowWidth
		if end > len(cols) {
			end = len(cols)
		}
		var rendered []string
		for i := start; i < end; i++ {
			rendered = append(rendered, m.renderColumn(i, cols[i]))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderColumn(i int, col views.StageColumn) string {
	var s strings.Builder
	s.WriteString(columnTitleStyle.Render(fmt.Sprintf("%s (%d)", col.Stage, col.Count())))
	s.WriteString("\n")

	if len(col.Deals) == 0 {
		s.WriteString(metaStyle.Render("No deals"))
	}
	for j, d := range col.Deals {
		s.WriteString(m.renderCard(i, j, d))
		s.WriteString("\n")
	}

	style := columnStyle
	if m.carrying != 0 && m.target.set && m.target.col == i && m.target.card < 0 {
		style = targetColumnStyle
	}
	return style.Render(s.String())
}

func (m Model) renderCard(col, idx int, d models.Deal) string {
	meta := m.state.Prefs.Kanban
	var lines []string

	prefix := "  "
	switch {
	case d.ID == m.carrying:
		prefix = "» "
	case m.carrying != 0 && m.target.set && m.target.col == col && m.target.card == idx:
		prefix = "→ "
	}

	head := prefix + "#" + d.ID.String()
	if meta.ClientName {
		head += " " + d.ClientName
	}
	lines = append(lines, head)
	if meta.ProductName {
		lines = append(lines, "   "+metaStyle.Render(d.ProductName))
	}
	if meta.CreatedAt {
		lines = append(lines, "   "+metaStyle.Render(views.FormatDate(d.CreatedAt)))
	}

	text := strings.Join(lines, "\n")
	if m.carrying == 0 && col == m.col && idx == m.card {
		return cursorCardStyle.Render(text)
	}
	return cardStyle.Render(text)
}

func (m Model) renderMetaToggles() string {
	var parts []string
	meta := m.state.Prefs.Kanban
	for i, f := range meta.Fields() {
		visible, _ := meta.Get(f)
		parts = append(parts, fmt.Sprintf("%d: %s", i+1, views.ToggleLabel(views.FieldLabel(f), visible)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderBoardHelp() string {
	help := []string{
		"←/→/↑/↓: Move",
		"Space: Pick up",
		"Enter: Details",
		"n: New",
		"e: Edit",
		"d: Delete",
		"m: Card fields",
		"Tab: Table",
		"q: Quit",
	}
	if m.carrying != 0 {
		help = []string{
			"←/→: Target column",
			"↑/↓: Target card",
			"Enter: Drop",
			"Esc: Cancel",
		}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.carrying != 0 {
		return m.handleCarryKeys(msg)
	}

	key := msg.String()
	if m.metaMode {
		if n, err := strconv.Atoi(key); err == nil {
			m.toggleMetadata(n - 1)
			return m, nil
		}
	}

	switch key {
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.card = 0
		}
	case "right", "l":
		if m.col < len(models.Stages())-1 {
			m.col++
			m.card = 0
		}
	case "up", "k":
		if m.card > 0 {
			m.card--
		}
	case "down", "j":
		m.card++
	case " ", "space":
		if d, ok := m.cursorDeal(); ok {
			m.carrying = d.ID
			m.target = dropTarget{col: m.col, card: -1}
			m.outcome = ""
		}
	case "tab":
		m.toggleView()
	case "m":
		m.metaMode = !m.metaMode
	case "esc":
		m.metaMode = false
	case "x":
		m.dismissNotification()
	case "r":
		return m, m.loadCmd()
	case "g":
		m.viewMode = ViewGraph
	case "n":
		return m.openForm(0)
	case "enter", "e", "d":
		d, ok := m.cursorDeal()
		if !ok {
			return m, nil
		}
		switch key {
		case "enter":
			m.selectedID = d.ID
			m.viewMode = ViewDetail
		case "e":
			return m.openForm(d.ID)
		case "d":
			m.openDelete(d.ID)
		}
	}

	m.clampCursors()
	return m, nil
}

func (m Model) handleCarryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := views.GroupByStage(m.state.Deals)

	switch msg.String() {
	case "left", "h":
		m.target.set = true
		if m.target.col > 0 {
			m.target.col--
		}
		m.target.card = -1
	case "right", "l":
		m.target.set = true
		if m.target.col < len(cols)-1 {
			m.target.col++
		}
		m.target.card = -1
	case "up", "k":
		m.target.set = true
		if m.target.card >= 0 {
			m.target.card--
		}
	case "down", "j":
		m.target.set = true
		if m.target.card < len(cols[m.target.col].Deals)-1 {
			m.target.card++
		}
	case "enter":
		m.drop()
	case "esc":
		m.target.set = false
		m.drop()
	}

	return m, nil
}

// overID is the drag-layer identifier under the drop target: a stage label
// for a column, a deal ID for a card.
func (m Model) overID() string {
	cols := views.GroupByStage(m.state.Deals)
	col := cols[m.target.col]
	if m.target.card >= 0 && m.target.card < len(col.Deals) {
		return col.Deals[m.target.card].ID.String()
	}
	return string(col.Stage)
}

// drop ends the current gesture. Without a target it is a cancel.
func (m *Model) drop() {
	active := m.carrying.String()
	ev := kanban.Cancel(active)
	if m.target.set {
		ev = kanban.Drop(active, m.overID())
	}

	res := m.engine.HandleDragEnd(m.ctx, ev)
	m.carrying = 0
	m.target = dropTarget{}
	m.outcome = res.Outcome.String()

	switch res.Outcome {
	case kanban.OutcomeMoved:
		m.message = fmt.Sprintf("Moved #%s to %s", res.DealID, res.To)
	case kanban.OutcomeRejected:
		m.message = fmt.Sprintf("Moving to %s is not allowed", res.To)
	default:
		m.message = ""
	}

	m.refresh()
	if res.Outcome == kanban.OutcomeMoved {
		m.followCard(res.DealID)
	}
}

// followCard puts the cursor on a deal wherever it now sits.
func (m *Model) followCard(id models.DealID) {
	for i, col := range views.GroupByStage(m.state.Deals) {
		for j, d := range col.Deals {
			if d.ID == id {
				m.col, m.card = i, j
				return
			}
		}
	}
}

func (m Model) cursorDeal() (models.Deal, bool) {
	cols := views.GroupByStage(m.state.Deals)
	if m.col < 0 || m.col >= len(cols) {
		return models.Deal{}, false
	}
	col := cols[m.col]
	if m.card < 0 || m.card >= len(col.Deals) {
		return models.Deal{}, false
	}
	return col.Deals[m.card], true
}

func (m *Model) toggleMetadata(i int) {
	meta := m.state.Prefs.Kanban
	fields := meta.Fields()
	if i < 0 || i >= len(fields) {
		return
	}
	visible, _ := meta.Get(fields[i])
	if err := m.store.SetKanbanMetadataVisible(m.ctx, fields[i], !visible); err != nil {
		m.message = "Error: " + err.Error()
	}
	m.refresh()
}
