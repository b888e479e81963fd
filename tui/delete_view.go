// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Confirms before deleting a deal and shows Deleting... until the store answers
package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m *Model) openDelete(id models.DealID) {
	m.selectedID = id
	m.deleting = false
	m.viewMode = ViewConfirmDelete
}

func (m Model) renderConfirmDeleteView() string {
	deal, ok := m.selectedDeal()
	if !ok {
		return fmt.Sprintf("Deal #%s not found", m.selectedID)
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	entityInfo := fmt.Sprintf("\nDEAL #%s: %s / %s\n", deal.ID, deal.ClientName, deal.ProductName)

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)
	if m.deleting || m.actions.Tracker.InFlight(deal.ID) {
		buttons = warningStyle.Render(views.LabelDeleting)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		views.ConfirmDelete,
		entityInfo,
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deleting {
		return m, nil
	}

	switch msg.String() {
	case "y", "Y":
		m.deleting = true
		id := m.selectedID
		actions := m.actions
		ctx := m.ctx
		return m, func() tea.Msg {
			return deleteResultMsg{id: id, err: actions.Delete(ctx, id)}
		}
	case "n", "N", "esc":
		m.viewMode = ViewList
	}

	return m, nil
}

func (m Model) handleDeleteResult(msg deleteResultMsg) (tea.Model, tea.Cmd) {
	m.deleting = false
	switch {
	case msg.err == nil:
		m.message = fmt.Sprintf("✓ Deleted deal #%s", msg.id)
	case errors.Is(msg.err, views.ErrDeleteInFlight):
		m.message = views.LabelDeleting
	default:
		m.message = ""
	}
	if m.viewMode == ViewConfirmDelete && m.selectedID == msg.id {
		m.viewMode = ViewList
	}
	m.refresh()
	return m, nil
}
