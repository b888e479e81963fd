// ABOUTME: Deal detail view for the TUI
// ABOUTME: Shows every field of one deal with shortcuts to edit or delete it
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("DEAL DETAIL"))
	s.WriteString("\n\n")

	deal, ok := m.selectedDeal()
	if !ok {
		s.WriteString(fmt.Sprintf("Deal #%s not found", m.selectedID))
	} else {
		s.WriteString(m.renderDealDetail(deal))
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderDealDetail(deal models.Deal) string {
	var s strings.Builder

	s.WriteString(m.renderField("ID", deal.ID.String()))
	s.WriteString(m.renderField("Client Name", deal.ClientName))
	s.WriteString(m.renderField("Product Name", deal.ProductName))
	s.WriteString(m.renderField("Stage", fmt.Sprintf("%s (%d of %d)", deal.Stage, deal.Stage.Index()+1, len(models.Stages()))))
	s.WriteString(m.renderField("Created At", views.FormatDate(deal.CreatedAt)))
	if deal.Description != "" {
		s.WriteString(m.renderField("Description", deal.Description))
	}
	if m.actions.Tracker.InFlight(deal.ID) {
		s.WriteString("\n" + warningStyle.Render(views.LabelDeleting))
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"e: Edit",
		"d: Delete",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
	case "e":
		if _, ok := m.selectedDeal(); ok {
			return m.openForm(m.selectedID)
		}
	case "d":
		if _, ok := m.selectedDeal(); ok {
			m.openDelete(m.selectedID)
		}
	}

	return m, nil
}
