// ABOUTME: Pipeline overview for the TUI
// ABOUTME: Shows the dashboard bars or the DOT source of the pipeline graph
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("PIPELINE"))
	s.WriteString("\n\n")

	if m.graphDOT {
		dot, err := viz.GeneratePipelineGraph(m.state.Deals)
		if err != nil {
			s.WriteString(errorStyle.Render("Error: " + err.Error()))
		} else {
			s.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Render(dot))
		}
	} else {
		stats := viz.GenerateDashboardStats(m.state.Deals, time.Now())
		s.WriteString(viz.RenderDashboard(stats))
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"s: Toggle DOT source",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		m.graphDOT = !m.graphDOT
	case "esc":
		m.viewMode = ViewList
		m.graphDOT = false
	}

	return m, nil
}
