// ABOUTME: Create and edit forms for the TUI
// ABOUTME: Text inputs with entity suggestions, validation alerts and a busy state while saving
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/views"
)

const (
	fieldClient = iota
	fieldProduct
	fieldStage
	fieldDescription
)

var alertStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("9")).
	Foreground(lipgloss.Color("9")).
	Padding(0, 1)

func (m Model) renderEditView() string {
	var s strings.Builder

	// Title
	if m.selectedID == 0 {
		s.WriteString(titleStyle.Render("NEW DEAL"))
	} else {
		s.WriteString(titleStyle.Render("EDIT DEAL #" + m.selectedID.String()))
	}
	s.WriteString("\n\n")

	if m.formAlert != "" {
		s.WriteString(alertStyle.Render(m.formAlert))
		s.WriteString("\n\n")
	}

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if m.saving {
		s.WriteString(messageStyle.Render(m.busyLabel()))
		s.WriteString("\n")
		return s.String()
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) busyLabel() string {
	if m.selectedID == 0 {
		return views.LabelCreating
	}
	return views.LabelUpdating
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Ctrl+Y: Accept suggestion",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.formAlert = ""
		return m, nil
	case "tab":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		return m.submitForm()
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

// openForm shows the deal form. id 0 opens an empty create form.
func (m Model) openForm(id models.DealID) (tea.Model, tea.Cmd) {
	m.selectedID = id
	m.formAlert = ""
	m.initDealForm()
	m.viewMode = ViewEdit
	return m, textinput.Blink
}

func (m *Model) initDealForm() {
	inputs := make([]textinput.Model, 4)

	inputs[fieldClient] = textinput.New()
	inputs[fieldClient].Placeholder = "Client Name"
	inputs[fieldClient].CharLimit = 100
	inputs[fieldClient].ShowSuggestions = true
	inputs[fieldClient].SetSuggestions(clientNames(m.state.Clients))

	inputs[fieldProduct] = textinput.New()
	inputs[fieldProduct].Placeholder = "Product Name"
	inputs[fieldProduct].CharLimit = 100
	inputs[fieldProduct].ShowSuggestions = true
	inputs[fieldProduct].SetSuggestions(productNames(m.state.Products))

	inputs[fieldStage] = textinput.New()
	inputs[fieldStage].Placeholder = "Stage"
	inputs[fieldStage].CharLimit = 40
	inputs[fieldStage].ShowSuggestions = true
	inputs[fieldStage].SetSuggestions(stageLabels())
	inputs[fieldStage].SetValue(string(models.DefaultStage))

	inputs[fieldDescription] = textinput.New()
	inputs[fieldDescription].Placeholder = "Description"
	inputs[fieldDescription].CharLimit = 500

	// If editing, populate fields
	if m.selectedID != 0 {
		if deal, ok := m.selectedDeal(); ok {
			inputs[fieldClient].SetValue(deal.ClientName)
			inputs[fieldProduct].SetValue(deal.ProductName)
			inputs[fieldStage].SetValue(string(deal.Stage))
			inputs[fieldDescription].SetValue(deal.Description)
		}
	}

	// Tab moves between fields, so suggestions are accepted with ctrl+y.
	for i := range inputs {
		inputs[i].KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+y"))
	}

	m.formInputs = inputs
	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m Model) formValue(field int) string {
	return strings.TrimSpace(m.formInputs[field].Value())
}

// submitForm validates locally so the alert shows at once, then saves in
// the background behind the cosmetic delay.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	client := m.formValue(fieldClient)
	product := m.formValue(fieldProduct)
	stage := models.Stage(m.formValue(fieldStage))
	description := m.formValue(fieldDescription)

	actions := m.actions
	ctx := m.ctx

	if m.selectedID == 0 {
		draft := models.DealDraft{ClientName: client, ProductName: product, Stage: stage, Description: description}
		check := draft
		if alert := views.AlertMessage(check.Prepare(actions.Now())); alert != "" {
			m.formAlert = alert
			return m, nil
		}
		m.formAlert = ""
		m.saving = true
		return m, func() tea.Msg {
			_, err := actions.Create(ctx, draft)
			return saveResultMsg{err: err}
		}
	}

	id := m.selectedID
	patch := models.DealPatch{ClientName: &client, ProductName: &product, Stage: &stage, Description: &description}
	if alert := views.AlertMessage(patch.Validate()); alert != "" {
		m.formAlert = alert
		return m, nil
	}
	m.formAlert = ""
	m.saving = true
	return m, func() tea.Msg {
		_, err := actions.Update(ctx, id, patch)
		return saveResultMsg{err: err}
	}
}

func (m Model) handleSaveResult(msg saveResultMsg) (tea.Model, tea.Cmd) {
	m.saving = false
	if alert := views.AlertMessage(msg.err); alert != "" {
		m.formAlert = alert
		return m, nil
	}

	// Other failures land in the shared error banner.
	m.viewMode = ViewList
	m.formAlert = ""
	if msg.err == nil {
		m.message = "✓ Deal saved"
	}
	m.refresh()
	return m, nil
}

func clientNames(clients []models.Client) []string {
	out := make([]string, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.Name)
	}
	return out
}

func productNames(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func stageLabels() []string {
	var out []string
	for _, s := range models.Stages() {
		out = append(out, string(s))
	}
	return out
}
