package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ComposeRequestModel is the form for opening a new request.
type ComposeRequestModel struct {
	title       textinput.Model
	description textarea.Model
	onTitle     bool
	styles      Styles
	err         string
}

// NewComposeRequestModel creates an empty form.
func NewComposeRequestModel(styles Styles) ComposeRequestModel {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.Width = 60

	desc := textarea.New()
	desc.Placeholder = "Describe what you need"
	desc.SetWidth(60)
	desc.SetHeight(5)
	desc.ShowLineNumbers = false

	return ComposeRequestModel{
		title:       title,
		description: desc,
		onTitle:     true,
		styles:      styles,
	}
}

// SetSize updates the field widths.
func (m *ComposeRequestModel) SetSize(w, _ int) {
	m.title.Width = max(w-4, 20)
	m.description.SetWidth(max(w-4, 20))
}

// Focus activates the title field and clears the form.
func (m *ComposeRequestModel) Focus() tea.Cmd {
	m.title.Reset()
	m.description.Reset()
	m.onTitle = true
	m.err = ""
	m.description.Blur()
	return m.title.Focus()
}

// Update handles field navigation and submission. Tab switches fields,
// ctrl+s submits and esc cancels.
func (m ComposeRequestModel) Update(msg tea.Msg) (ComposeRequestModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, emit(closeComposeMsg{})
		case "tab", "shift+tab":
			m.onTitle = !m.onTitle
			if m.onTitle {
				m.description.Blur()
				return m, m.title.Focus()
			}
			m.title.Blur()
			return m, m.description.Focus()
		case "ctrl+s":
			title := strings.TrimSpace(m.title.Value())
			if title == "" {
				m.err = "A title is required."
				return m, nil
			}
			m.err = ""
			return m, emit(createRequestMsg{title: title, description: strings.TrimSpace(m.description.Value())})
		case "enter":
			if m.onTitle {
				m.onTitle = false
				m.title.Blur()
				return m, m.description.Focus()
			}
		}
	}
	var cmd tea.Cmd
	if m.onTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

// View renders the form.
func (m ComposeRequestModel) View() string {
	parts := []string{
		m.styles.Header.Render("New request"),
		m.title.View(),
		m.description.View(),
		m.styles.Muted.Render("tab switch field  ctrl+s submit  esc cancel"),
	}
	if m.err != "" {
		parts = append(parts, m.styles.Error.Render(m.err))
	}
	return strings.Join(parts, "\n")
}
