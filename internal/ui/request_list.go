package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// RequestListModel renders the request list and tracks the cursor.
type RequestListModel struct {
	snap   chat.Snapshot
	cursor int
	styles Styles
	width  int
	height int
}

// NewRequestListModel creates the request list component.
func NewRequestListModel(styles Styles) RequestListModel {
	return RequestListModel{styles: styles}
}

// SetSize updates the render area.
func (m *RequestListModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetSnapshot replaces the rendered state, keeping the cursor in range.
func (m *RequestListModel) SetSnapshot(snap chat.Snapshot) {
	m.snap = snap
	if n := len(snap.Requests.Data); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// Current returns the request under the cursor.
func (m RequestListModel) Current() (domain.Request, bool) {
	reqs := m.snap.Requests.Data
	if m.cursor < 0 || m.cursor >= len(reqs) {
		return domain.Request{}, false
	}
	return reqs[m.cursor], true
}

// Update handles cursor movement; enter selects the current request.
func (m RequestListModel) Update(msg tea.Msg) (RequestListModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Requests.Data)-1 {
			m.cursor++
		}
	case "enter":
		if req, ok := m.Current(); ok {
			return m, emit(selectRequestMsg{request: req})
		}
	}
	return m, nil
}

// View renders the list.
func (m RequestListModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Requests"))
	sb.WriteString("\n")

	state := m.snap.Requests
	switch {
	case state.Loading() && len(state.Data) == 0:
		sb.WriteString(m.styles.Muted.Render("Loading requests..."))
		return sb.String()
	case state.Failed() && len(state.Data) == 0:
		sb.WriteString(m.styles.Error.Render("Could not load requests: " + state.Err.Error()))
		return sb.String()
	case len(state.Data) == 0:
		sb.WriteString(m.styles.Muted.Render("No requests yet. Press n to open one."))
		return sb.String()
	}

	staff := m.snap.Identity.Role.IsStaff()
	width := m.width - 16
	if width < 20 {
		width = 40
	}
	for i, req := range state.Data {
		title := truncate(req.Title, width)
		line := fmt.Sprintf("%s %s", m.styles.StatusBadge(req.Status), title)
		if staff && req.User != nil && req.User.Name != "" {
			line += m.styles.Muted.Render(" by " + req.User.Name)
		}
		if m.snap.Selected != nil && m.snap.Selected.ID == req.ID {
			line += m.styles.Muted.Render(" *")
		}
		if i == m.cursor {
			line = m.styles.Selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if state.Failed() {
		sb.WriteString(m.styles.Error.Render("refresh failed: " + state.Err.Error()))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
