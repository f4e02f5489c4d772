package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
)

// NotificationBellModel shows the unread badge and, when open, the list.
type NotificationBellModel struct {
	snap   chat.Snapshot
	open   bool
	cursor int
	styles Styles
}

// NewNotificationBellModel creates the bell component.
func NewNotificationBellModel(styles Styles) NotificationBellModel {
	return NotificationBellModel{styles: styles}
}

// SetSnapshot replaces the rendered state.
func (m *NotificationBellModel) SetSnapshot(snap chat.Snapshot) {
	m.snap = snap
	if n := len(snap.Notifications.Data); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// Toggle opens or closes the list.
func (m *NotificationBellModel) Toggle() {
	m.open = !m.open
}

// Open reports whether the list is shown.
func (m NotificationBellModel) Open() bool {
	return m.open
}

// Badge renders the compact unread indicator.
func (m NotificationBellModel) Badge() string {
	n := m.snap.UnreadCount()
	if n == 0 {
		return m.styles.Muted.Render("bell 0")
	}
	return m.styles.Badge.Render(fmt.Sprintf("bell %d", n))
}

// Update moves the cursor; enter marks the current notification read.
func (m NotificationBellModel) Update(msg tea.Msg) (NotificationBellModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.open {
		return m, nil
	}
	list := m.snap.Notifications.Data
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(list)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(list) && !list[m.cursor].Read {
			return m, emit(markReadMsg{id: list[m.cursor].ID})
		}
	}
	return m, nil
}

// View renders the list when open, else only the badge.
func (m NotificationBellModel) View() string {
	if !m.open {
		return m.Badge()
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Notifications") + " " + m.Badge())
	sb.WriteString("\n")
	state := m.snap.Notifications
	if state.Failed() && len(state.Data) == 0 {
		sb.WriteString(m.styles.Error.Render("Could not load notifications: " + state.Err.Error()))
		return sb.String()
	}
	if len(state.Data) == 0 {
		sb.WriteString(m.styles.Muted.Render("Nothing new."))
		return sb.String()
	}
	for i, n := range state.Data {
		marker := "  "
		if i == m.cursor {
			marker = m.styles.Selected.Render("> ")
		}
		content := n.Content
		if !n.Read {
			content = m.styles.Title.Render("* " + content)
		} else {
			content = m.styles.Muted.Render("  " + content)
		}
		sb.WriteString(marker + content + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
