package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// ThreadModel renders the messages of the selected request and the composer.
type ThreadModel struct {
	viewport viewport.Model
	input    textinput.Model
	snap     chat.Snapshot
	styles   Styles
	width    int
	height   int
}

// NewThreadModel creates the thread component.
func NewThreadModel(styles Styles) ThreadModel {
	in := textinput.New()
	in.Placeholder = "Write a message"
	in.Prompt = "> "
	in.CharLimit = 4000
	in.Width = 60
	return ThreadModel{
		viewport: viewport.New(80, 20),
		input:    in,
		styles:   styles,
	}
}

// SetSize updates the viewport and input widths.
func (m *ThreadModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = max(h-4, 1)
	m.input.Width = max(w-4, 10)
	m.refresh()
}

// SetSnapshot replaces the rendered state.
func (m *ThreadModel) SetSnapshot(snap chat.Snapshot) {
	prev := len(m.snap.Messages.Data)
	m.snap = snap
	m.refresh()
	if len(snap.Messages.Data) != prev {
		m.viewport.GotoBottom()
	}
}

// Focus activates the composer.
func (m *ThreadModel) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur deactivates the composer.
func (m *ThreadModel) Blur() {
	m.input.Blur()
}

func (m *ThreadModel) refresh() {
	m.viewport.SetContent(m.renderMessages())
}

func (m ThreadModel) renderMessages() string {
	if m.snap.Selected == nil {
		return m.styles.Muted.Render("Select a request to open its conversation.")
	}
	state := m.snap.Messages
	switch {
	case state.Loading() && len(state.Data) == 0:
		return m.styles.Muted.Render("Loading messages...")
	case state.Failed() && len(state.Data) == 0:
		return m.styles.Error.Render("Could not load messages: " + state.Err.Error())
	case len(state.Data) == 0:
		return m.styles.Muted.Render("No messages yet.")
	}

	var sb strings.Builder
	for _, msg := range state.Data {
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m ThreadModel) renderMessage(msg domain.Message) string {
	author := "unknown"
	if msg.Sender.Name != "" {
		author = msg.Sender.Name
	}
	if msg.SenderID == m.snap.Identity.UserID {
		author = "you"
	}
	stamp := ""
	if !msg.CreatedAt.IsZero() {
		stamp = msg.CreatedAt.Local().Format("15:04")
	}
	body := msg.Content
	if t := msg.Type.OrDefault(); t != domain.MessageTypeText {
		body = fmt.Sprintf("[%s] %s", t, body)
	}
	return fmt.Sprintf("%s %s %s", m.styles.Muted.Render(stamp), m.styles.Title.Render(author+":"), body)
}

// Update forwards keys to the composer; enter emits the message.
func (m ThreadModel) Update(msg tea.Msg) (ThreadModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			content := strings.TrimSpace(m.input.Value())
			if content == "" || m.snap.Selected == nil {
				return m, nil
			}
			m.input.Reset()
			return m, emit(sendMessageMsg{content: content})
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the thread.
func (m ThreadModel) View() string {
	header := "Conversation"
	if sel := m.snap.Selected; sel != nil {
		header = fmt.Sprintf("%s %s", sel.Title, m.styles.StatusBadge(sel.Status))
	}
	return strings.Join([]string{
		m.styles.Header.Render(header),
		m.viewport.View(),
		m.input.View(),
	}, "\n")
}
