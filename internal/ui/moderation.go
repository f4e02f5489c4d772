package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// ModerationModel exposes staff controls: status changes on the current
// request and the user table with block toggles.
type ModerationModel struct {
	table   table.Model
	users   chat.FetchState[[]domain.User]
	snap    chat.Snapshot
	target  *domain.Request
	styles  Styles
	width   int
	height  int
	confirm bool
}

// NewModerationModel creates the moderation component.
func NewModerationModel(styles Styles) ModerationModel {
	t := table.New(
		table.WithColumns(userColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return ModerationModel{table: t, styles: styles}
}

func userColumns(width int) []table.Column {
	w := max(width-30, 20)
	return []table.Column{
		{Title: "Name", Width: w / 2},
		{Title: "Email", Width: w / 2},
		{Title: "Role", Width: 12},
		{Title: "Status", Width: 8},
	}
}

// SetSize updates the table dimensions.
func (m *ModerationModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetColumns(userColumns(w))
	m.table.SetHeight(max(h-6, 3))
}

// SetSnapshot replaces the chat state used for capability checks.
func (m *ModerationModel) SetSnapshot(snap chat.Snapshot) {
	m.snap = snap
}

// SetTarget sets the request that status keys act on.
func (m *ModerationModel) SetTarget(req *domain.Request) {
	m.target = req
	m.confirm = false
}

// SetUsers replaces the user table.
func (m *ModerationModel) SetUsers(state chat.FetchState[[]domain.User]) {
	m.users = state
	rows := make([]table.Row, 0, len(state.Data))
	for _, u := range state.Data {
		rows = append(rows, table.Row{u.Name, u.Email, string(u.Role), string(u.Status)})
	}
	m.table.SetRows(rows)
}

func (m ModerationModel) currentUser() (domain.User, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.users.Data) {
		return domain.User{}, false
	}
	return m.users.Data[i], true
}

// Update maps keys to moderation intents.
func (m ModerationModel) Update(msg tea.Msg) (ModerationModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	role := m.snap.Identity.Role
	switch key.String() {
	case "a", "r", "c":
		if m.target == nil || !role.Can(domain.CapModerateRequests) {
			return m, nil
		}
		status := map[string]domain.RequestStatus{
			"a": domain.RequestStatusAccepted,
			"r": domain.RequestStatusRejected,
			"c": domain.RequestStatusClosed,
		}[key.String()]
		return m, emit(setStatusMsg{id: m.target.ID, status: status})
	case "x":
		if m.target == nil || !role.Can(domain.CapDeleteRequests) {
			return m, nil
		}
		if !m.confirm {
			m.confirm = true
			return m, nil
		}
		m.confirm = false
		return m, emit(deleteRequestMsg{id: m.target.ID})
	case "b", "u":
		u, ok := m.currentUser()
		if !ok || u.ID == m.snap.Identity.UserID || !domain.CanBlock(role, u.Role) {
			return m, nil
		}
		return m, emit(setBlockedMsg{user: u, blocked: key.String() == "b"})
	}
	if m.confirm {
		m.confirm = false
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the controls and the user table.
func (m ModerationModel) View() string {
	role := m.snap.Identity.Role
	if !role.IsStaff() {
		return m.styles.Error.Render("Moderation is only available to staff.")
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Moderation"))
	sb.WriteString("\n")
	if m.target != nil {
		sb.WriteString(m.target.Title + " " + m.styles.StatusBadge(m.target.Status) + "\n")
		help := "a accept  r reject  c close"
		if role.Can(domain.CapDeleteRequests) {
			help += "  x delete"
		}
		sb.WriteString(m.styles.Muted.Render(help))
		if m.confirm {
			sb.WriteString("\n" + m.styles.Error.Render("Press x again to delete this request."))
		}
	} else {
		sb.WriteString(m.styles.Muted.Render("No request selected."))
	}
	sb.WriteString("\n\n")

	if !role.Can(domain.CapManageUsers) {
		return strings.TrimRight(sb.String(), "\n")
	}
	sb.WriteString(m.styles.Title.Render("Users"))
	sb.WriteString("\n")
	switch {
	case m.users.Loading() && len(m.users.Data) == 0:
		sb.WriteString(m.styles.Muted.Render("Loading users..."))
	case m.users.Failed() && len(m.users.Data) == 0:
		sb.WriteString(m.styles.Error.Render("Could not load users: " + m.users.Err.Error()))
	default:
		sb.WriteString(m.table.View())
		sb.WriteString("\n" + m.styles.Muted.Render("b block  u unblock"))
	}
	return sb.String()
}
