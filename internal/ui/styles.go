// Package ui renders the chat store in the terminal. Models are pure
// renderers of chat.Snapshot; user intents travel back to App as messages.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#7a8699")
	colorDanger  = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Styles groups the lipgloss styles used by every view.
type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Status   lipgloss.Style
	Badge    lipgloss.Style
	Pane     lipgloss.Style
	Focused  lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	pane := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Title:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Error:    lipgloss.NewStyle().Foreground(colorDanger),
		Status:   lipgloss.NewStyle().Foreground(colorInfo),
		Badge:    lipgloss.NewStyle().Bold(true).Foreground(colorWarning),
		Pane:     pane,
		Focused:  pane.BorderForeground(colorAccent),
	}
}

// StatusBadge renders a request status.
func (s Styles) StatusBadge(status domain.RequestStatus) string {
	style := lipgloss.NewStyle()
	switch status {
	case domain.RequestStatusPending:
		style = style.Foreground(colorWarning)
	case domain.RequestStatusAccepted:
		style = style.Foreground(colorAccent)
	case domain.RequestStatusRejected:
		style = style.Foreground(colorDanger)
	case domain.RequestStatusClosed:
		style = style.Foreground(colorMuted)
	}
	return style.Render("[" + string(status) + "]")
}

func truncate(s string, l int) string {
	if l <= 3 || len(s) <= l {
		return s
	}
	return s[:l-3] + "..."
}
