package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printRequests(w io.Writer, reqs []domain.Request) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No requests.")
		return
	}
	rows := make([][]string, 0, len(reqs))
	for _, r := range reqs {
		owner := r.UserID.String()
		if r.User != nil && r.User.Name != "" {
			owner = r.User.Name
		}
		rows = append(rows, []string{r.ID.String(), string(r.Status), r.Title, owner, formatTime(r.CreatedAt)})
	}
	renderTable(w, []string{"ID", "Status", "Title", "Owner", "Created"}, rows)
}

func printMessages(w io.Writer, msgs []domain.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}
	for _, m := range msgs {
		author := m.SenderID.String()
		if m.Sender.Name != "" {
			author = m.Sender.Name
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", formatTime(m.CreatedAt), author, m.Content)
	}
}

func printNotifications(w io.Writer, list []domain.Notification) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, n := range list {
		read := "unread"
		if n.Read {
			read = "read"
		}
		rows = append(rows, []string{n.ID.String(), read, n.Content, formatTime(n.CreatedAt)})
	}
	renderTable(w, []string{"ID", "State", "Content", "Created"}, rows)
}

func printUsers(w io.Writer, users []domain.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID.String(), u.Name, u.Email, string(u.Role), string(u.Status)})
	}
	renderTable(w, []string{"ID", "Name", "Email", "Role", "Status"}, rows)
}

// printStats renders per-endpoint request and error counts.
func printStats(w io.Writer, snap observability.Snapshot) {
	if len(snap.Requests) == 0 && len(snap.Errors) == 0 {
		return
	}
	rows := make([][]string, 0, len(snap.Requests)+len(snap.Errors))
	for _, s := range snap.Requests {
		rows = append(rows, []string{s.Method, s.Path, s.Label, strconv.FormatInt(s.Count, 10), fmt.Sprintf("%.1fms", s.AvgLatencyMs)})
	}
	for _, s := range snap.Errors {
		rows = append(rows, []string{s.Method, s.Path, s.Label, strconv.FormatInt(s.Count, 10), "-"})
	}
	renderTable(w, []string{"Method", "Endpoint", "Result", "Count", "Avg"}, rows)
}
