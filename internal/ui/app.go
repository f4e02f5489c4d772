package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chatdesk-dev/chat-desk/internal/chat"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/moderation"
	"github.com/chatdesk-dev/chat-desk/internal/realtime"
	"github.com/chatdesk-dev/chat-desk/internal/transport"
)

type pane int

const (
	paneList pane = iota
	paneThread
	paneBell
	paneCompose
	paneModeration
)

const statusTTL = 4 * time.Second

type clearStatusMsg struct{ seq int }

// App is the root model. It owns the sub-models and turns their intents
// into store calls.
type App struct {
	store    *chat.Store
	requests *moderation.Requests
	users    *moderation.Users

	list    RequestListModel
	thread  ThreadModel
	bell    NotificationBellModel
	compose ComposeRequestModel
	mod     ModerationModel

	styles    Styles
	snap      chat.Snapshot
	pane      pane
	feedState realtime.State
	status    string
	statusErr bool
	statusSeq int
	width     int
	height    int
}

// NewApp builds the root model. users may be nil when the identity cannot
// manage users.
func NewApp(store *chat.Store, requests *moderation.Requests, users *moderation.Users) App {
	styles := DefaultStyles()
	return App{
		store:    store,
		requests: requests,
		users:    users,
		list:     NewRequestListModel(styles),
		thread:   NewThreadModel(styles),
		bell:     NewNotificationBellModel(styles),
		compose:  NewComposeRequestModel(styles),
		mod:      NewModerationModel(styles),
		styles:   styles,
	}
}

// Init renders the current snapshot and loads users for admins.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{emit(StoreChangedMsg{})}
	if a.users != nil {
		cmds = append(cmds, a.loadUsers())
	}
	return tea.Batch(cmds...)
}

func (a App) loadUsers() tea.Cmd {
	users := a.users
	return func() tea.Msg {
		if err := users.Load(context.Background()); err != nil {
			return actionResultMsg{action: "load users", err: err}
		}
		return usersLoadedMsg{}
	}
}

// Update routes messages to the focused pane and executes intents.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		return a, nil

	case StoreChangedMsg:
		hadSelection := a.snap.Selected != nil
		a.snap = a.store.Snapshot()
		a.list.SetSnapshot(a.snap)
		a.thread.SetSnapshot(a.snap)
		a.bell.SetSnapshot(a.snap)
		a.mod.SetSnapshot(a.snap)
		a.mod.SetTarget(a.snap.Selected)
		if hadSelection && a.snap.Selected == nil && a.pane == paneThread {
			a.thread.Blur()
			a.pane = paneList
		}
		return a, nil

	case FeedStateMsg:
		a.feedState = msg.State
		return a, nil

	case usersLoadedMsg:
		if a.users != nil {
			a.mod.SetUsers(a.users.State())
		}
		if msg.action != "" {
			return a.setStatus(actionResultMsg{action: msg.action})
		}
		return a, nil

	case actionResultMsg:
		return a.setStatus(msg)

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
			a.statusErr = false
		}
		return a, nil

	case selectRequestMsg:
		a.pane = paneThread
		store, req := a.store, msg.request
		return a, tea.Batch(a.thread.Focus(), func() tea.Msg {
			return actionResultMsg{action: "load messages", err: store.SelectRequest(context.Background(), req)}
		})

	case sendMessageMsg:
		store, content := a.store, msg.content
		return a, func() tea.Msg {
			_, err := store.SendMessage(context.Background(), content, domain.MessageTypeText)
			return actionResultMsg{action: "send message", err: err}
		}

	case createRequestMsg:
		a.pane = paneList
		store := a.store
		return a, func() tea.Msg {
			ctx := context.Background()
			if _, err := store.CreateRequest(ctx, msg.title, msg.description); err != nil {
				return actionResultMsg{action: "create request", err: err}
			}
			return actionResultMsg{action: "create request", err: store.FetchRequests(ctx)}
		}

	case closeComposeMsg:
		a.pane = paneList
		return a, nil

	case markReadMsg:
		store, id := a.store, msg.id
		return a, func() tea.Msg {
			return actionResultMsg{action: "mark read", err: store.MarkNotificationRead(context.Background(), id)}
		}

	case setStatusMsg:
		return a, a.moderate(msg)

	case deleteRequestMsg:
		requests, id := a.requests, msg.id
		return a, func() tea.Msg {
			return actionResultMsg{action: "delete request", err: requests.Delete(context.Background(), id)}
		}

	case setBlockedMsg:
		if a.users == nil {
			return a, nil
		}
		users := a.users
		action := "unblock user"
		if msg.blocked {
			action = "block user"
		}
		return a, func() tea.Msg {
			if err := users.SetBlocked(context.Background(), msg.user, msg.blocked); err != nil {
				return actionResultMsg{action: action, err: err}
			}
			return usersLoadedMsg{action: action}
		}

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) moderate(msg setStatusMsg) tea.Cmd {
	requests, id := a.requests, msg.id
	var op func(context.Context, domain.ID) error
	switch msg.status {
	case domain.RequestStatusAccepted:
		op = requests.Accept
	case domain.RequestStatusRejected:
		op = requests.Reject
	case domain.RequestStatusClosed:
		op = requests.Close
	default:
		return nil
	}
	return func() tea.Msg {
		return actionResultMsg{action: "mark " + string(msg.status), err: op(context.Background(), id)}
	}
}

func (a App) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "ctrl+c" {
		return a, tea.Quit
	}

	var cmd tea.Cmd
	switch a.pane {
	case paneCompose:
		a.compose, cmd = a.compose.Update(key)
		return a, cmd
	case paneThread:
		switch key.String() {
		case "esc", "tab":
			a.thread.Blur()
			a.pane = paneList
			return a, nil
		}
		a.thread, cmd = a.thread.Update(key)
		return a, cmd
	case paneBell:
		if key.String() == "esc" || key.String() == "b" {
			a.bell.Toggle()
			a.pane = paneList
			return a, nil
		}
		a.bell, cmd = a.bell.Update(key)
		return a, cmd
	case paneModeration:
		if key.String() == "esc" {
			a.pane = paneList
			return a, nil
		}
		a.mod, cmd = a.mod.Update(key)
		return a, cmd
	}

	switch key.String() {
	case "q":
		return a, tea.Quit
	case "n":
		a.pane = paneCompose
		return a, a.compose.Focus()
	case "b":
		a.bell.Toggle()
		a.pane = paneBell
		return a, nil
	case "m":
		if a.snap.Identity.Role.IsStaff() {
			a.pane = paneModeration
		}
		return a, nil
	case "tab":
		if a.snap.Selected != nil {
			a.pane = paneThread
			return a, a.thread.Focus()
		}
		return a, nil
	case "R":
		store := a.store
		return a, func() tea.Msg {
			return actionResultMsg{action: "refresh", err: store.FetchRequests(context.Background())}
		}
	}
	a.list, cmd = a.list.Update(key)
	return a, cmd
}

func (a App) setStatus(msg actionResultMsg) (tea.Model, tea.Cmd) {
	a.statusSeq++
	seq := a.statusSeq
	switch {
	case msg.err == nil:
		a.status = msg.action + ": done"
		a.statusErr = false
	case errors.Is(msg.err, chat.ErrForbidden), errors.Is(msg.err, moderation.ErrForbidden):
		a.status = msg.action + ": not allowed"
		a.statusErr = true
	case transport.IsAuth(msg.err):
		a.status = "session expired, run chatdesk login"
		a.statusErr = true
	default:
		a.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		a.statusErr = true
	}
	return a, tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (a *App) resize() {
	listWidth := a.width / 3
	body := max(a.height-4, 5)
	a.list.SetSize(listWidth, body)
	a.thread.SetSize(a.width-listWidth-4, body)
	a.compose.SetSize(a.width-listWidth-4, body)
	a.mod.SetSize(a.width-listWidth-4, body)
}

// View renders the header, both panes and the status line.
func (a App) View() string {
	who := a.snap.Identity.Name
	if who == "" {
		who = a.snap.Identity.UserID.String()
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		a.styles.Header.Render("chatdesk"), "  ",
		a.styles.Muted.Render(fmt.Sprintf("%s (%s)", who, a.snap.Identity.Role)), "  ",
		a.styles.Muted.Render("feed: "+a.feedState.String()), "  ",
		a.bell.Badge(),
	)

	leftStyle, rightStyle := a.styles.Pane, a.styles.Pane
	if a.pane == paneList {
		leftStyle = a.styles.Focused
	} else {
		rightStyle = a.styles.Focused
	}

	var right string
	switch a.pane {
	case paneCompose:
		right = a.compose.View()
	case paneBell:
		right = a.bell.View()
	case paneModeration:
		right = a.mod.View()
	default:
		right = a.thread.View()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(a.list.View()),
		rightStyle.Render(right),
	)

	footer := a.styles.Muted.Render(a.helpLine())
	if a.status != "" {
		style := a.styles.Status
		if a.statusErr {
			style = a.styles.Error
		}
		footer = style.Render(a.status)
	}
	return strings.Join([]string{header, body, footer}, "\n")
}

func (a App) helpLine() string {
	help := "enter open  tab thread  n new  b notifications  R refresh  q quit"
	if a.snap.Identity.Role.IsStaff() {
		help = "enter open  tab thread  n new  b notifications  m moderate  R refresh  q quit"
	}
	return help
}

// FeedStates is the part of the realtime feed the UI observes.
type FeedStates interface {
	OnStateChange(listener func(realtime.State)) func()
}

// Run drives the program until the user quits or ctx is cancelled. feed
// may be nil when realtime is disabled.
func Run(ctx context.Context, app App, feed FeedStates, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(app, opts...)

	unsubscribe := app.store.Subscribe(func() { p.Send(StoreChangedMsg{}) })
	defer unsubscribe()
	if feed != nil {
		remove := feed.OnStateChange(func(s realtime.State) { p.Send(FeedStateMsg{State: s}) })
		defer remove()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
