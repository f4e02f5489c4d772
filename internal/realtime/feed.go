// Package realtime keeps one websocket connection per authenticated session
// and republishes server pushes as typed events.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/config"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
	"github.com/chatdesk-dev/chat-desk/internal/session"
)

// State of the feed connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "disconnected"
}

const (
	pingInterval = 25 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// ErrAlreadyConnected is returned by Connect on a running feed.
var ErrAlreadyConnected = errors.New("realtime: feed already started")

// TokenSource supplies the bearer token used in the handshake.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Feed is a reconnecting websocket subscriber.
type Feed struct {
	url        string
	tokens     TokenSource
	dispatcher events.Dispatcher
	dialer     *websocket.Dialer
	logger     *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	conn      *websocket.Conn
	listeners map[int]func(State)
	nextID    int
}

// NewFeed builds a disconnected feed publishing into dispatcher.
func NewFeed(cfg config.FeedConfig, tokens TokenSource, dispatcher events.Dispatcher, logger *zap.Logger) *Feed {
	minBackoff, maxBackoff := cfg.ReconnectMin, cfg.ReconnectMax
	if minBackoff <= 0 {
		minBackoff = 500 * time.Millisecond
	}
	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}
	return &Feed{
		url:        cfg.URL,
		tokens:     tokens,
		dispatcher: dispatcher,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:     observability.OrNop(logger).Named("realtime"),
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
		listeners:  make(map[int]func(State)),
	}
}

// State returns the current connection state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OnStateChange registers a listener; the returned func removes it.
func (f *Feed) OnStateChange(listener func(State)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.listeners[id] = listener
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *Feed) setState(s State) {
	f.mu.Lock()
	if f.state == s {
		f.mu.Unlock()
		return
	}
	f.state = s
	listeners := make([]func(State), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

// Connect starts the connection loop for identity. It returns immediately;
// progress is reported through State and OnStateChange.
func (f *Feed) Connect(ctx context.Context, identity domain.Identity) error {
	if identity.UserID.IsZero() {
		return errors.New("realtime: identity has no user id")
	}
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return ErrAlreadyConnected
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	f.setState(Connecting)
	go f.run(runCtx, identity, done)
	return nil
}

// Close stops the loop, closes the socket and waits for the reader to exit.
func (f *Feed) Close() error {
	f.mu.Lock()
	cancel, done, conn := f.cancel, f.done, f.conn
	f.cancel = nil
	f.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	if conn != nil {
		_ = conn.Close()
	}
	<-done
	return nil
}

func (f *Feed) run(ctx context.Context, identity domain.Identity, done chan struct{}) {
	defer func() {
		// A Connect that raced Close owns the fields by now.
		cleared := f.owned(done, func() {
			f.conn = nil
			f.cancel = nil
		})
		if cleared {
			f.setState(Disconnected)
		}
		close(done)
	}()

	backoff := f.minBackoff
	for ctx.Err() == nil {
		token, err := f.tokens.Token(ctx)
		if errors.Is(err, session.ErrNoToken) {
			f.logger.Info("no token; realtime feed stopped")
			return
		}
		if err != nil {
			f.logger.Warn("read token", zap.Error(err))
			if !sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, f.maxBackoff)
			continue
		}

		conn, err := f.dial(ctx, token, identity)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.logger.Warn("realtime dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			f.setState(Connecting)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, f.maxBackoff)
			continue
		}

		backoff = f.minBackoff
		if !f.owned(done, func() { f.conn = conn }) {
			_ = conn.Close()
			return
		}
		f.setState(Connected)
		f.logger.Info("realtime connected", zap.String("room", identity.Room()))

		err = f.readLoop(ctx, conn)
		_ = conn.Close()
		f.owned(done, func() { f.conn = nil })
		if ctx.Err() != nil {
			return
		}
		f.logger.Warn("realtime connection dropped", zap.Error(err))
		f.setState(Connecting)
		if !sleep(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, f.maxBackoff)
	}
}

// owned runs fn under the lock if done still belongs to the current session.
func (f *Feed) owned(done chan struct{}, fn func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done != done {
		return false
	}
	fn()
	return true
}

func (f *Feed) dial(ctx context.Context, token string, identity domain.Identity) (*websocket.Conn, error) {
	u, err := url.Parse(f.url)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := f.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	rooms := []string{identity.Room()}
	if identity.Role.IsStaff() {
		rooms = append(rooms, domain.StaffRoom)
	}
	for _, room := range rooms {
		frame, err := NewFrame(EventJoin, JoinData{Room: room})
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("join %s: %w", room, err)
		}
	}
	return conn, nil
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		f.handleFrame(ctx, raw)
	}
}

func (f *Feed) handleFrame(ctx context.Context, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		f.logger.Debug("skip malformed frame", zap.Error(err))
		return
	}
	event, err := events.DecodeWire(events.EventType(frame.Event), frame.Data)
	if err != nil {
		f.logger.Debug("skip frame", zap.String("event", frame.Event), zap.Error(err))
		return
	}
	if err := f.dispatcher.Publish(ctx, event); err != nil {
		f.logger.Warn("publish realtime event", zap.String("event", frame.Event), zap.Error(err))
	}
}

func nextBackoff(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit {
		return limit
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
