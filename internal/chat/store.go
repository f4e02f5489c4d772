// Package chat holds the client-side state of requests, the selected
// request's messages and notifications, and merges fetched state with
// realtime pushes.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
)

var (
	// ErrForbidden is returned when the current role lacks a capability.
	ErrForbidden = errors.New("chat: action not permitted for role")
	// ErrEmptyContent rejects blank messages and titles before any call.
	ErrEmptyContent = errors.New("chat: content must not be empty")
	// ErrClosed is returned by fetches issued after Close.
	ErrClosed = errors.New("chat: store closed")
)

// Transport is the subset of the HTTP client the store needs.
type Transport interface {
	CreateRequest(ctx context.Context, title, description string) (*domain.Request, error)
	ListRequests(ctx context.Context) ([]domain.Request, error)
	ListMessages(ctx context.Context, requestID domain.ID) ([]domain.Message, error)
	SendMessage(ctx context.Context, requestID domain.ID, content string, msgType domain.MessageType) (*domain.Message, error)
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id domain.ID) error
	UpdateRequestStatus(ctx context.Context, requestID domain.ID, status domain.RequestStatus) (*domain.Request, error)
	DeleteRequest(ctx context.Context, requestID domain.ID) error
}

// Store is the single owner of chat state. Every mutation goes through it.
//
// Fetches of the same collection are sequenced: a response is applied only
// if no later fetch of that collection was issued in the meantime. Message
// fetches are tagged with the selection generation they were issued for
// and dropped once the selection has moved on.
type Store struct {
	transport Transport
	logger    *zap.Logger
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	mu               sync.Mutex
	closed           bool
	identity         domain.Identity
	requests         FetchState[[]domain.Request]
	requestsSeq      uint64
	selected         *domain.Request
	selectionGen     uint64
	messages         FetchState[[]domain.Message]
	notifications    FetchState[[]domain.Notification]
	notificationsSeq uint64
	listeners        map[int]func()
	nextListener     int
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each transport call issued by the store.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithIdentity sets the identity used for capability checks.
func WithIdentity(identity domain.Identity) Option {
	return func(s *Store) {
		s.identity = identity
	}
}

// NewStore builds an empty store.
func NewStore(transport Transport, logger *zap.Logger, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		transport: transport,
		logger:    observability.OrNop(logger).Named("chat"),
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close cancels background refreshes and waits for them to finish.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.bg.Wait()
}

// SetIdentity replaces the identity used for capability checks.
func (s *Store) SetIdentity(identity domain.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers a listener called after every state change. Listeners
// run outside the store lock and should read Snapshot themselves.
func (s *Store) Subscribe(listener func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListener++
	id := s.nextListener
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Identity:      s.identity,
		Requests:      cloneState(s.requests),
		Messages:      cloneState(s.messages),
		Notifications: cloneState(s.notifications),
	}
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	return snap
}

func (s *Store) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// FetchRequests replaces the request list with the backend's.
func (s *Store) FetchRequests(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.requestsSeq++
	seq := s.requestsSeq
	s.requests = s.requests.loading()
	s.mu.Unlock()
	s.notify()

	callCtx, cancel := s.callCtx(ctx)
	list, err := s.transport.ListRequests(callCtx)
	cancel()

	s.mu.Lock()
	if seq != s.requestsSeq {
		s.mu.Unlock()
		s.logger.Debug("discard superseded request list", zap.Uint64("seq", seq))
		return err
	}
	if err != nil {
		s.requests = s.requests.fail(err)
	} else {
		s.requests = s.requests.succeed(list)
		s.refreshSelectedLocked()
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn("fetch requests failed", zap.Error(err))
	}
	return err
}

// refreshSelectedLocked keeps the selected copy in line with the list.
func (s *Store) refreshSelectedLocked() {
	if s.selected == nil {
		return
	}
	for _, r := range s.requests.Data {
		if r.ID == s.selected.ID {
			sel := r
			s.selected = &sel
			return
		}
	}
}

// SelectRequest makes req the selection and loads its messages. Selection
// and messages are swapped together so the previous thread never shows
// under the new selection.
func (s *Store) SelectRequest(ctx context.Context, req domain.Request) error {
	s.mu.Lock()
	s.selectionGen++
	gen := s.selectionGen
	sel := req
	s.selected = &sel
	s.messages = FetchState[[]domain.Message]{Phase: Loading}
	s.mu.Unlock()
	s.notify()

	callCtx, cancel := s.callCtx(ctx)
	msgs, err := s.transport.ListMessages(callCtx, req.ID)
	cancel()

	s.mu.Lock()
	if gen != s.selectionGen {
		s.mu.Unlock()
		s.logger.Debug("discard stale messages", zap.String("request_id", req.ID.String()))
		return nil
	}
	if err != nil {
		s.messages = s.messages.fail(err)
	} else {
		s.messages = s.messages.succeed(msgs)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn("fetch messages failed", zap.String("request_id", req.ID.String()), zap.Error(err))
	}
	return err
}

// ClearSelection drops the selection and its messages.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selectionGen++
	s.selected = nil
	s.messages = FetchState[[]domain.Message]{}
	s.mu.Unlock()
	s.notify()
}

// SendMessage posts to the selected request and appends the server's copy
// once acknowledged. Without a selection it does nothing.
func (s *Store) SendMessage(ctx context.Context, content string, msgType domain.MessageType) (*domain.Message, error) {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return nil, nil
	}
	requestID := s.selected.ID
	gen := s.selectionGen
	s.mu.Unlock()

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	callCtx, cancel := s.callCtx(ctx)
	msg, err := s.transport.SendMessage(callCtx, requestID, content, msgType.OrDefault())
	cancel()
	if err != nil {
		s.logger.Warn("send message failed", zap.String("request_id", requestID.String()), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	changed := false
	if gen == s.selectionGen {
		if msg.RequestID.IsZero() {
			msg.RequestID = requestID
		}
		changed = s.appendMessageLocked(*msg)
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return msg, nil
}

// appendMessageLocked appends msg unless a message with the same id is
// already present; the ack and the realtime push can both deliver it.
func (s *Store) appendMessageLocked(msg domain.Message) bool {
	for _, m := range s.messages.Data {
		if !msg.ID.IsZero() && m.ID == msg.ID {
			return false
		}
	}
	data := append(cloneSlice(s.messages.Data), msg)
	s.messages.Data = data
	if s.messages.Phase == Idle {
		s.messages.Phase = Success
	}
	return true
}

// CreateRequest opens a request. The list is not touched; callers re-fetch.
func (s *Store) CreateRequest(ctx context.Context, title, description string) (*domain.Request, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyContent
	}
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	req, err := s.transport.CreateRequest(callCtx, strings.TrimSpace(title), strings.TrimSpace(description))
	if err != nil {
		s.logger.Warn("create request failed", zap.Error(err))
		return nil, err
	}
	return req, nil
}

// FetchNotifications replaces the notification list.
func (s *Store) FetchNotifications(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.notificationsSeq++
	seq := s.notificationsSeq
	s.notifications = s.notifications.loading()
	s.mu.Unlock()
	s.notify()

	callCtx, cancel := s.callCtx(ctx)
	list, err := s.transport.ListNotifications(callCtx)
	cancel()

	s.mu.Lock()
	if seq != s.notificationsSeq {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.notifications = s.notifications.fail(err)
	} else {
		s.notifications = s.notifications.succeed(list)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn("fetch notifications failed", zap.Error(err))
	}
	return err
}

// MarkNotificationRead flips one notification once the server acknowledges.
func (s *Store) MarkNotificationRead(ctx context.Context, id domain.ID) error {
	callCtx, cancel := s.callCtx(ctx)
	err := s.transport.MarkNotificationRead(callCtx, id)
	cancel()
	if err != nil {
		s.logger.Warn("mark notification read failed", zap.String("notification_id", id.String()), zap.Error(err))
		return err
	}

	s.mu.Lock()
	changed := false
	data := cloneSlice(s.notifications.Data)
	for i := range data {
		if data[i].ID == id && !data[i].Read {
			data[i].Read = true
			changed = true
			break
		}
	}
	if changed {
		s.notifications.Data = data
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return nil
}

func (s *Store) can(c domain.Capability) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity.Role.Can(c)
}

// UpdateRequestStatus moderates a request, then re-fetches the list.
func (s *Store) UpdateRequestStatus(ctx context.Context, id domain.ID, status domain.RequestStatus) error {
	if !s.can(domain.CapModerateRequests) {
		return ErrForbidden
	}
	callCtx, cancel := s.callCtx(ctx)
	_, err := s.transport.UpdateRequestStatus(callCtx, id, status)
	cancel()
	if err != nil {
		s.logger.Warn("update request status failed", zap.String("request_id", id.String()), zap.Error(err))
		return err
	}
	if s.patchStatus(id, status) {
		s.notify()
	}
	return s.FetchRequests(ctx)
}

// DeleteRequest removes a request, then re-fetches the list.
func (s *Store) DeleteRequest(ctx context.Context, id domain.ID) error {
	if !s.can(domain.CapDeleteRequests) {
		return ErrForbidden
	}
	callCtx, cancel := s.callCtx(ctx)
	err := s.transport.DeleteRequest(callCtx, id)
	cancel()
	if err != nil {
		s.logger.Warn("delete request failed", zap.String("request_id", id.String()), zap.Error(err))
		return err
	}
	s.removeRequest(id)
	s.notify()
	return s.FetchRequests(ctx)
}

func (s *Store) patchStatus(id domain.ID, status domain.RequestStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	data := cloneSlice(s.requests.Data)
	for i := range data {
		if data[i].ID == id && data[i].Status != status {
			data[i].Status = status
			changed = true
		}
	}
	if changed {
		s.requests.Data = data
	}
	if s.selected != nil && s.selected.ID == id && s.selected.Status != status {
		sel := *s.selected
		sel.Status = status
		s.selected = &sel
		changed = true
	}
	return changed
}

func (s *Store) removeRequest(id domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]domain.Request, 0, len(s.requests.Data))
	for _, r := range s.requests.Data {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.requests.Data = kept
	if s.selected != nil && s.selected.ID == id {
		s.selectionGen++
		s.selected = nil
		s.messages = FetchState[[]domain.Message]{}
	}
}

// background runs fn on a goroutine tied to the store's lifetime.
func (s *Store) background(name string, fn func(context.Context) error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.bg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.bg.Done()
		if err := fn(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("background refresh failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// StartPolling re-fetches requests and notifications every interval until
// the store is closed.
func (s *Store) StartPolling(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.background("poll", func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				_ = s.FetchRequests(ctx)
				_ = s.FetchNotifications(ctx)
			}
		}
	})
}
