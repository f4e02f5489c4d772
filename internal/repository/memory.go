package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// Memory is an in-process implementation of every repository. Missing rows
// are reported as pgx.ErrNoRows so callers handle both backends alike.
type Memory struct {
	mu            sync.RWMutex
	now           func() time.Time
	users         []domain.User
	requests      []domain.Request
	messages      []domain.Message
	notifications []domain.Notification
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Users returns the account repository.
func (m *Memory) Users() UserRepository { return memUsers{m} }

// Requests returns the request repository.
func (m *Memory) Requests() RequestRepository { return memRequests{m} }

// Messages returns the message repository.
func (m *Memory) Messages() MessageRepository { return memMessages{m} }

// Notifications returns the notification repository.
func (m *Memory) Notifications() NotificationRepository { return memNotifications{m} }

// stamp returns a strictly increasing timestamp so ordering by time is stable.
func (m *Memory) stamp(prev []time.Time) time.Time {
	t := m.now().UTC()
	for _, p := range prev {
		if !t.After(p) {
			t = p.Add(time.Microsecond)
		}
	}
	return t
}

func (m *Memory) userLocked(id domain.ID) (domain.User, bool) {
	for _, u := range m.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

type memUsers struct{ m *Memory }

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint", ConstraintName: "users_email_key"}
		}
	}
	var last []time.Time
	if n := len(r.m.users); n > 0 {
		last = []time.Time{r.m.users[n-1].CreatedAt}
	}
	user.ID = domain.ID(uuid.NewString())
	user.CreatedAt = r.m.stamp(last)
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}
	r.m.users = append(r.m.users, *user)
	return nil
}

func (r memUsers) GetByID(_ context.Context, id domain.ID) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if u, ok := r.m.userLocked(id); ok {
		return &u, nil
	}
	return nil, pgx.ErrNoRows
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memUsers) List(_ context.Context) ([]domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := append([]domain.User{}, r.m.users...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memUsers) ListByRoles(_ context.Context, roles ...domain.Role) ([]domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []domain.User{}
	for _, u := range r.m.users {
		if u.Status != domain.UserStatusActive {
			continue
		}
		for _, role := range roles {
			if u.Role == role {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func (r memUsers) UpdateStatus(_ context.Context, id domain.ID, status domain.UserStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.users {
		if r.m.users[i].ID == id {
			r.m.users[i].Status = status
			r.m.users[i].UpdatedAt = r.m.now().UTC()
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memRequests struct{ m *Memory }

func (r memRequests) withOwnerLocked(req domain.Request) domain.Request {
	if u, ok := r.m.userLocked(req.UserID); ok {
		req.User = u.Snapshot()
	}
	return req
}

func (r memRequests) Create(_ context.Context, req *domain.Request) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.userLocked(req.UserID); !ok {
		return &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint", ConstraintName: "requests_user_id_fkey"}
	}
	var last []time.Time
	if n := len(r.m.requests); n > 0 {
		last = []time.Time{r.m.requests[n-1].CreatedAt}
	}
	req.ID = domain.ID(uuid.NewString())
	req.CreatedAt = r.m.stamp(last)
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	stored := *req
	stored.User = nil
	r.m.requests = append(r.m.requests, stored)
	return nil
}

func (r memRequests) GetByID(_ context.Context, id domain.ID) (*domain.Request, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, req := range r.m.requests {
		if req.ID == id {
			out := r.withOwnerLocked(req)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memRequests) List(_ context.Context, filter RequestFilter) ([]domain.Request, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []domain.Request{}
	for i := len(r.m.requests) - 1; i >= 0; i-- {
		req := r.m.requests[i]
		if filter.OwnerID != nil && req.UserID != *filter.OwnerID {
			continue
		}
		out = append(out, r.withOwnerLocked(req))
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Request{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r memRequests) UpdateStatus(_ context.Context, id domain.ID, status domain.RequestStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.requests {
		if r.m.requests[i].ID == id {
			r.m.requests[i].Status = status
			return nil
		}
	}
	return pgx.ErrNoRows
}

// Delete cascades to the request's messages and notifications.
func (r memRequests) Delete(_ context.Context, id domain.ID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	found := false
	kept := r.m.requests[:0]
	for _, req := range r.m.requests {
		if req.ID == id {
			found = true
			continue
		}
		kept = append(kept, req)
	}
	r.m.requests = kept
	if !found {
		return pgx.ErrNoRows
	}

	msgs := r.m.messages[:0]
	for _, msg := range r.m.messages {
		if msg.RequestID != id {
			msgs = append(msgs, msg)
		}
	}
	r.m.messages = msgs

	notifs := r.m.notifications[:0]
	for _, n := range r.m.notifications {
		if n.RequestID != id {
			notifs = append(notifs, n)
		}
	}
	r.m.notifications = notifs
	return nil
}

type memMessages struct{ m *Memory }

func (r memMessages) Create(_ context.Context, msg *domain.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var last []time.Time
	if n := len(r.m.messages); n > 0 {
		last = []time.Time{r.m.messages[n-1].CreatedAt}
	}
	msg.ID = domain.ID(uuid.NewString())
	msg.CreatedAt = r.m.stamp(last)
	msg.Type = msg.Type.OrDefault()
	r.m.messages = append(r.m.messages, *msg)
	return nil
}

func (r memMessages) ListByRequest(_ context.Context, requestID domain.ID) ([]domain.Message, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []domain.Message{}
	for _, msg := range r.m.messages {
		if msg.RequestID != requestID {
			continue
		}
		if u, ok := r.m.userLocked(msg.SenderID); ok {
			msg.Sender = domain.SenderSnapshot{Name: u.Name, Role: u.Role}
		}
		out = append(out, msg)
	}
	return out, nil
}

type memNotifications struct{ m *Memory }

func (r memNotifications) Create(_ context.Context, n *domain.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var last []time.Time
	if k := len(r.m.notifications); k > 0 {
		last = []time.Time{r.m.notifications[k-1].CreatedAt}
	}
	n.ID = domain.ID(uuid.NewString())
	n.CreatedAt = r.m.stamp(last)
	n.Read = false
	r.m.notifications = append(r.m.notifications, *n)
	return nil
}

func (r memNotifications) ListByUser(_ context.Context, userID domain.ID) ([]domain.Notification, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []domain.Notification{}
	for i := len(r.m.notifications) - 1; i >= 0; i-- {
		if n := r.m.notifications[i]; n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r memNotifications) MarkRead(_ context.Context, userID, id domain.ID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.notifications {
		if n := &r.m.notifications[i]; n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

// Set returns the four repositories backed by m.
func (m *Memory) Set() Set {
	return Set{Users: m.Users(), Requests: m.Requests(), Messages: m.Messages(), Notifications: m.Notifications()}
}
