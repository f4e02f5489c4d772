package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatdesk-dev/chat-desk/internal/config"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
	"github.com/chatdesk-dev/chat-desk/internal/repository"
	apperrors "github.com/chatdesk-dev/chat-desk/pkg/util/errorutil"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) record(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	mem           *repository.Memory
	dispatcher    events.Dispatcher
	events        *recorder
	auth          *AuthService
	requests      *RequestService
	notifications *NotificationService
	users         *UserService
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemory()
	dispatcher := events.NewInMemoryDispatcher(events.WithErrorHook(func(e events.Event, err error) {
		t.Errorf("handler for %s failed: %v", e.Type, err)
	}))
	rec := &recorder{}
	for _, et := range []events.EventType{
		events.EventNewRequest, events.EventNewMessage, events.EventStatusUpdate,
		events.EventRequestDeleted, events.EventNotificationCreated,
	} {
		dispatcher.Subscribe(et, rec.record)
	}
	logger := zap.NewNop()
	return &fixture{
		mem:        mem,
		dispatcher: dispatcher,
		events:     rec,
		auth:       NewAuthService(testAuthConfig(), mem.Users(), logger),
		requests: NewRequestService(RequestDependencies{
			RequestRepo: mem.Requests(),
			MessageRepo: mem.Messages(),
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		notifications: NewNotificationService(NotificationDependencies{
			NotificationRepo: mem.Notifications(),
			RequestRepo:      mem.Requests(),
			UserRepo:         mem.Users(),
			Dispatcher:       dispatcher,
			Logger:           logger,
		}),
		users: NewUserService(mem.Users(), logger),
	}
}

// account creates a user with role and returns its identity.
func (f *fixture) account(t *testing.T, name string, role domain.Role) domain.Identity {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, f.mem.Users().Create(context.Background(), u))
	return domain.Identity{UserID: u.ID, Name: u.Name, Role: u.Role}
}

func codeOf(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.ToDomainError(err).Code
}
