package hub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

var (
	ada   = domain.Identity{UserID: "u1", Role: domain.RoleUser}
	grace = domain.Identity{UserID: "a1", Role: domain.RoleAdmin}
)

func TestJoinPermissions(t *testing.T) {
	h := New(nil)
	user := h.Register(ada)
	staff := h.Register(grace)

	assert.NoError(t, h.Join(user, "u1"))
	assert.ErrorIs(t, h.Join(user, "a1"), ErrRoomForbidden)
	assert.ErrorIs(t, h.Join(user, domain.StaffRoom), ErrRoomForbidden)

	assert.NoError(t, h.Join(staff, "a1"))
	assert.NoError(t, h.Join(staff, domain.StaffRoom))
	assert.ErrorIs(t, h.Join(staff, "u1"), ErrRoomForbidden)

	assert.Equal(t, 1, h.Members("u1"))
	assert.Equal(t, 1, h.Members(domain.StaffRoom))
}

func TestDeliverToRoomMembers(t *testing.T) {
	h := New(nil)
	user := h.Register(ada)
	staff := h.Register(grace)
	require.NoError(t, h.Join(user, "u1"))
	require.NoError(t, h.Join(staff, domain.StaffRoom))

	h.Deliver(domain.StaffRoom, []byte("for staff"))
	h.Deliver("nobody", []byte("dropped"))

	assert.Equal(t, []byte("for staff"), <-staff.Send())
	select {
	case frame := <-user.Send():
		t.Fatalf("unexpected frame %q", frame)
	default:
	}
}

func TestUnregisterClosesQueue(t *testing.T) {
	h := New(nil)
	c := h.Register(ada)
	require.NoError(t, h.Join(c, "u1"))

	h.Unregister(c)
	h.Unregister(c)
	_, open := <-c.Send()
	assert.False(t, open)
	assert.Zero(t, h.Members("u1"))

	// joining after unregister is a no-op
	assert.NoError(t, h.Join(c, "u1"))
	assert.Zero(t, h.Members("u1"))
}

func TestSlowClientIsDropped(t *testing.T) {
	h := New(nil)
	slow := h.Register(ada)
	require.NoError(t, h.Join(slow, "u1"))

	for i := 0; i < sendBuffer+1; i++ {
		h.Deliver("u1", []byte("x"))
	}
	assert.Zero(t, h.Members("u1"))

	n := 0
	for range slow.Send() {
		n++
	}
	assert.Equal(t, sendBuffer, n)
}

func TestLocalFanout(t *testing.T) {
	h := New(nil)
	c := h.Register(ada)
	require.NoError(t, h.Join(c, "u1"))

	f := NewLocalFanout(h)
	require.NoError(t, f.Publish(context.Background(), "u1", []byte("hello")))
	assert.Equal(t, []byte("hello"), <-c.Send())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.Run(ctx))
}
