package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType
	d.Subscribe(EventNewMessage, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventNewRequest, func(_ context.Context, e Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventNewMessage, "r1", nil)))
	assert.Equal(t, []EventType{EventNewMessage}, got)
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	unsubscribe := d.Subscribe(EventStatusUpdate, func(context.Context, Event) error {
		calls++
		return nil
	})
	_ = d.Publish(context.Background(), NewEvent(EventStatusUpdate, "r1", nil))
	unsubscribe()
	unsubscribe()
	_ = d.Publish(context.Background(), NewEvent(EventStatusUpdate, "r1", nil))
	assert.Equal(t, 1, calls)
}

func TestDispatcherErrorHookDoesNotStopOthers(t *testing.T) {
	var hooked []error
	d := NewInMemoryDispatcher(WithErrorHook(func(_ Event, err error) {
		hooked = append(hooked, err)
	}))
	boom := errors.New("boom")
	second := false
	d.Subscribe(EventNewRequest, func(context.Context, Event) error { return boom })
	d.Subscribe(EventNewRequest, func(context.Context, Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventNewRequest, "r1", nil)))
	assert.True(t, second)
	assert.Equal(t, []error{boom}, hooked)
}

func TestDecodeWire(t *testing.T) {
	e, err := DecodeWire(EventNewMessage, json.RawMessage(`{"id":"m1","requestId":5,"content":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ID("5"), e.RequestID)
	msg := e.Payload.(NewMessagePayload).Message
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, msg, e.WirePayload())

	e, err = DecodeWire(EventStatusUpdate, json.RawMessage(`{"requestId":"r1","status":"approved"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusUpdatePayload{RequestID: "r1", Status: domain.RequestStatusAccepted}, e.Payload)

	_, err = DecodeWire("typing", json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = DecodeWire(EventNewRequest, json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}
