package ui

import (
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/realtime"
)

// StoreChangedMsg tells App to re-read the store snapshot.
type StoreChangedMsg struct{}

// FeedStateMsg reports a realtime connection change.
type FeedStateMsg struct {
	State realtime.State
}

// Intents emitted by the sub-models and executed by App.
type (
	selectRequestMsg struct{ request domain.Request }
	sendMessageMsg   struct{ content string }
	createRequestMsg struct{ title, description string }
	markReadMsg      struct{ id domain.ID }
	setStatusMsg     struct {
		id     domain.ID
		status domain.RequestStatus
	}
	deleteRequestMsg struct{ id domain.ID }
	setBlockedMsg    struct {
		user    domain.User
		blocked bool
	}
	closeComposeMsg struct{}
)

// actionResultMsg carries the outcome of a user-initiated action.
type actionResultMsg struct {
	action string
	err    error
}

type usersLoadedMsg struct{ action string }
