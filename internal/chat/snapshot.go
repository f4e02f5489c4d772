package chat

import "github.com/chatdesk-dev/chat-desk/internal/domain"

// Snapshot is a copy of the store state handed to views.
type Snapshot struct {
	Identity      domain.Identity
	Requests      FetchState[[]domain.Request]
	Selected      *domain.Request
	Messages      FetchState[[]domain.Message]
	Notifications FetchState[[]domain.Notification]
}

// UnreadCount returns the number of unread notifications.
func (s Snapshot) UnreadCount() int {
	n := 0
	for _, notif := range s.Notifications.Data {
		if !notif.Read {
			n++
		}
	}
	return n
}

// Request returns the request with id from the list.
func (s Snapshot) Request(id domain.ID) (domain.Request, bool) {
	for _, r := range s.Requests.Data {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Request{}, false
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneState[T any](s FetchState[[]T]) FetchState[[]T] {
	s.Data = cloneSlice(s.Data)
	return s
}
