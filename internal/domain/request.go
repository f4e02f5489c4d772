package domain

import (
	"strings"
	"time"
)

// RequestStatus enumerates moderation states for a request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusClosed   RequestStatus = "closed"
)

// ParseRequestStatus normalizes a status string. "approved" is an older
// spelling of accepted and is folded into it.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return RequestStatusPending, true
	case "accepted", "approved":
		return RequestStatusAccepted, true
	case "rejected":
		return RequestStatusRejected, true
	case "closed":
		return RequestStatusClosed, true
	}
	return "", false
}

// UnmarshalText normalizes the status on decode.
func (s *RequestStatus) UnmarshalText(text []byte) error {
	if parsed, ok := ParseRequestStatus(string(text)); ok {
		*s = parsed
		return nil
	}
	*s = RequestStatus(text)
	return nil
}

// Valid reports whether the status is one of the known states.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected, RequestStatusClosed:
		return true
	}
	return false
}

// UserSnapshot is the denormalized owner info sent along with a request.
type UserSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Request is a support/chat thread.
type Request struct {
	ID          ID            `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	UserID      ID            `json:"userId"`
	User        *UserSnapshot `json:"user,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	Price       *float64      `json:"price,omitempty"`
	Currency    string        `json:"currency,omitempty"`
}
