package domain

import "time"

// Notification belongs to the current user; only its Read flag changes.
type Notification struct {
	ID        ID        `json:"id"`
	UserID    ID        `json:"userId,omitempty"`
	RequestID ID        `json:"requestId,omitempty"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
