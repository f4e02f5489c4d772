package domain

import "time"

// MessageType differentiates message payloads.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// OrDefault returns text for an unset type.
func (t MessageType) OrDefault() MessageType {
	if t == "" {
		return MessageTypeText
	}
	return t
}

// SenderSnapshot is the denormalized author info sent with a message.
type SenderSnapshot struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Message is an append-only entry in a request thread.
type Message struct {
	ID        ID             `json:"id"`
	RequestID ID             `json:"requestId"`
	SenderID  ID             `json:"senderId"`
	Sender    SenderSnapshot `json:"sender"`
	Content   string         `json:"content"`
	Type      MessageType    `json:"type,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
