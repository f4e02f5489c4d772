package dto

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

// UpdateStatusRequest payload; the status is normalized by the handler.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SendMessageRequest payload.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
	Type    string `json:"type" validate:"omitempty,oneof=text image file"`
}

// Ack is returned by endpoints without a resource body.
type Ack struct {
	OK bool `json:"ok"`
}
