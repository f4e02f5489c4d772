package dto

// SetUserStatusRequest payload for PATCH /users/:id/block.
type SetUserStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
