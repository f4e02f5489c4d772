package domain

import (
	"strings"
	"time"
)

// UserStatus represents whether an account may use the service.
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"
)

// ParseUserStatus normalizes a status string.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return UserStatusActive, true
	case "banned", "blocked", "suspended":
		return UserStatusBanned, true
	}
	return "", false
}

// User is an account as seen by moderators.
type User struct {
	ID           ID         `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Snapshot returns the denormalized form embedded in requests.
func (u *User) Snapshot() *UserSnapshot {
	if u == nil {
		return nil
	}
	return &UserSnapshot{Name: u.Name, Email: u.Email}
}
