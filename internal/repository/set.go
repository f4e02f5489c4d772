package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set groups the repositories a server needs.
type Set struct {
	Users         UserRepository
	Requests      RequestRepository
	Messages      MessageRepository
	Notifications NotificationRepository
}

// NewPostgresSet builds every repository over pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:         NewUserRepository(pool),
		Requests:      NewRequestRepository(pool),
		Messages:      NewMessageRepository(pool),
		Notifications: NewNotificationRepository(pool),
	}
}
