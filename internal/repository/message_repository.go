package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// MessageRepository manages request thread messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByRequest(ctx context.Context, requestID domain.ID) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (request_id, sender_id, message_type, content)
        VALUES ($1,$2,$3,$4)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.RequestID,
		msg.SenderID,
		msg.Type,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByRequest(ctx context.Context, requestID domain.ID) ([]domain.Message, error) {
	const query = `
        SELECT m.id::text, m.request_id::text, m.sender_id::text, u.name, u.role,
               m.message_type, m.content, m.created_at
        FROM messages m JOIN users u ON u.id = m.sender_id
        WHERE m.request_id=$1 ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.RequestID,
			&msg.SenderID,
			&msg.Sender.Name,
			&msg.Sender.Role,
			&msg.Type,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
