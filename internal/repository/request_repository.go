package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// RequestFilter narrows request listings.
type RequestFilter struct {
	OwnerID *domain.ID
	Limit   int
	Offset  int
}

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	UpdateStatus(ctx context.Context, id domain.ID, status domain.RequestStatus) error
	Delete(ctx context.Context, id domain.ID) error
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestSelect = `
        SELECT r.id::text, r.title, r.description, r.status, r.user_id::text,
               u.name, u.email, r.created_at, r.price::float8, r.currency
        FROM requests r JOIN users u ON u.id = r.user_id`

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	const query = `
        INSERT INTO requests (user_id, title, description, status, price, currency)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		req.UserID,
		req.Title,
		req.Description,
		req.Status,
		req.Price,
		req.Currency,
	).Scan(&req.ID, &req.CreatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, requestSelect+` WHERE r.id=$1`, id))
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	query := requestSelect
	args := []any{}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(" WHERE r.user_id=$%d", len(args))
	}
	query += " ORDER BY r.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id domain.ID, status domain.RequestStatus) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE requests SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id domain.ID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRequest(row pgx.Row) (domain.Request, error) {
	var (
		req   domain.Request
		owner domain.UserSnapshot
	)
	err := row.Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&req.Status,
		&req.UserID,
		&owner.Name,
		&owner.Email,
		&req.CreatedAt,
		&req.Price,
		&req.Currency,
	)
	if err != nil {
		return domain.Request{}, err
	}
	req.User = &owner
	return req, nil
}
