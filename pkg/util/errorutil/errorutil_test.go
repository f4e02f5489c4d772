package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewForbidden("nope"), "FORBIDDEN", http.StatusForbidden},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewConflict("dup", nil)), "CONFLICT", http.StatusConflict},
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), "NOT_FOUND", http.StatusNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, "CONFLICT", http.StatusConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, "NOT_FOUND", http.StatusNotFound},
		{"other pg error", &pgconn.PgError{Code: "40001"}, "INTERNAL_ERROR", http.StatusInternalServerError},
		{"anything else", boom, "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
	assert.ErrorIs(t, ToDomainError(boom), boom)
}

func TestUniqueViolationDetails(t *testing.T) {
	got := ToDomainError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.Equal(t, "users_email_key", got.Details["constraint"])
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "request not found", NewNotFound("request", nil).Error())
	assert.Equal(t, "internal server error: disk full", NewInternalError(errors.New("disk full")).Error())

	var de *DomainError
	assert.True(t, errors.As(NewValidationError("bad", map[string]any{"title": "is required"}), &de))
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "is required", de.Details["title"])
}
