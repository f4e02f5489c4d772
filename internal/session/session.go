// Package session is the single accessor for the current bearer token and
// the identity encoded in it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
)

// ErrNoToken is returned when no token is stored.
var ErrNoToken = errors.New("session: no token stored")

// TokenStore persists the bearer token under one well-known key.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Session reads the token from its store on every call, so a login in one
// component is visible to the next call made by any other.
type Session struct {
	store  TokenStore
	parser *jwt.Parser
}

// New wraps store.
func New(store TokenStore) *Session {
	return &Session{store: store, parser: jwt.NewParser()}
}

// Token returns the stored token or ErrNoToken.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Save stores a fresh token.
func (s *Session) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	return s.store.Save(ctx, token)
}

// Clear removes the stored token.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

type identityClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity decodes the caller from the token claims. The signature is not
// verified here; the backend does that on every call.
func (s *Session) Identity(ctx context.Context) (domain.Identity, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	return ParseIdentity(s.parser, token)
}

// ParseIdentity extracts sub/name/role claims from an unverified JWT.
func ParseIdentity(parser *jwt.Parser, token string) (domain.Identity, error) {
	if parser == nil {
		parser = jwt.NewParser()
	}
	var claims identityClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return domain.Identity{}, fmt.Errorf("session: decode token: %w", err)
	}
	if claims.Subject == "" {
		return domain.Identity{}, errors.New("session: token has no subject")
	}
	role, _ := domain.ParseRole(claims.Role)
	return domain.Identity{
		UserID: domain.ID(claims.Subject),
		Name:   claims.Name,
		Role:   role,
	}, nil
}
