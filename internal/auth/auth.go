// Package auth resolves request credentials into a Principal.
package auth

import (
	"context"
	"errors"
	"strings"

	"stockroom/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrMissingCredentials means no Authorization header was sent.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrMalformed means the header could not be parsed for the active scheme.
	ErrMalformed = errors.New("malformed credentials")
	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken means the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated identity behind a request.
type Principal struct {
	ID       uuid.UUID
	Username string
}

// Authenticator verifies the raw Authorization header value.
type Authenticator interface {
	// Scheme is the HTTP auth scheme name used in WWW-Authenticate challenges.
	Scheme() string
	Authenticate(ctx context.Context, header string) (*Principal, error)
}

// UserLookup finds users by their normalized username.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Reason classifies an authentication error for metrics and logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "error"
	}
}

// splitHeader returns the credentials following scheme, matched case-insensitively.
func splitHeader(header, scheme string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredentials
	}
	prefix, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(prefix, scheme) {
		return "", ErrMalformed
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", ErrMalformed
	}
	return rest, nil
}
