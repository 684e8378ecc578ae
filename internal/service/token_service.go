package service

import (
	"context"
	"errors"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/models"
)

// TokenService exchanges a username and password for a signed bearer token.
type TokenService struct {
	verifier *auth.BasicAuthenticator
	tokens   *auth.TokenManager
}

func NewTokenService(verifier *auth.BasicAuthenticator, tokens *auth.TokenManager) *TokenService {
	return &TokenService{verifier: verifier, tokens: tokens}
}

func (s *TokenService) Issue(ctx context.Context, username, password string) (string, time.Time, error) {
	principal, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return "", time.Time{}, models.NewUnauthorizedError("Invalid credentials")
		}
		return "", time.Time{}, models.NewInternalError(err)
	}

	token, expiresAt, err := s.tokens.Issue(&models.User{ID: principal.ID, Username: principal.Username})
	if err != nil {
		return "", time.Time{}, models.NewInternalError(err)
	}
	return token, expiresAt, nil
}
