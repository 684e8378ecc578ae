package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"stockroom/internal/models"
)

// BasicAuthenticator verifies HTTP Basic credentials against stored digests.
type BasicAuthenticator struct {
	users UserLookup
}

func NewBasicAuthenticator(users UserLookup) *BasicAuthenticator {
	return &BasicAuthenticator{users: users}
}

func (a *BasicAuthenticator) Scheme() string { return "Basic" }

func (a *BasicAuthenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	encoded, err := splitHeader(header, "Basic")
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformed
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok || username == "" {
		return nil, ErrMalformed
	}

	return a.Verify(ctx, username, password)
}

// Verify checks a username/password pair. Unknown users and wrong passwords
// return the same ErrInvalidCredentials.
func (a *BasicAuthenticator) Verify(ctx context.Context, username, password string) (*Principal, error) {
	user, err := a.users.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			burnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return &Principal{ID: user.ID, Username: user.Username}, nil
}
