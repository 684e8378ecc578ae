package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"stockroom/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type lookupStub struct {
	users map[string]*models.User
	err   error
	calls []string
}

func (s *lookupStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.calls = append(s.calls, username)
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[username]
	if !ok {
		return nil, models.NewNotFoundError("User", nil)
	}
	return u, nil
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	digest, err := HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: uuid.New(), Username: username, PasswordHash: digest}
}

func TestBasicAuthenticator(t *testing.T) {
	jane := newUser(t, "jane@example.com", "skdjfhskdfjhg")
	lookup := &lookupStub{users: map[string]*models.User{jane.Username: jane}}
	a := NewBasicAuthenticator(lookup)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		p, err := a.Authenticate(ctx, basicHeader("jane@example.com", "skdjfhskdfjhg"))
		require.NoError(t, err)
		assert.Equal(t, jane.ID, p.ID)
		assert.Equal(t, jane.Username, p.Username)
	})

	t.Run("username is case-insensitive", func(t *testing.T) {
		p, err := a.Authenticate(ctx, basicHeader("  Jane@Example.COM", "skdjfhskdfjhg"))
		require.NoError(t, err)
		assert.Equal(t, jane.ID, p.ID)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		_, wrongPass := a.Authenticate(ctx, basicHeader("jane@example.com", "nope-nope"))
		_, unknown := a.Authenticate(ctx, basicHeader("ghost@example.com", "skdjfhskdfjhg"))
		assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, ErrInvalidCredentials)
		assert.Equal(t, wrongPass.Error(), unknown.Error())
	})

	t.Run("malformed headers", func(t *testing.T) {
		cases := map[string]string{
			"wrong scheme": "Bearer abc",
			"bad base64":   "Basic %%%",
			"no colon":     "Basic " + base64.StdEncoding.EncodeToString([]byte("janepassword")),
			"empty user":   basicHeader("", "pw"),
			"no payload":   "Basic ",
		}
		for name, header := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := a.Authenticate(ctx, header)
				assert.ErrorIs(t, err, ErrMalformed)
			})
		}
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := a.Authenticate(ctx, "")
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("store failure is not a credential error", func(t *testing.T) {
		failing := NewBasicAuthenticator(&lookupStub{err: errors.New("db down")})
		_, err := failing.Authenticate(ctx, basicHeader("jane@example.com", "x"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, "error", Reason(err))
	})
}

func TestTokenManager(t *testing.T) {
	cfg := TokenConfig{
		Secret:   "test-secret-that-is-long-enough-123",
		Issuer:   "stockroom-api",
		Audience: "stockroom-client",
		TTL:      time.Hour,
	}
	m := NewTokenManager(cfg)
	user := &models.User{ID: uuid.New(), Username: "jane@example.com"}

	token, expiresAt, err := m.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	p, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.ID)
	assert.Equal(t, user.Username, p.Username)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager(cfg)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := cfg
		other.Audience = "someone-else"
		_, err := NewTokenManager(other).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := cfg
		other.Secret = "a-different-secret-also-long-enough"
		_, err := NewTokenManager(other).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none rejected", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": user.ID.String(),
			"iss": cfg.Issuer,
			"aud": cfg.Audience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bearer authenticator", func(t *testing.T) {
		a := NewBearerAuthenticator(m)
		p, err := a.Authenticate(context.Background(), "bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, p.ID)

		_, err = a.Authenticate(context.Background(), basicHeader("a", "b"))
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestCheckPassword(t *testing.T) {
	digest, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", digest)

	ok, err := CheckPassword(digest, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(digest, "battery staple")
	require.NoError(t, err)
	assert.False(t, ok)
}
