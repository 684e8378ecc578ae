package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockroom/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenConfig configures HMAC-signed access tokens.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies access tokens.
type TokenManager struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenManager(cfg TokenConfig) *TokenManager {
	return &TokenManager{cfg: cfg, now: time.Now}
}

// Issue signs a token for user and returns it with its expiry.
func (m *TokenManager) Issue(user *models.User) (string, time.Time, error) {
	if m.cfg.Secret == "" {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}

	now := m.now()
	expiresAt := now.Add(m.cfg.TTL)
	c := claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, expiry, issuer and audience.
func (m *TokenManager) Parse(tokenString string) (*Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c,
		func(_ *jwt.Token) (any, error) { return []byte(m.cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Principal{ID: id, Username: c.Username}, nil
}

// BearerAuthenticator verifies "Authorization: Bearer <jwt>" headers.
type BearerAuthenticator struct {
	tokens *TokenManager
}

func NewBearerAuthenticator(tokens *TokenManager) *BearerAuthenticator {
	return &BearerAuthenticator{tokens: tokens}
}

func (a *BearerAuthenticator) Scheme() string { return "Bearer" }

func (a *BearerAuthenticator) Authenticate(_ context.Context, header string) (*Principal, error) {
	tokenString, err := splitHeader(header, "Bearer")
	if err != nil {
		return nil, err
	}
	return a.tokens.Parse(tokenString)
}
