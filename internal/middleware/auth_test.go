package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAuthenticator struct{}

func (failingAuthenticator) Scheme() string { return "Basic" }

func (failingAuthenticator) Authenticate(context.Context, string) (*auth.Principal, error) {
	return nil, errors.New("connection refused")
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:   "test-secret-key-12345678901234567890123456789012",
		Issuer:   "stockroom-api",
		Audience: "stockroom-client",
		TTL:      time.Hour,
	})
	user := &models.User{ID: uuid.New(), Username: "jane@example.com"}
	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", AuthRequired(auth.NewBearerAuthenticator(tokens)), func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(fiber.Map{"userID": p.ID.String(), "local": c.Locals(LocalUserID)})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + token, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Wrong Scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Tampered Token", "Bearer " + token + "x", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, user.ID.String(), body["userID"])
				assert.Equal(t, user.ID.String(), body["local"])
			} else {
				assert.True(t, strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Bearer realm="))
			}
		})
	}
}

func TestAuthRequired_LookupFailure(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(failingAuthenticator{}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("WWW-Authenticate"))
}

func TestRequireJSON(t *testing.T) {
	app := fiber.New()
	app.Post("/test", RequireJSON(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	tests := []struct {
		contentType string
		status      int
	}{
		{"application/json", http.StatusCreated},
		{"application/json; charset=utf-8", http.StatusCreated},
		{"text/plain", http.StatusUnsupportedMediaType},
		{"", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
