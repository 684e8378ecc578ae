package server

import (
	"time"

	"stockroom/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// TokenResponse is returned by the token exchange.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken handles POST /v1/auth/token
func (s *Server) IssueToken(c *fiber.Ctx) error {
	creds, err := validation.TokenRequest(c.Body())
	if err != nil {
		return s.respondError(c, err)
	}

	token, expiresAt, err := s.tokenService.Issue(c.UserContext(), creds.Username, creds.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(TokenResponse{Token: token, ExpiresAt: expiresAt})
}
