package middleware

import (
	"errors"
	"log/slog"

	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const realm = "stockroom"

// AuthRequired resolves the Authorization header into a principal and stores it
// in locals. Credential failures answer 401 with a challenge for the active scheme.
func AuthRequired(authenticator auth.Authenticator) fiber.Handler {
	challenge := authenticator.Scheme() + ` realm="` + realm + `"`

	return func(c *fiber.Ctx) error {
		principal, err := authenticator.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			reason := auth.Reason(err)
			observability.AuthFailures.WithLabelValues(authenticator.Scheme(), reason).Inc()

			if reason == "error" {
				Logger.ErrorContext(c.UserContext(), "authentication lookup failed", slog.String("error", err.Error()))
				return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
			}

			c.Set(fiber.HeaderWWWAuthenticate, challenge)
			return models.RespondWithError(c, fiber.StatusUnauthorized, unauthorizedError(err))
		}

		c.Locals(LocalPrincipal, principal)
		c.Locals(LocalUserID, principal.ID.String())
		c.SetUserContext(WithUserID(c.UserContext(), principal.ID.String()))

		return c.Next()
	}
}

func unauthorizedError(err error) *models.AppError {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return models.NewUnauthorizedError("Authorization required")
	case errors.Is(err, auth.ErrInvalidToken):
		return models.NewUnauthorizedError("Invalid or expired token")
	default:
		return models.NewUnauthorizedError("Invalid credentials")
	}
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (*auth.Principal, bool) {
	p, ok := c.Locals(LocalPrincipal).(*auth.Principal)
	return p, ok && p != nil
}
