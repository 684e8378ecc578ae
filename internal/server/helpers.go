package server

import (
	"log/slog"

	"stockroom/internal/auth"
	"stockroom/internal/middleware"
	"stockroom/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// parseUUID reads a route parameter. Identifiers that are not UUIDs cannot
// name an existing resource, so they are reported as not found.
func parseUUID(c *fiber.Ctx, param, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, models.NewNotFoundError(resource, nil)
	}
	return id, nil
}

// principal returns the authenticated caller. Routes using it sit behind AuthRequired.
func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	return p, nil
}

// respondError writes err as the standard error body. Internal faults are
// logged with the request context and never leak details.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	if appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, appErr.Status(), appErr)
}
