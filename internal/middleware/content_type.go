package middleware

import (
	"stockroom/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequireJSON rejects bodies that are not declared as application/json.
// It must run before authentication so clients learn about the media type first.
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !c.Is("json") {
			return models.RespondWithError(c, fiber.StatusUnsupportedMediaType,
				models.NewUnsupportedMediaError("Content-Type must be application/json"))
		}
		return c.Next()
	}
}
