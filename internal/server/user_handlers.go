package server

import (
	"stockroom/internal/middleware"
	"stockroom/internal/models"
	"stockroom/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateUser handles POST /v1/user
func (s *Server) CreateUser(c *fiber.Ctx) error {
	in, err := validation.NewUser(c.Body())
	if err != nil {
		return s.respondError(c, err)
	}

	user, err := s.userService.Create(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user created", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser handles GET /v1/user/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := parseUUID(c, "id", "User")
	if err != nil {
		return s.respondError(c, err)
	}

	user, err := s.userService.Get(c.UserContext(), p, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /v1/user/:id
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	in, err := validation.UserUpdate(c.Body())
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := parseUUID(c, "id", "User")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.userService.Update(c.UserContext(), p, id, in); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateEmail handles GET /validateEmail?email=&token=
func (s *Server) ValidateEmail(c *fiber.Ctx) error {
	if err := s.verificationService.Consume(c.UserContext(), c.Query("email"), c.Query("token")); err != nil {
		if !models.IsCode(err, models.CodeInternal) {
			middleware.Logger.InfoContext(c.UserContext(), "email verification rejected", "reason", err.Error())
		}
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
