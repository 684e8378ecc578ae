package server

import (
	"stockroom/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateProduct handles POST /v1/product
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}

	in, err := validation.NewProduct(c.Body())
	if err != nil {
		return s.respondError(c, err)
	}

	product, err := s.productService.Create(c.UserContext(), p, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// GetProduct handles GET /v1/product/:id. Products are publicly readable.
func (s *Server) GetProduct(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}

	product, err := s.productService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(product)
}

// ReplaceProduct handles PUT /v1/product/:id. The body is checked before
// the id so a malformed request is a 400 whatever it targets.
func (s *Server) ReplaceProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	in, err := validation.NewProduct(c.Body())
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.productService.Replace(c.UserContext(), p, id, in); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PatchProduct handles PATCH /v1/product/:id
func (s *Server) PatchProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	patch, err := validation.ProductPatch(c.Body())
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.productService.Patch(c.UserContext(), p, id, patch); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteProduct handles DELETE /v1/product/:id. Images go with it.
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.productService.Delete(c.UserContext(), p, id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
