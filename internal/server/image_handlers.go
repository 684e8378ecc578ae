package server

import (
	"errors"
	"fmt"
	"io"

	"stockroom/internal/models"
	"stockroom/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// UploadImage handles POST /v1/product/:id/image (multipart field "file")
func (s *Server) UploadImage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	productID, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return s.respondError(c, models.NewValidationError("file is required"))
		}
		return s.respondError(c, models.NewValidationError("Invalid multipart form"))
	}

	maxBytes := s.imageService.MaxUploadBytes()
	if fileHeader.Size > maxBytes {
		return s.respondError(c, models.NewValidationError(
			fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024))))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	img, err := s.imageService.Upload(c.UserContext(), p, productID, service.UploadImageInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

// ListImages handles GET /v1/product/:id/image
func (s *Server) ListImages(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	productID, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}

	images, err := s.imageService.List(c.UserContext(), p, productID)
	if err != nil {
		return s.respondError(c, err)
	}
	if images == nil {
		images = []models.Image{}
	}
	return c.JSON(images)
}

// GetImage handles GET /v1/product/:id/image/:imageId
func (s *Server) GetImage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	productID, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}
	imageID, err := parseUUID(c, "imageId", "Image")
	if err != nil {
		return s.respondError(c, err)
	}

	img, err := s.imageService.Get(c.UserContext(), p, productID, imageID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(img)
}

// DeleteImage handles DELETE /v1/product/:id/image/:imageId
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return s.respondError(c, err)
	}
	productID, err := parseUUID(c, "id", "Product")
	if err != nil {
		return s.respondError(c, err)
	}
	imageID, err := parseUUID(c, "imageId", "Image")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.imageService.Delete(c.UserContext(), p, productID, imageID); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
