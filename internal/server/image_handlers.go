package server

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/service"
)

// UploadImage handles POST /api/images: a multipart form with an "image"
// field. The upload is re-encoded and deduplicated; re-uploading the same
// bytes returns the existing record.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing image file"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}

	img, err := s.imageService.Upload(c.Context(), service.UploadImageInput{
		UserID:      userID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

// ServeImage handles GET /media/i/:hash. Hashes are content-addressed, so the
// response is cacheable forever.
func (s *Server) ServeImage(c *fiber.Ctx) error {
	hash := strings.TrimSuffix(c.Params("hash"), ".webp")

	_, path, err := s.imageService.ResolveForServing(c.Context(), hash)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "image/webp")
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendFile(path)
}
