package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ImagePresigner issues direct-to-bucket upload URLs.
type ImagePresigner interface {
	GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string) (string, error)
	PublicURL(objectKey string) string
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadHandler struct {
	presigner ImagePresigner
	validate  *validator.Validate
}

// NewUploadHandler accepts a nil presigner when object storage is not
// configured; requests are then answered with 503.
func NewUploadHandler(presigner ImagePresigner) *UploadHandler {
	return &UploadHandler{
		presigner: presigner,
		validate:  newFormValidator(),
	}
}

type ImageUploadRequest struct {
	Kind        string `json:"kind" form:"kind" validate:"required,oneof=avatar header"`
	ContentType string `json:"content_type" form:"content_type" validate:"required,oneof=image/jpeg image/png image/gif image/webp"`
}

func (h *UploadHandler) GetImageUploadURL(c *fiber.Ctx) error {
	if h.presigner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Image uploads are not configured"})
	}

	var req ImageUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request"})
	}
	if err := h.validate.Struct(&req); err != nil {
		fields, _ := fieldErrors(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": fields})
	}

	user := CurrentUser(c)
	objectKey := fmt.Sprintf("users/%d/%s/%s%s", user.ID, req.Kind, uuid.NewString(), imageExtensions[req.ContentType])

	uploadURL, err := h.presigner.GeneratePresignedUploadURL(c.UserContext(), objectKey, req.ContentType)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "presign upload", slog.String("object_key", objectKey), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not generate upload URL"})
	}

	return c.JSON(fiber.Map{
		"upload_url":      uploadURL,
		"final_image_url": h.presigner.PublicURL(objectKey),
		"object_key":      objectKey,
	})
}
