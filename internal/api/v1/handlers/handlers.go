package handlers

import (
	"errors"

	"taskhub/internal/models"
	"taskhub/internal/service"
	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler mengumpulkan service yang dipakai route HTTP.
type Handler struct {
	Auth        *service.AuthService
	Tasks       *service.TaskService
	Attachments *service.AttachmentService
	Users       *service.UserService
}

func New(auth *service.AuthService, tasks *service.TaskService, attachments *service.AttachmentService, users *service.UserService) *Handler {
	return &Handler{Auth: auth, Tasks: tasks, Attachments: attachments, Users: users}
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// respondError menerjemahkan error domain menjadi status HTTP.
// notFound adalah pesan untuk ErrNotFound di endpoint tersebut.
func respondError(c *fiber.Ctx, err error, notFound string) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, models.ErrDuplicateUsername):
		return errorJSON(c, fiber.StatusBadRequest, "Username already exists")
	case errors.Is(err, models.ErrDuplicateEmail):
		return errorJSON(c, fiber.StatusBadRequest, "Email already exists")
	case errors.Is(err, models.ErrNoFile):
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded")
	case errors.Is(err, models.ErrNothingToDelete):
		return errorJSON(c, fiber.StatusBadRequest, "No profile picture to delete")
	case errors.Is(err, models.ErrFileTooLarge):
		return errorJSON(c, fiber.StatusBadRequest, "File too large")
	case errors.Is(err, models.ErrInvalidCredentials):
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, models.ErrMissingToken):
		return errorJSON(c, fiber.StatusUnauthorized, "Token required")
	case errors.Is(err, models.ErrInvalidToken):
		return errorJSON(c, fiber.StatusForbidden, "Invalid or expired token")
	case errors.Is(err, models.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, "Access denied")
	case errors.Is(err, models.ErrAttachmentNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Attachment not found")
	case errors.Is(err, models.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, notFound)
	}
	logger.ErrorLogger.Error("Request failed",
		zap.String("method", c.Method()),
		zap.String("url", c.OriginalURL()),
		zap.Error(err),
	)
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

// noIdentity dipakai jika route terpasang tanpa UseToken.
func noIdentity(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusUnauthorized, "Access token required")
}

// Health dipakai load balancer untuk cek liveness.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "OK",
		"message": "Server is running",
	})
}
