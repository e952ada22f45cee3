package handlers

import (
	"errors"
	"strings"

	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/service"
	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Signup mendaftarkan user baru dengan role user.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in signup", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.Auth.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, "User not found")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	session, err := h.Auth.Authenticate(c.UserContext(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return respondError(c, err, "User not found")
	}
	return c.JSON(session)
}

// Refresh menukar refresh token dengan access token baru.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	// body kosong atau rusak diperlakukan sama dengan token yang tidak dikirim
	_ = c.BodyParser(&req)

	access, err := h.Auth.RotateAccessToken(c.UserContext(), strings.TrimSpace(req.RefreshToken))
	switch {
	case errors.Is(err, models.ErrMissingToken):
		return errorJSON(c, fiber.StatusUnauthorized, "Refresh token required")
	case errors.Is(err, models.ErrInvalidToken):
		return errorJSON(c, fiber.StatusForbidden, "Invalid refresh token")
	case err != nil:
		return respondError(c, err, "User not found")
	}
	return c.JSON(fiber.Map{"accessToken": access})
}

// Logout menghapus session aktif sehingga refresh token lama ditolak.
func (h *Handler) Logout(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	if err := h.Auth.EndSession(c.UserContext(), id.ID); err != nil {
		return respondError(c, err, "User not found")
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
