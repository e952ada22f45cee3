package handlers

import (
	"errors"

	"taskhub/internal/models"
	"taskhub/internal/service"
	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const userNotFound = "User not found"

// ListUsers hanya untuk admin. Akun admin tidak ikut ditampilkan.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	page, err := h.Users.List(c.UserContext(), models.UserQuery{
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", models.DefaultPageSize),
	})
	if err != nil {
		return respondError(c, err, userNotFound)
	}
	return c.JSON(page)
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create user", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.Users.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, userNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

// DeleteUser menghapus user beserta task dan filenya.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	err = h.Users.Delete(c.UserContext(), int64(userID))
	if errors.Is(err, models.ErrForbidden) {
		return errorJSON(c, fiber.StatusForbidden, "Cannot delete admin user")
	}
	if err != nil {
		return respondError(c, err, userNotFound)
	}
	return c.JSON(fiber.Map{"message": "User and associated tasks deleted successfully"})
}
