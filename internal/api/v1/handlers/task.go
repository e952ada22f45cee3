package handlers

import (
	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/service"
	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const taskNotFound = "Task not found"

// ListTasks menampilkan task milik user yang login, dengan search dan paginasi.
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	page, err := h.Tasks.List(c.UserContext(), id.ID, models.TaskQuery{
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", models.DefaultPageSize),
	})
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(page)
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}
	task, err := h.Tasks.Get(c.UserContext(), id.ID, int64(taskID))
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(fiber.Map{"task": task})
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	var req service.CreateTaskInput
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	task, err := h.Tasks.Create(c.UserContext(), id.ID, req)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Task created successfully",
		"task":    task,
	})
}

// UpdateTask hanya mengubah field yang dikirim.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	patch := models.TaskPatch{Description: req.Description}
	if req.Title != nil {
		patch.Title = *req.Title
	}
	if req.Status != nil {
		patch.Status = models.Status(*req.Status)
	}
	if err := h.Tasks.Update(c.UserContext(), id.ID, int64(taskID), patch); err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(fiber.Map{"message": "Task updated successfully"})
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}
	if err := h.Tasks.Delete(c.UserContext(), id.ID, int64(taskID)); err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}
