package handlers

import (
	"mime/multipart"

	"taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

const (
	profileField    = "profilePicture"
	attachmentField = "attachment"
)

// formFile mengembalikan nil jika field tidak ada; service yang menolaknya.
func formFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

func (h *Handler) UploadProfilePicture(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	ref, err := h.Attachments.UploadProfileImage(c.UserContext(), id.ID, formFile(c, profileField))
	if err != nil {
		return respondError(c, err, userNotFound)
	}
	return c.JSON(fiber.Map{
		"message":  "Profile picture uploaded successfully",
		"filePath": ref,
	})
}

func (h *Handler) DeleteProfilePicture(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	if err := h.Attachments.DeleteProfileImage(c.UserContext(), id.ID); err != nil {
		return respondError(c, err, userNotFound)
	}
	return c.JSON(fiber.Map{"message": "Profile picture deleted successfully"})
}

// UploadTaskAttachment boleh dipanggil pemilik task atau admin.
func (h *Handler) UploadTaskAttachment(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	att, err := h.Attachments.UploadTaskAttachment(c.UserContext(), id, int64(taskID), formFile(c, attachmentField))
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(fiber.Map{
		"message":    "File uploaded successfully",
		"attachment": att,
	})
}

func (h *Handler) DeleteTaskAttachment(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return noIdentity(c)
	}
	taskID, err := c.ParamsInt("taskId")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	if err := h.Attachments.DeleteTaskAttachment(c.UserContext(), id, int64(taskID), c.Params("attachmentId")); err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(fiber.Map{"message": "Attachment deleted successfully"})
}
