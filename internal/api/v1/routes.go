package v1

import (
	"taskhub/internal/api/v1/handlers"
	"taskhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BodyLimit sedikit di atas batas attachment supaya file yang terlalu besar
// ditolak oleh service dengan pesan yang jelas, bukan oleh fasthttp.
const BodyLimit = 52 * 1024 * 1024

// NewApp membuat fiber.App dengan error handler yang menghasilkan {"error": "..."}.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: middleware.FiberErrorHandler,
		BodyLimit:    BodyLimit,
	})
}

func RegisterRoutes(app *fiber.App, h *handlers.Handler, auth middleware.IdentityResolver, storageRoot string) {
	app.Static("/storage", storageRoot)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", middleware.Metrics())
	api.Get("/health", handlers.Health)

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", h.Signup)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)
	authRoutes.Post("/logout", middleware.UseToken(auth), h.Logout)

	// Task
	taskRoutes := api.Group("/tasks", middleware.UseToken(auth), middleware.RequireUser)
	taskRoutes.Get("/", h.ListTasks)
	taskRoutes.Post("/", h.CreateTask)
	taskRoutes.Get("/:id", h.GetTask)
	taskRoutes.Put("/:id", h.UpdateTask)
	taskRoutes.Delete("/:id", h.DeleteTask)

	// User (admin)
	userRoutes := api.Group("/users", middleware.UseToken(auth), middleware.RequireAdmin)
	userRoutes.Get("/", h.ListUsers)
	userRoutes.Post("/", h.CreateUser)
	userRoutes.Delete("/:id", h.DeleteUser)

	// File Upload
	uploadRoutes := api.Group("/upload", middleware.UseToken(auth))
	uploadRoutes.Post("/profile", h.UploadProfilePicture)
	uploadRoutes.Delete("/profile", h.DeleteProfilePicture)
	uploadRoutes.Post("/task/:taskId", h.UploadTaskAttachment)
	uploadRoutes.Delete("/task/:taskId/:attachmentId", h.DeleteTaskAttachment)
}
