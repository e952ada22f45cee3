package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler memulihkan panic dan mencatat setiap request yang masuk.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.ErrorLogger.Error(fmt.Sprintf("Recovered from panic: %v", r), zap.String("stack", stack))
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Internal server error",
				})
			}
		}()
		err = c.Next()
		logger.RequestLogger.Info("Incoming request",
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
			zap.Int("status", responseStatus(c, err)),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

// responseStatus menebak status akhir response. Error yang dikembalikan
// handler baru ditulis FiberErrorHandler setelah middleware selesai, jadi
// kodenya diambil dari err.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var e *fiber.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return fiber.StatusInternalServerError
}

// FiberErrorHandler dipasang di fiber.Config agar error yang lolos dari
// handler tetap berbentuk {"error": "..."}.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	} else {
		logger.ErrorLogger.Error("Unhandled error", zap.String("url", c.OriginalURL()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
