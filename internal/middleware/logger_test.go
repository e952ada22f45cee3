package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeRequests(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := logger.RequestLogger
	logger.RequestLogger = zap.New(core)
	t.Cleanup(func() { logger.RequestLogger = prev })
	return logs
}

func TestErrorHandlerLogsFinalStatus(t *testing.T) {
	logs := observeRequests(t)

	app := fiber.New(fiber.Config{ErrorHandler: FiberErrorHandler})
	app.Use(ErrorHandler())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "Task not found") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	cases := []struct {
		path string
		want int
	}{
		{"/ok", fiber.StatusCreated},
		{"/missing", fiber.StatusNotFound},
		{"/boom", fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.want, resp.StatusCode, tc.path)
	}

	entries := logs.FilterMessage("Incoming request").AllUntimed()
	require.Len(t, entries, len(cases))
	for i, tc := range cases {
		fields := entries[i].ContextMap()
		assert.Equal(t, tc.path, fields["url"])
		assert.EqualValues(t, tc.want, fields["status"], tc.path)
	}
}
