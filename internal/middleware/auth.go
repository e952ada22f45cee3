package middleware

import (
	"context"
	"errors"
	"strings"

	"taskhub/internal/models"
	"taskhub/internal/service"
	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

// IdentityResolver memverifikasi access token dan menerjemahkan claim-nya
// menjadi identitas numerik.
type IdentityResolver interface {
	ParseAccessToken(token string) (*service.Claims, error)
	ResolveIdentity(ctx context.Context, claims *service.Claims) (models.Identity, error)
}

// UseToken mewajibkan header "Authorization: Bearer <token>" dan menyimpan
// identitas user di c.Locals untuk handler berikutnya.
func UseToken(auth IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access token required"})
		}
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			logger.SecurityLogger.Warn("Invalid authorization header", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		claims, err := auth.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			logger.SecurityLogger.Warn("Invalid token", zap.String("ip", c.IP()), zap.Error(err))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		identity, err := auth.ResolveIdentity(c.UserContext(), claims)
		if errors.Is(err, models.ErrInvalidToken) {
			logger.SecurityLogger.Warn("Token identity could not be resolved", zap.Error(err))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		if err != nil {
			logger.ErrorLogger.Error("Error resolving identity", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// CurrentIdentity mengambil identitas yang disimpan UseToken.
func CurrentIdentity(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(identityKey).(models.Identity)
	return identity, ok
}

// RequireAdmin hanya meloloskan role admin.
func RequireAdmin(c *fiber.Ctx) error {
	identity, ok := CurrentIdentity(c)
	if !ok || !identity.Role.IsAdmin() {
		logger.SecurityLogger.Warn("Admin access denied", zap.Int64("user_id", identity.ID), zap.String("role", string(identity.Role)))
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
	}
	return c.Next()
}

// RequireUser meloloskan role user dan admin.
func RequireUser(c *fiber.Ctx) error {
	identity, ok := CurrentIdentity(c)
	if !ok || !identity.Role.IsAtLeastUser() {
		logger.SecurityLogger.Warn("User access denied", zap.Int64("user_id", identity.ID), zap.String("role", string(identity.Role)))
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "User access required"})
	}
	return c.Next()
}
