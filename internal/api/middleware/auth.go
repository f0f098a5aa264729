package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/scholaris/scholaris-backend/internal/auth"
)

// AuthConfig holds the auth middleware configuration.
type AuthConfig struct {
	JWT          *auth.JWTService
	APIKeyHashes []string
}

// RequireAuth accepts either a valid JWT bearer token or a configured
// API key in the Authorization header.
func RequireAuth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		if cfg.JWT != nil {
			if claims, err := cfg.JWT.ValidateToken(token); err == nil {
				c.Locals("subject", claims.Subject)
				return c.Next()
			}
		}
		if auth.VerifyAPIKey(cfg.APIKeyHashes, token) {
			return c.Next()
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token",
		})
	}
}
