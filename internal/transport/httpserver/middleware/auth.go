package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"watchlist-service/internal/transport/httpserver/dto"
)

const userIDKey = "user_id"

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

// maxUserIDLength matches the watchlist_items.user_id column.
const maxUserIDLength = 64

// RequireUser rejects requests without a user identity in header.
// The identity is set by the fronting auth layer and is trusted as is.
func RequireUser(header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Get(header)
		if user == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "missing user identity",
				Code:  "UNAUTHENTICATED",
			})
		}
		if len(user) > maxUserIDLength {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "user identity too long",
				Code:  "INVALID_USER",
			})
		}

		c.Locals(userIDKey, user)

		return c.Next()
	}
}

// UserID returns the identity stored by RequireUser, or "".
func UserID(c *fiber.Ctx) string {
	user, _ := c.Locals(userIDKey).(string)
	return user
}

// RequireAdminToken rejects requests whose AdminTokenHeader does not match token.
// An empty token disables the protected routes entirely.
func RequireAdminToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "admin access is disabled",
				Code:  "ADMIN_DISABLED",
			})
		}

		given := c.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "invalid admin token",
				Code:  "UNAUTHORIZED",
			})
		}

		return c.Next()
	}
}
