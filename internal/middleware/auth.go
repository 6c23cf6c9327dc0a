package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"
)

// AdminTokenHeader carries the operator token on mutating routes.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken rejects requests whose X-Admin-Token does not match
// token. An empty token disables the check (local development).
func RequireAdminToken(token string) fiber.Handler {
	want := []byte(token)
	return func(c fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		got := []byte(c.Get(AdminTokenHeader))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid admin token")
		}
		return c.Next()
	}
}
