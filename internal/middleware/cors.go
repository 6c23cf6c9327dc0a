package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// NewCORS returns the CORS middleware for the API. corsOrigins is a
// comma-separated list; empty or "*" allows any origin. The admin token
// header is allowed so an operator dashboard can start sweeps.
func NewCORS(corsOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  splitOrigins(corsOrigins),
		AllowMethods:  []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions},
		AllowHeaders:  []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, AdminTokenHeader},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", fiber.HeaderRetryAfter},
		MaxAge:        86400,
	})
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		return []string{"*"}
	}
	return origins
}
