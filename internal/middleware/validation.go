package middleware

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

// Field length limits matching database schema constraints.
const (
	MinIdentifierLen = 3
	MaxIdentifierLen = 64 // channels.identifier VARCHAR(64)
	MaxCategoryLen   = 20 // channels.category VARCHAR(20)

	DefaultListLimit = 10
	MaxListLimit     = 100
)

var (
	// identifierRe matches Telegram usernames after normalization.
	identifierRe = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateIdentifier normalizes a username, @username or t.me link and
// checks it is a plausible Telegram username.
func ValidateIdentifier(raw string) (string, string) {
	id := model.NormalizeIdentifier(raw)
	if id == "" {
		return "", "identifier is required"
	}
	if len(id) < MinIdentifierLen {
		return "", "identifier must be at least 3 characters"
	}
	if len(id) > MaxIdentifierLen {
		return "", "identifier must be at most 64 characters"
	}
	if !identifierRe.MatchString(id) {
		return "", "identifier contains invalid characters"
	}
	return id, ""
}

// ValidateCategory checks a category key. allowAll admits the "all" wildcard.
func ValidateCategory(raw string, allowAll bool) (string, string) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return "", "category is required"
	}
	if len(c) > MaxCategoryLen {
		return "", "category must be at most 20 characters"
	}
	if allowAll && c == "all" {
		return c, ""
	}
	if !model.Category(c).Valid() {
		return "", "unknown category"
	}
	return c, ""
}

// ValidateChannelID parses a numeric channel id path parameter.
func ValidateChannelID(raw string) (int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "id is required"
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, "id must be a positive integer"
	}
	return id, ""
}

// ValidateLimit parses an optional limit query parameter and clamps it to
// [1, MaxListLimit]. Empty or zero means DefaultListLimit.
func ValidateLimit(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultListLimit, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, "limit must be a non-negative integer"
	}
	switch {
	case n == 0:
		return DefaultListLimit, ""
	case n > MaxListLimit:
		return MaxListLimit, ""
	}
	return n, ""
}
