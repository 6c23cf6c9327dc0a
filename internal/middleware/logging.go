package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelfinder/pkg/hash"
)

// Logger is the package-level zerolog logger used throughout the application.
var Logger zerolog.Logger

// InitLogger sets up the global zerolog logger with structured JSON output.
// Level is parsed from the given string (e.g. "debug", "info", "warn", "error").
func InitLogger(level, service string) {
	setLevel(level)
	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// InitConsoleLogger is InitLogger for interactive use: human-readable
// output on stderr so stdout stays free for command results.
func InitConsoleLogger(level, service string) {
	setLevel(level)
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().
		Timestamp().
		Str("service", service).
		Logger()
}

func setLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true
}

// sanitizePath replaces numeric channel ids with a placeholder so log
// lines group by route.
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := range parts {
		if i == 0 {
			continue
		}
		if parts[i-1] == "channels" && parts[i] != "" && parts[i] != "export" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// NewRequestLogger returns a Fiber middleware that logs each request as
// structured JSON via zerolog. Raw IPs are hashed.
func NewRequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		evt := Logger.Info()
		if status >= 500 {
			evt = Logger.Error()
		} else if status >= 400 {
			evt = Logger.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", sanitizePath(c.Path())).
			Int("status", status).
			Dur("duration_ms", duration).
			Str("ip_hash", hash.ForLog(c.IP())).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}
