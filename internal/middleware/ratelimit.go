package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/pkg/hash"
)

// pruneEvery bounds how often expired windows are dropped.
const pruneEvery = 5 * time.Minute

// RateLimitConfig defines the limit for a route or group.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	// KeyFn picks the budget a request is charged to (client IP, operator token).
	KeyFn func(c fiber.Ctx) string
}

type window struct {
	used    int
	resetAt time.Time
}

// RateLimiter is an in-memory fixed-window limiter. Expired windows are
// pruned on the request path, so an idle limiter holds no goroutine.
type RateLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	nextPrune time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFn == nil {
		cfg.KeyFn = KeyByIP
	}
	return &RateLimiter{
		config:  cfg,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Handler returns a Fiber middleware that enforces the limit and reports
// the budget in X-RateLimit-* headers.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		remaining, resetAt := rl.take(rl.config.KeyFn(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if remaining >= 0 {
			return c.Next()
		}
		retryAfter := int(resetAt.Sub(rl.now()).Seconds()) + 1
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":       "RATE_LIMITED",
				"message":    "Too many requests. Try again in " + strconv.Itoa(retryAfter) + " seconds.",
				"retryAfter": retryAfter,
			},
		})
	}
}

// Allow charges one request to key and reports whether it fits the budget.
func (rl *RateLimiter) Allow(key string) bool {
	remaining, _ := rl.take(key)
	return remaining >= 0
}

// take charges one request and returns the remaining budget (negative once
// exceeded) and the end of the current window.
func (rl *RateLimiter) take(key string) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.After(rl.nextPrune) {
		for k, w := range rl.windows {
			if now.After(w.resetAt) {
				delete(rl.windows, k)
			}
		}
		rl.nextPrune = now.Add(pruneEvery)
	}

	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(rl.config.Window)}
		rl.windows[key] = w
	}
	w.used++
	return rl.config.Max - w.used, w.resetAt
}

// KeyByIP charges requests to the client IP.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByAdminToken charges requests to a hash of the operator token, falling
// back to the client IP when the header is absent.
func KeyByAdminToken(c fiber.Ctx) string {
	if tok := c.Get(AdminTokenHeader); tok != "" {
		return "admin:" + hash.ForLog(tok)
	}
	return KeyByIP(c)
}

func perMinute(n int, key func(fiber.Ctx) string) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: n, Window: time.Minute, KeyFn: key})
}

// NewReadRateLimiter allows 100 listing/lookup requests per minute per IP.
func NewReadRateLimiter() *RateLimiter { return perMinute(100, KeyByIP) }

// NewStatsRateLimiter allows 10 aggregate or export requests per minute per IP.
func NewStatsRateLimiter() *RateLimiter { return perMinute(10, KeyByIP) }

// NewDiscoveryRateLimiter allows 2 sweep starts per minute per operator.
func NewDiscoveryRateLimiter() *RateLimiter { return perMinute(2, KeyByAdminToken) }

// NewManualAddRateLimiter allows 10 manual adds per minute per operator.
func NewManualAddRateLimiter() *RateLimiter { return perMinute(10, KeyByAdminToken) }

// NewPublishRateLimiter allows 5 posts per minute per operator.
func NewPublishRateLimiter() *RateLimiter { return perMinute(5, KeyByAdminToken) }
