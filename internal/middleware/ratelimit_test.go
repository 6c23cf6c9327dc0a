package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
)

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Max:    5,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})

	for i := 0; i < 5; i++ {
		if !rl.Allow("test-ip") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_BlocksAfterMax(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Max:    3,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})

	for i := 0; i < 3; i++ {
		rl.Allow("test-ip")
	}

	if rl.Allow("test-ip") {
		t.Fatal("4th request should be blocked")
	}
}

func TestRateLimiter_DifferentKeysIndependent(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Max:    2,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})

	rl.Allow("ip-a")
	rl.Allow("ip-a")

	// ip-a is exhausted
	if rl.Allow("ip-a") {
		t.Fatal("ip-a should be blocked")
	}

	// ip-b should still be allowed
	if !rl.Allow("ip-b") {
		t.Fatal("ip-b should be allowed (independent key)")
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	rl.now = func() time.Time { return now }

	rl.Allow("test")
	rl.Allow("test")
	if rl.Allow("test") {
		t.Fatal("should be blocked within window")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("test") {
		t.Fatal("should be allowed after window reset")
	}
}

func TestRateLimiter_PrunesExpiredWindows(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	now = now.Add(pruneEvery + time.Second)
	rl.Allow("c")

	if len(rl.windows) != 1 {
		t.Fatalf("expected only the fresh window to remain, got %d", len(rl.windows))
	}
}

func TestRateLimiter_HandlerSetsHeaders(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute, KeyFn: func(fiber.Ctx) string { return "k" }})
	app := fiber.New()
	app.Get("/", rl.Handler(), func(c fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK || resp.Header.Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("first request: status %d remaining %q", resp.StatusCode, resp.Header.Get("X-RateLimit-Remaining"))
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimiter_ReadConfig(t *testing.T) {
	rl := NewReadRateLimiter()
	for i := 0; i < 100; i++ {
		if !rl.Allow("ip:127.0.0.1") {
			t.Fatalf("read request %d should be allowed (max 100)", i+1)
		}
	}
	if rl.Allow("ip:127.0.0.1") {
		t.Fatal("101st read request should be blocked")
	}
}

func TestRateLimiter_ManualAddConfig(t *testing.T) {
	rl := NewManualAddRateLimiter()
	for i := 0; i < 10; i++ {
		if !rl.Allow("admin:abc123") {
			t.Fatalf("manual add request %d should be allowed (max 10)", i+1)
		}
	}
	if rl.Allow("admin:abc123") {
		t.Fatal("11th manual add should be blocked")
	}
}

func TestRateLimiter_PublishConfig(t *testing.T) {
	rl := NewPublishRateLimiter()
	for i := 0; i < 5; i++ {
		if !rl.Allow("admin:abc123") {
			t.Fatalf("publish request %d should be allowed (max 5)", i+1)
		}
	}
	if rl.Allow("admin:abc123") {
		t.Fatal("6th publish should be blocked")
	}
}

func TestRateLimiter_DiscoveryConfig(t *testing.T) {
	rl := NewDiscoveryRateLimiter()
	for i := 0; i < 2; i++ {
		if !rl.Allow("admin:abc123") {
			t.Fatalf("discovery request %d should be allowed (max 2)", i+1)
		}
	}
	if rl.Allow("admin:abc123") {
		t.Fatal("3rd discovery request should be blocked")
	}
}

func TestRateLimiter_StatsConfig(t *testing.T) {
	rl := NewStatsRateLimiter()
	for i := 0; i < 10; i++ {
		if !rl.Allow("ip:127.0.0.1") {
			t.Fatalf("stats request %d should be allowed (max 10)", i+1)
		}
	}
	if rl.Allow("ip:127.0.0.1") {
		t.Fatal("11th stats request should be blocked")
	}
}
