package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

// Version is reported by the readiness endpoint.
var Version = "dev"

// Readiness levels, worst last.
const (
	readyOK          = "healthy"
	readyDegraded    = "degraded"
	readyUnavailable = "unavailable"
)

// ChannelCounter answers with the number of stored channels. It fails when
// Postgres is unreachable or the schema has not been applied.
type ChannelCounter interface {
	Count(ctx context.Context) (int, error)
}

// CacheChecker reports on the optional Redis cache.
type CacheChecker interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// RunStatusReader exposes the discovery engine state.
type RunStatusReader interface {
	Status() model.RunStatus
}

// HealthDeps lists what readiness looks at. Cache and Runs may be nil.
type HealthDeps struct {
	Store ChannelCounter
	Cache CacheChecker
	Runs  RunStatusReader
	// Bot is the username getMe returned at startup, empty if it failed.
	Bot string
}

type HealthHandler struct {
	deps    HealthDeps
	startAt time.Time
}

func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps, startAt: time.Now()}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready. Only a broken channel store makes the
// instance unavailable (503). A down cache or an unconfirmed bot identity
// still serves reads, so those only degrade it.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	level := readyOK
	worsen := func(to string) {
		if to == readyUnavailable || level == readyOK {
			level = to
		}
	}

	store := h.checkStore(ctx)
	if store["status"] != "up" {
		worsen(readyUnavailable)
	}
	cache := h.checkCache(ctx)
	if cache["status"] == "down" {
		worsen(readyDegraded)
	}
	bot := fiber.Map{"status": "unconfirmed"}
	if h.deps.Bot != "" {
		bot = fiber.Map{"status": "up", "bot": "@" + h.deps.Bot}
	} else {
		worsen(readyDegraded)
	}

	status := fiber.StatusOK
	if level == readyUnavailable {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status": level,
		"checks": fiber.Map{
			"store":     store,
			"cache":     cache,
			"telegram":  bot,
			"discovery": h.discovery(),
		},
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	})
}

func (h *HealthHandler) checkStore(ctx context.Context) fiber.Map {
	if h.deps.Store == nil {
		return fiber.Map{"status": "down", "error": "not configured"}
	}
	start := time.Now()
	n, err := h.deps.Store.Count(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return fiber.Map{"status": "down", "latency_ms": latency, "error": "channel store unreachable or not migrated"}
	}
	return fiber.Map{"status": "up", "latency_ms": latency, "channels": n}
}

func (h *HealthHandler) checkCache(ctx context.Context) fiber.Map {
	if h.deps.Cache == nil || !h.deps.Cache.Enabled() {
		return fiber.Map{"status": "disabled"}
	}
	start := time.Now()
	err := h.deps.Cache.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return fiber.Map{"status": "down", "latency_ms": latency, "error": "connection failed"}
	}
	return fiber.Map{"status": "up", "latency_ms": latency}
}

// discovery is informational: a failed last run does not affect readiness.
func (h *HealthHandler) discovery() fiber.Map {
	if h.deps.Runs == nil {
		return fiber.Map{"state": "unknown"}
	}
	st := h.deps.Runs.Status()
	out := fiber.Map{"state": st.State}
	if st.LastErr != "" {
		out["last_error"] = st.LastErr
	}
	if st.LastRun != nil {
		out["last_run_verified"] = st.LastRun.Verified
	}
	return out
}
