package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mathieu-neron/channelfinder/internal/handler"
	"github.com/mathieu-neron/channelfinder/internal/metrics"
	"github.com/mathieu-neron/channelfinder/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Channel   *handler.ChannelHandler
	Discovery *handler.DiscoveryHandler
	Stats     *handler.StatsHandler
	Export    *handler.ExportHandler
	Health    *handler.HealthHandler
}

// Options configures the middleware stack.
type Options struct {
	CORSOrigins string
	AdminToken  string
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, opts Options) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(handler.MetricsMiddleware(opts.Metrics))
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(opts.CORSOrigins))

	// Probes and metrics (outside the API group, no auth)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	if opts.Gatherer != nil {
		app.Get("/metrics", handler.MetricsHandler(opts.Gatherer))
	}

	api := app.Group("/api")
	admin := middleware.RequireAdminToken(opts.AdminToken)

	// Read routes
	read := middleware.NewReadRateLimiter().Handler()
	api.Get("/channels", read, h.Channel.List)
	api.Get("/channels/export", middleware.NewStatsRateLimiter().Handler(), h.Export.Export)
	api.Get("/channels/:id", read, h.Channel.GetByID)
	api.Get("/categories", read, h.Channel.Categories)
	api.Get("/stats", middleware.NewStatsRateLimiter().Handler(), h.Stats.GetStats)

	// Operator routes
	api.Post("/channels", admin, middleware.NewManualAddRateLimiter().Handler(), h.Channel.Add)
	api.Post("/channels/:id/publish", admin, middleware.NewPublishRateLimiter().Handler(), h.Channel.Publish)

	// Discovery routes
	sweeps := middleware.NewDiscoveryRateLimiter().Handler()
	api.Post("/discovery/topic", admin, sweeps, h.Discovery.TopicSweep)
	api.Post("/discovery/popular", admin, sweeps, h.Discovery.PopularSweep)
	api.Get("/discovery/status", read, h.Discovery.Status)
}
