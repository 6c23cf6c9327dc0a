package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/mathieu-neron/channelfinder/internal/metrics"
)

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(); Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		m.RequestStarted()
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		m.ObserveRequest(endpoint, method, status, time.Since(start))
		m.RequestFinished()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	const prefix = "/api/channels/"
	if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) || path == prefix+"export" {
		return path
	}
	if strings.HasSuffix(path, "/publish") {
		return prefix + ":id/publish"
	}
	return prefix + ":id"
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler(gatherer prometheus.Gatherer) fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
