package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

// StatsReader returns aggregate channel statistics.
type StatsReader interface {
	Stats(ctx context.Context) (*model.StatsResponse, error)
}

type StatsHandler struct {
	svc StatsReader
}

func NewStatsHandler(svc StatsReader) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.svc.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch statistics",
			},
		})
	}

	return c.JSON(stats)
}
