package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/internal/discovery"
	"github.com/mathieu-neron/channelfinder/internal/middleware"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/service"
)

const statusPath = "/api/discovery/status"

// RunStarter schedules discovery runs and reports their state.
type RunStarter interface {
	StartTopicSweep(ctx context.Context, category string) (string, error)
	StartPopularSweep(ctx context.Context) (string, error)
	Status() model.RunStatus
}

// DiscoveryHandler starts background runs. Runs are bound to runCtx, the
// server lifetime, not to the request that started them.
type DiscoveryHandler struct {
	svc    RunStarter
	runCtx context.Context
}

func NewDiscoveryHandler(runCtx context.Context, svc RunStarter) *DiscoveryHandler {
	return &DiscoveryHandler{svc: svc, runCtx: runCtx}
}

// TopicSweep handles POST /api/discovery/topic
func (h *DiscoveryHandler) TopicSweep(c fiber.Ctx) error {
	var req model.TopicSweepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	category, errMsg := middleware.ValidateCategory(req.Category, true)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	runID, err := h.svc.StartTopicSweep(h.runCtx, category)
	return h.accepted(c, runID, err)
}

// PopularSweep handles POST /api/discovery/popular
func (h *DiscoveryHandler) PopularSweep(c fiber.Ctx) error {
	runID, err := h.svc.StartPopularSweep(h.runCtx)
	return h.accepted(c, runID, err)
}

// Status handles GET /api/discovery/status
func (h *DiscoveryHandler) Status(c fiber.Ctx) error {
	return c.JSON(h.svc.Status())
}

func (h *DiscoveryHandler) accepted(c fiber.Ctx, runID string, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRunInProgress):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "RUN_IN_PROGRESS", "A discovery run is already in progress")
		case errors.Is(err, discovery.ErrUnknownCategory):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CATEGORY", err.Error())
		case errors.Is(err, service.ErrEmptyCandidates):
			return middleware.ErrorResponse(c, fiber.StatusUnprocessableEntity, "NO_CANDIDATES", "The catalog produced no candidates")
		default:
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start discovery run")
		}
	}
	return c.Status(fiber.StatusAccepted).JSON(model.RunAccepted{RunID: runID, StatusURL: statusPath})
}
