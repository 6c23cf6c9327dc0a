package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/internal/middleware"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/repository"
	"github.com/mathieu-neron/channelfinder/internal/service"
)

// ChannelReader serves the channel read endpoints.
type ChannelReader interface {
	List(ctx context.Context, category model.Category, limit int) (*model.ChannelListResponse, error)
	Get(ctx context.Context, id int64) (*model.Channel, error)
	Categories(ctx context.Context) ([]model.CategoryInfo, error)
}

// ManualAdder verifies and stores a single identifier.
type ManualAdder interface {
	AddManual(ctx context.Context, identifier string) (*model.Channel, error)
}

// Publisher posts a stored channel to the target channel.
type Publisher interface {
	Publish(ctx context.Context, id int64) (*model.Channel, error)
	Target() string
}

type ChannelHandler struct {
	channels  ChannelReader
	adder     ManualAdder
	publisher Publisher
}

func NewChannelHandler(channels ChannelReader, adder ManualAdder, publisher Publisher) *ChannelHandler {
	return &ChannelHandler{channels: channels, adder: adder, publisher: publisher}
}

// List handles GET /api/channels?category=&limit=
func (h *ChannelHandler) List(c fiber.Ctx) error {
	category, errMsg := middleware.ValidateCategory(fiber.Query[string](c, "category"), false)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	limit, errMsg := middleware.ValidateLimit(fiber.Query[string](c, "limit"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.channels.List(c.Context(), model.Category(category), limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list channels")
	}
	return c.JSON(resp)
}

// GetByID handles GET /api/channels/:id
func (h *ChannelHandler) GetByID(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateChannelID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ch, err := h.channels.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup channel")
	}
	return c.JSON(ch)
}

// Categories handles GET /api/categories
func (h *ChannelHandler) Categories(c fiber.Ctx) error {
	cats, err := h.channels.Categories(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list categories")
	}
	return c.JSON(fiber.Map{"categories": cats})
}

// Add handles POST /api/channels
func (h *ChannelHandler) Add(c fiber.Ctx) error {
	var req model.AddChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	identifier, errMsg := middleware.ValidateIdentifier(req.Identifier)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ch, err := h.adder.AddManual(c.Context(), identifier)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRunInProgress):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "RUN_IN_PROGRESS", "A discovery run is in progress, try again later")
		case errors.Is(err, service.ErrNotVerified):
			return middleware.ErrorResponse(c, fiber.StatusUnprocessableEntity, "NOT_VERIFIED", "Identifier is not a public channel or supergroup")
		default:
			return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "Verification failed, try again later")
		}
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

// Publish handles POST /api/channels/:id/publish
func (h *ChannelHandler) Publish(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateChannelID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ch, err := h.publisher.Publish(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrChannelNotFound):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		case errors.Is(err, service.ErrNoTarget):
			return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "NO_TARGET", "No target channel configured")
		default:
			return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "Failed to send the post; check the bot is an admin of the target channel")
		}
	}
	return c.JSON(model.PublishResponse{Channel: ch, Target: h.publisher.Target()})
}
