package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/internal/middleware"
	"github.com/mathieu-neron/channelfinder/internal/model"
)

// ChannelDumper returns every stored channel.
type ChannelDumper interface {
	All(ctx context.Context) ([]model.Channel, error)
}

type ExportHandler struct {
	store ChannelDumper
	now   func() time.Time
}

func NewExportHandler(store ChannelDumper) *ExportHandler {
	return &ExportHandler{store: store, now: time.Now}
}

// Export handles GET /api/channels/export
// Serves the whole store as a dated JSON attachment. Reads bypass the cache.
func (h *ExportHandler) Export(c fiber.Ctx) error {
	channels, err := h.store.All(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export channels")
	}

	now := h.now().UTC()
	name := "channels-" + now.Format("20060102") + ".json"
	c.Set("Content-Disposition", "attachment; filename="+name)
	return c.JSON(model.ChannelExport{ExportedAt: now, Count: len(channels), Channels: channels})
}
