package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"watchlist-service/internal/transport/httpserver/dto"
)

// AdminHandler handles admin-related HTTP requests.
// Routes must be behind middleware.RequireAdminToken.
type AdminHandler struct {
	refresher Refresher
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(refresher Refresher, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		refresher: refresher,
		logger:    logger,
	}
}

// BroadcastRefresh handles POST /api/v1/admin/broadcast-refresh
func (h *AdminHandler) BroadcastRefresh(c *fiber.Ctx) error {
	h.logger.Info("manual refresh broadcast triggered", zap.String("ip", c.IP()))

	if err := h.refresher.RefreshMovies(c.UserContext()); err != nil {
		return serviceFailed(c, h.logger, "broadcast", err)
	}

	return c.JSON(dto.BroadcastResponse{Sent: true})
}
