package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"watchlist-service/internal/transport/httpserver/dto"
	"watchlist-service/internal/transport/httpserver/middleware"
	"watchlist-service/internal/validator"
)

// WatchlistHandler handles watchlist HTTP requests.
// Routes must be behind middleware.RequireUser.
type WatchlistHandler struct {
	watchlist Watchlist
	validator *validator.Validator
	logger    *zap.Logger
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlist Watchlist, v *validator.Validator, logger *zap.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlist: watchlist,
		validator: v,
		logger:    logger,
	}
}

// List handles GET /api/v1/watchlist
func (h *WatchlistHandler) List(c *fiber.Ctx) error {
	items, err := h.watchlist.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return serviceFailed(c, h.logger, "watchlist list", err)
	}

	return c.JSON(dto.FromWatchlist(items))
}

// Add handles POST /api/v1/watchlist
func (h *WatchlistHandler) Add(c *fiber.Ctx) error {
	var req dto.AddWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	result, err := h.watchlist.Add(c.UserContext(), middleware.UserID(c), req.TConst)
	if err != nil {
		return serviceFailed(c, h.logger, "watchlist add", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AddWatchlistResponse{
		Message: "Added to watchlist",
		Created: result.Created,
		Item:    dto.FromWatchlistItem(result.Item),
	})
}

// Remove handles DELETE /api/v1/watchlist/:id
func (h *WatchlistHandler) Remove(c *fiber.Ctx) error {
	var req dto.TitleRequest
	if err := c.ParamsParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid path parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	removed, err := h.watchlist.Remove(c.UserContext(), middleware.UserID(c), req.ID)
	if err != nil {
		return serviceFailed(c, h.logger, "watchlist remove", err)
	}

	return c.JSON(dto.RemoveWatchlistResponse{Removed: removed})
}
