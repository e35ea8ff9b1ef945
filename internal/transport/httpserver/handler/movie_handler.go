package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"watchlist-service/internal/transport/httpserver/dto"
	"watchlist-service/internal/validator"
)

// MovieHandler handles movie lookup HTTP requests.
type MovieHandler struct {
	catalog   MovieCatalog
	validator *validator.Validator
	logger    *zap.Logger
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(catalog MovieCatalog, v *validator.Validator, logger *zap.Logger) *MovieHandler {
	return &MovieHandler{
		catalog:   catalog,
		validator: v,
		logger:    logger,
	}
}

// Popular handles GET /api/v1/movies/popular
func (h *MovieHandler) Popular(c *fiber.Ctx) error {
	var req dto.PopularRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	docs, err := h.catalog.Popular(c.UserContext(), req.EffectiveLimit())
	if err != nil {
		return serviceFailed(c, h.logger, "popular lookup", err)
	}

	return c.JSON(dto.NewPopularResponse(docs))
}

// Search handles GET /api/v1/movies/search
func (h *MovieHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	results, err := h.catalog.Search(c.UserContext(), req.Title, req.EffectiveLimit())
	if err != nil {
		return serviceFailed(c, h.logger, "search", err)
	}

	return c.JSON(dto.NewSearchResponse(results))
}

// Overview handles GET /api/v1/movies/:id/overview
func (h *MovieHandler) Overview(c *fiber.Ctx) error {
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

	doc, err := h.catalog.Overview(c.UserContext(), req.ID)
	if err != nil {
		return serviceFailed(c, h.logger, "overview lookup", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(doc)
}
