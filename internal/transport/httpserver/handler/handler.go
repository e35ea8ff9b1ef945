// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"watchlist-service/internal/app/service"
	"watchlist-service/internal/domain"
	"watchlist-service/internal/transport/httpserver/dto"
	"watchlist-service/internal/validator"
)

// MovieCatalog serves movie lookups.
// Implementations: service.CatalogService
type MovieCatalog interface {
	Popular(ctx context.Context, limit int) ([]domain.TitleDocument, error)
	Search(ctx context.Context, title string, limit int) ([]json.RawMessage, error)
	Overview(ctx context.Context, id string) (domain.TitleDocument, error)
}

// Watchlist manages per-user watchlists.
// Implementations: service.WatchlistService
type Watchlist interface {
	Add(ctx context.Context, userID, externalID string) (*service.AddResult, error)
	Remove(ctx context.Context, userID, externalID string) (bool, error)
	List(ctx context.Context, userID string) ([]*domain.WatchlistItem, error)
}

// Refresher notifies live clients that movie data changed.
// Implementations: service.BroadcastService
type Refresher interface {
	RefreshMovies(ctx context.Context) error
}

// validationFailed writes a 400 with the validation details.
func validationFailed(c *fiber.Ctx, err error) error {
	var details any
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details = verrs
	}

	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   "validation failed",
		Code:    "VALIDATION_ERROR",
		Details: details,
	})
}

// serviceFailed maps a service error to a response.
// Upstream problems surface as gateway errors; anything else is a 500.
func serviceFailed(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	var (
		authErr     *domain.AuthConfigError
		timeoutErr  *domain.TimeoutError
		upstreamErr *domain.UpstreamError
	)

	switch {
	case errors.As(err, &authErr):
		logger.Error(op+" failed: upstream credential missing", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "movie data provider is not configured",
			Code:  "UPSTREAM_NOT_CONFIGURED",
		})

	case errors.As(err, &timeoutErr):
		logger.Warn(op+" failed: upstream timeout", zap.Error(err))
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{
			Error: "movie data provider timed out",
			Code:  "UPSTREAM_TIMEOUT",
		})

	case errors.As(err, &upstreamErr):
		logger.Warn(op+" failed: upstream error", zap.Int("upstream_status", upstreamErr.StatusCode), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error:   "movie data provider returned an error",
			Code:    "UPSTREAM_ERROR",
			Details: fiber.Map{"status": upstreamErr.StatusCode},
		})

	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "not found",
			Code:  "NOT_FOUND",
		})

	default:
		logger.Error(op+" failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: op + " failed",
			Code:  "INTERNAL_ERROR",
		})
	}
}
