// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"watchlist-service/internal/domain"
	"watchlist-service/internal/transport/httpserver/dto"
	"watchlist-service/internal/transport/httpserver/handler"
	"watchlist-service/internal/transport/httpserver/middleware"
	"watchlist-service/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port       int
	BodyLimit  int
	UserHeader string // identity header set by the fronting auth layer
	AdminToken string
	// Views renders the dashboard. Nil disables the /dashboard route.
	Views fiber.Views
}

// Services are the application use cases exposed over HTTP.
type Services struct {
	Catalog   handler.MovieCatalog
	Watchlist handler.Watchlist
	Refresher handler.Refresher
	Hub       handler.Subscriber
	// Readiness dependencies pinged by /readyz.
	Readiness []middleware.Pinger
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg ServerConfig, svc Services, v *validator.Validator, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "watchlist-service",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(logger),
		Views:        cfg.Views,
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// for Kubernetes probes to work even during high load
	app.Use(middleware.NewHealthCheck(svc.Readiness...))

	// Global middleware
	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(middleware.CORS(cfg.UserHeader))
	app.Use(compress.New(compress.Config{
		// Socket upgrades carry no body to compress.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/ws/")
		},
	}))

	movieHandler := handler.NewMovieHandler(svc.Catalog, v, logger)
	watchlistHandler := handler.NewWatchlistHandler(svc.Watchlist, v, logger)
	adminHandler := handler.NewAdminHandler(svc.Refresher, logger)
	realtimeHandler := handler.NewRealtimeHandler(svc.Hub, logger)

	if cfg.Views != nil {
		dashboardHandler := handler.NewDashboardHandler(svc.Catalog, logger)
		app.Get("/dashboard", dashboardHandler.Render)
		app.Get("/", func(c *fiber.Ctx) error {
			return c.Redirect("/dashboard")
		})
	}

	// Realtime
	ws := app.Group("/ws", realtimeHandler.RequireUpgrade)
	ws.Get("/"+domain.ChannelMovies, realtimeHandler.Stream(domain.ChannelMovies))

	// API v1 routes
	v1 := app.Group("/api/v1")

	movies := v1.Group("/movies")
	movies.Get("/popular", movieHandler.Popular)
	movies.Get("/search", movieHandler.Search)
	movies.Get("/:id/overview", movieHandler.Overview)

	watchlist := v1.Group("/watchlist", middleware.RequireUser(cfg.UserHeader))
	watchlist.Get("/", watchlistHandler.List)
	watchlist.Post("/", watchlistHandler.Add)
	watchlist.Delete("/:id", watchlistHandler.Remove)

	admin := v1.Group("/admin", middleware.RequireAdminToken(cfg.AdminToken))
	admin.Post("/broadcast-refresh", adminHandler.BroadcastRefresh)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "UNHANDLED_ERROR"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			errCode = "HTTP_ERROR"
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
