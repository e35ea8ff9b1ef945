package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"watchlist-service/internal/domain"
)

// dashboardLimit is the number of popular titles shown on the dashboard.
const dashboardLimit = 12

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	catalog MovieCatalog
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(catalog MovieCatalog, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// dashboardCard is one popular title on the dashboard.
type dashboardCard struct {
	Title    string
	ImageURL string
}

// Render handles GET /dashboard
// Renders the popular list using Fiber's template engine. The page reloads
// itself when a refetch notification arrives on the movies socket.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	var cards []dashboardCard
	var loadErr string

	docs, err := h.catalog.Popular(c.UserContext(), dashboardLimit)
	if err != nil {
		h.logger.Warn("dashboard popular list unavailable", zap.Error(err))
		loadErr = "Popular titles are unavailable right now."
	}

	for _, doc := range docs {
		summary, err := doc.Summary()
		if err != nil || summary.IsEmpty() {
			continue
		}
		cards = append(cards, dashboardCard{Title: summary.Title, ImageURL: summary.ImageURL})
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title":     "Watchlist Dashboard",
		"Cards":     cards,
		"Error":     loadErr,
		"SocketURL": "/ws/" + domain.ChannelMovies,
	}, "layouts/base")
}
