package progress

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers exposes tracked activities over HTTP.
type Handlers struct {
	manager *Manager
}

// NewHandlers creates a new progress handlers instance.
func NewHandlers(manager *Manager) *Handlers {
	return &Handlers{manager: manager}
}

// RegisterRoutes registers progress routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

// List returns all tracked activities.
// GET /api/v1/progress
func (h *Handlers) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.GetAllActivities())
}

// Get returns one activity.
// GET /api/v1/progress/:id
func (h *Handlers) Get(c echo.Context) error {
	activity := h.manager.GetActivity(c.Param("id"))
	if activity == nil {
		return echo.NewHTTPError(http.StatusNotFound, "activity not found")
	}
	return c.JSON(http.StatusOK, activity)
}
