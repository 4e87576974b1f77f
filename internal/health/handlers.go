package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health *Service
}

// NewHandlers creates new health handlers.
func NewHandlers(health *Service) *Handlers {
	return &Handlers{health: health}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.GET("/:category", h.GetByCategory)
}

// GetAll returns all health items grouped by category.
// GET /api/v1/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns counts per category.
// GET /api/v1/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetByCategory returns the items of one category.
// GET /api/v1/health/:category
func (h *Handlers) GetByCategory(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	if !IsValidCategory(category) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown health category")
	}
	return c.JSON(http.StatusOK, h.health.GetByCategory(category))
}
