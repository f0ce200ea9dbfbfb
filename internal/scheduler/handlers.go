package scheduler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plexsweep/plexsweep/internal/config"
)

// Handlers exposes the analysis schedule over HTTP.
type Handlers struct {
	manager *Manager
}

// NewHandlers creates schedule handlers.
func NewHandlers(manager *Manager) *Handlers {
	return &Handlers{manager: manager}
}

// RegisterRoutes registers schedule routes on the API group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/schedule", h.Get)
	g.PUT("/schedule", h.Update)
}

// Get returns the current schedule and the next planned run.
// GET /api/v1/schedule
func (h *Handlers) Get(c echo.Context) error {
	resp := map[string]any{"schedule": h.manager.Schedule()}
	if info := h.manager.NextRun(); info != nil {
		resp["nextRun"] = info.NextRun
	}
	return c.JSON(http.StatusOK, resp)
}

// Update replaces the schedule.
// PUT /api/v1/schedule
func (h *Handlers) Update(c echo.Context) error {
	var s config.Schedule
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.manager.Update(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"schedule": h.manager.Schedule()})
}
