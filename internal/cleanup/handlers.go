package cleanup

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plexsweep/plexsweep/internal/executor"
	"github.com/plexsweep/plexsweep/internal/history"
	"github.com/plexsweep/plexsweep/internal/report"
)

// Handlers exposes analysis, report and execution endpoints.
type Handlers struct {
	service *Service
	store   *report.Store
	exec    *executor.Executor
	runs    RunRecorder
}

// NewHandlers creates the cleanup handlers.
func NewHandlers(service *Service, store *report.Store, exec *executor.Executor, runs RunRecorder) *Handlers {
	return &Handlers{service: service, store: store, exec: exec, runs: runs}
}

// RegisterRoutes registers cleanup routes on the API group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/analysis", h.StartAnalysis)
	g.GET("/analysis/status", h.AnalysisStatus)
	g.GET("/reports", h.ListReports)
	g.GET("/reports/latest", h.LatestPlan)
	g.GET("/reports/:name", h.DownloadReport)
	g.POST("/reports/cleanup", h.CleanupReports)
	g.POST("/execute", h.Execute)
}

// StartAnalysis launches a manual analysis run.
// POST /api/v1/analysis
func (h *Handlers) StartAnalysis(c echo.Context) error {
	runID, err := h.service.Start(history.TriggerManual)
	if err != nil {
		if errors.Is(err, ErrRunInFlight) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]string{"runId": runID})
}

// AnalysisStatus returns the current run state.
// GET /api/v1/analysis/status
func (h *Handlers) AnalysisStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status(c.Request().Context()))
}

// ListReports lists report files on disk.
// GET /api/v1/reports
func (h *Handlers) ListReports(c echo.Context) error {
	infos, err := h.store.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"reports": infos})
}

// LatestPlan returns the most recent deletion plan.
// GET /api/v1/reports/latest
func (h *Handlers) LatestPlan(c echo.Context) error {
	plan, err := h.store.LatestPlan()
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, plan)
}

// DownloadReport serves one report file.
// GET /api/v1/reports/:name
func (h *Handlers) DownloadReport(c echo.Context) error {
	path, err := h.store.Path(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Attachment(path, c.Param("name"))
}

// CleanupReports prunes report files beyond the retention limit.
// POST /api/v1/reports/cleanup
func (h *Handlers) CleanupReports(c echo.Context) error {
	removed, err := h.store.Cleanup()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

// ExecuteRequest selects items from the latest plan for deletion.
type ExecuteRequest struct {
	PlexIDs []string `json:"plexIds"`
	RunID   string   `json:"runId"`
}

// Execute deletes confirmed items from the latest deletion plan.
// POST /api/v1/execute
func (h *Handlers) Execute(c echo.Context) error {
	if h.service.Running() {
		return echo.NewHTTPError(http.StatusConflict, "cannot execute while an analysis run is in progress")
	}

	var req ExecuteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.PlexIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no items selected")
	}

	plan, err := h.store.LatestPlan()
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	totalItems := 0
	if runs, err := h.runs.ListRuns(c.Request().Context(), 1); err == nil && len(runs) > 0 {
		totalItems = runs[0].TotalItems
	}

	result, err := h.exec.Execute(c.Request().Context(), plan, req.PlexIDs, req.RunID, totalItems)
	if err != nil {
		if errors.Is(err, executor.ErrTooManyDeletions) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
