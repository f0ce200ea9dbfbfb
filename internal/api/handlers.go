package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/logger"
)

// handleHealth is a liveness probe.
// GET /health
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

// handleStatus reports server state and Plex connectivity.
// GET /api/v1/status
func (s *Server) handleStatus(c echo.Context) error {
	ctx := c.Request().Context()

	plexOK := false
	if s.deps.Plex != nil && s.deps.Plex.IsConfigured() {
		plexOK = s.deps.Plex.Test(ctx) == nil
	}

	resp := map[string]any{
		"version":       config.Version,
		"time":          time.Now().UTC(),
		"plexConnected": plexOK,
		"analysis":      s.deps.Cleanup.Status(ctx),
		"wsClients":     0,
	}
	if s.deps.Hub != nil {
		resp["wsClients"] = s.deps.Hub.ClientCount()
	}
	if s.deps.Schedule != nil {
		resp["schedule"] = s.deps.Schedule.Schedule()
	}
	return c.JSON(http.StatusOK, resp)
}

// handleGetConfig returns the live configuration with secrets masked.
// GET /api/v1/config
func (s *Server) handleGetConfig(c echo.Context) error {
	cfg := *s.deps.Config.Get()
	if cfg.Plex.Token != "" {
		cfg.Plex.Token = "********"
	}
	if cfg.Sonarr.APIKey != "" {
		cfg.Sonarr.APIKey = "********"
	}
	if cfg.Radarr.APIKey != "" {
		cfg.Radarr.APIKey = "********"
	}
	return c.JSON(http.StatusOK, cfg)
}

// handleUpdateConfig replaces the configuration. Masked secret values in
// the request keep their current settings.
// PUT /api/v1/config
func (s *Server) handleUpdateConfig(c echo.Context) error {
	current := s.deps.Config.Get()

	next := *current
	if err := c.Bind(&next); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if next.Plex.Token == "********" {
		next.Plex.Token = current.Plex.Token
	}
	if next.Sonarr.APIKey == "********" {
		next.Sonarr.APIKey = current.Sonarr.APIKey
	}
	if next.Radarr.APIKey == "********" {
		next.Radarr.APIKey = current.Radarr.APIKey
	}

	if err := s.deps.Config.Replace(&next); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.logger.Info().Msg("configuration updated")
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

// handleLogs returns recent log entries from the in-memory stream.
// GET /api/v1/logs
func (s *Server) handleLogs(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	entries := []logger.Entry{}
	if s.deps.LogStream != nil {
		entries = s.deps.LogStream.Recent(limit)
	}
	return c.JSON(http.StatusOK, entries)
}

// handleDownloadLog serves the current log file.
// GET /api/v1/logs/download
func (s *Server) handleDownloadLog(c echo.Context) error {
	if s.deps.LogPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}
	path := filepath.Join(s.deps.LogPath, "plexsweep.log")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}
	return c.Attachment(path, "plexsweep.log")
}
