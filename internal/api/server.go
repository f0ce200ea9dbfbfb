// Package api assembles the HTTP surface: analysis control, reports,
// configuration, schedule, history, logs and the WebSocket stream.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/cleanup"
	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/executor"
	"github.com/plexsweep/plexsweep/internal/history"
	"github.com/plexsweep/plexsweep/internal/logger"
	"github.com/plexsweep/plexsweep/internal/plex"
	"github.com/plexsweep/plexsweep/internal/report"
	"github.com/plexsweep/plexsweep/internal/scheduler"
	"github.com/plexsweep/plexsweep/internal/websocket"
)

// Deps holds everything the server routes need.
type Deps struct {
	Config    *config.Store
	Cleanup   *cleanup.Service
	Executor  *executor.Executor
	History   *history.Service
	Reports   *report.Store
	Schedule  *scheduler.Manager
	Plex      *plex.Client
	Hub       *websocket.Hub
	LogStream *logger.Stream
	LogPath   string
}

// Server handles HTTP requests for the API.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger zerolog.Logger
}

// NewServer creates a new API server instance.
func NewServer(deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger.With().Str("component", "api").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.handleStatus)
	api.GET("/config", s.handleGetConfig)
	api.PUT("/config", s.handleUpdateConfig)
	api.GET("/logs", s.handleLogs)
	api.GET("/logs/download", s.handleDownloadLog)

	cleanupHandlers := cleanup.NewHandlers(s.deps.Cleanup, s.deps.Reports, s.deps.Executor, s.deps.History)
	cleanupHandlers.RegisterRoutes(api)

	historyHandlers := history.NewHandlers(s.deps.History)
	historyHandlers.RegisterRoutes(api.Group("/history"))

	scheduleHandlers := scheduler.NewHandlers(s.deps.Schedule)
	scheduleHandlers.RegisterRoutes(api)

	if s.deps.Hub != nil {
		s.echo.GET("/ws", s.deps.Hub.HandleWebSocket)
	}
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}
