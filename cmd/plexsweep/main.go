package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/plexsweep/plexsweep/internal/api"
	"github.com/plexsweep/plexsweep/internal/arr"
	"github.com/plexsweep/plexsweep/internal/audioprobe"
	"github.com/plexsweep/plexsweep/internal/cleanup"
	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/database"
	"github.com/plexsweep/plexsweep/internal/executor"
	"github.com/plexsweep/plexsweep/internal/history"
	"github.com/plexsweep/plexsweep/internal/logger"
	"github.com/plexsweep/plexsweep/internal/plex"
	"github.com/plexsweep/plexsweep/internal/report"
	"github.com/plexsweep/plexsweep/internal/scanner"
	"github.com/plexsweep/plexsweep/internal/scheduler"
	"github.com/plexsweep/plexsweep/internal/websocket"
)

func main() {
	// A missing .env file is fine; environment variables win over it anyway.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	schedulePath := flag.String("schedule", "", "Path to schedule file")
	ffprobePath := flag.String("ffprobe", "", "Path to the ffprobe binary")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	stream := logger.NewStream(1000)
	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, stream)
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting plexsweep")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	hub := websocket.NewHub()
	go hub.Run()
	stream.SetHub(hub)

	store := config.NewStore(cfg)
	hist := history.NewService(db.Conn(), log.Logger)
	plexClient := plex.NewClient(cfg.Plex, log.Logger)
	sonarr := arr.NewSonarr(cfg.Sonarr, log.Logger)
	radarr := arr.NewRadarr(cfg.Radarr, log.Logger)

	prober := audioprobe.NewService(*ffprobePath, log.Logger)
	if !prober.Available() {
		log.Warn().Msg("ffprobe not found, NL audio detection disabled")
	}

	sc := scanner.New(plexClient, prober, log.Logger)
	writer := report.NewWriter(cfg.Reporting, log.Logger)
	reports := report.NewStore(cfg.Reporting.OutputDir, cfg.Reporting.KeepReports, log.Logger)
	exec := executor.New(store.Get, cfg.Reporting.OutputDir, plexClient, sonarr, radarr, hist, log.Logger)

	cleanupSvc := cleanup.NewService(store.Get, sc, sonarr, writer, reports, hist, hub, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	manager, err := scheduler.NewManager(resolveSchedulePath(*configPath, *schedulePath), sched, cleanupSvc, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load schedule")
	}
	sched.Start()

	server := api.NewServer(api.Deps{
		Config:    store,
		Cleanup:   cleanupSvc,
		Executor:  exec,
		History:   hist,
		Reports:   reports,
		Schedule:  manager,
		Plex:      plexClient,
		Hub:       hub,
		LogStream: stream,
		LogPath:   cfg.Logging.Path,
	}, log.Logger)

	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		if err := server.Start(addr); err != nil {
			log.Info().Msg("server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	cleanupSvc.Shutdown()
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}

// resolveSchedulePath places the schedule file next to the config file
// unless an explicit path is given.
func resolveSchedulePath(configPath, schedulePath string) string {
	if schedulePath != "" {
		return schedulePath
	}
	if configPath != "" {
		return filepath.Join(filepath.Dir(configPath), "schedule.yaml")
	}
	return "schedule.yaml"
}
