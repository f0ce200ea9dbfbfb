// Package cleanup orchestrates analysis runs: snapshot continuing series,
// scan the libraries, evaluate the rules, resolve duplicates and write the
// deletion plan reports.
package cleanup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/engine"
	"github.com/plexsweep/plexsweep/internal/history"
	"github.com/plexsweep/plexsweep/internal/media"
	"github.com/plexsweep/plexsweep/internal/scanner"
)

// ErrRunInFlight is returned when an analysis run is already active.
var ErrRunInFlight = errors.New("an analysis run is already in progress")

// Run stages, broadcast with progress updates.
const (
	StageIdle       = "idle"
	StageSnapshot   = "snapshot"
	StageScanning   = "scanning"
	StageEvaluating = "evaluating"
	StageReporting  = "reporting"
)

// Broadcaster pushes run updates to WebSocket clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// ContinuationSource provides the continuing-series snapshot.
type ContinuationSource interface {
	ContinuingSeries(ctx context.Context) (map[string]bool, error)
}

// PlanWriter renders a finished plan to report files.
type PlanWriter interface {
	Write(plan *media.DeletionPlan) ([]string, error)
}

// ReportPruner removes report files beyond the retention limit.
type ReportPruner interface {
	Cleanup() (int, error)
}

// RunRecorder persists run lifecycle records.
type RunRecorder interface {
	StartRun(ctx context.Context, id string, trigger history.RunTrigger) (*history.Run, error)
	CompleteRun(ctx context.Context, id string, totalItems, flaggedItems int, flaggedSizeGB float64) error
	FailRun(ctx context.Context, id string, runErr error) error
	ListRuns(ctx context.Context, limit int) ([]*history.Run, error)
}

// Status is a point-in-time snapshot of the run state.
type Status struct {
	Running          bool         `json:"running"`
	RunID            string       `json:"runId,omitempty"`
	Stage            string       `json:"stage"`
	LibrariesScanned int          `json:"librariesScanned"`
	LibrariesTotal   int          `json:"librariesTotal"`
	StartedAt        *time.Time   `json:"startedAt,omitempty"`
	LastRun          *history.Run `json:"lastRun,omitempty"`
}

// Service runs the analysis pipeline. At most one run is active at a time;
// a second start request is rejected rather than queued.
type Service struct {
	mu         sync.Mutex
	running    bool
	runID      string
	stage      string
	libScanned int
	libTotal   int
	startedAt  time.Time
	cancel     context.CancelFunc

	configFn func() *config.Config
	scanner  *scanner.Scanner
	series   ContinuationSource
	writer   PlanWriter
	pruner   ReportPruner
	runs     RunRecorder
	hub      Broadcaster
	logger   zerolog.Logger
}

// NewService creates the cleanup service. configFn is called at the start
// of each run so config updates between runs take effect without a restart.
func NewService(configFn func() *config.Config, sc *scanner.Scanner, series ContinuationSource,
	writer PlanWriter, pruner ReportPruner, runs RunRecorder, hub Broadcaster, logger zerolog.Logger) *Service {
	return &Service{
		stage:    StageIdle,
		configFn: configFn,
		scanner:  sc,
		series:   series,
		writer:   writer,
		pruner:   pruner,
		runs:     runs,
		hub:      hub,
		logger:   logger.With().Str("component", "cleanup").Logger(),
	}
}

// Start launches an analysis run in the background and returns its ID.
func (s *Service) Start(trigger history.RunTrigger) (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrRunInFlight
	}

	runID := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.runID = runID
	s.stage = StageSnapshot
	s.libScanned = 0
	s.libTotal = 0
	s.startedAt = time.Now().UTC()
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		s.run(ctx, runID, trigger)
	}()

	return runID, nil
}

// Running reports whether a run is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns the current run state plus the most recent run record.
func (s *Service) Status(ctx context.Context) Status {
	s.mu.Lock()
	st := Status{
		Running:          s.running,
		RunID:            s.runID,
		Stage:            s.stage,
		LibrariesScanned: s.libScanned,
		LibrariesTotal:   s.libTotal,
	}
	if s.running {
		started := s.startedAt
		st.StartedAt = &started
	}
	s.mu.Unlock()

	if runs, err := s.runs.ListRuns(ctx, 1); err == nil && len(runs) > 0 {
		st.LastRun = runs[0]
	}
	return st
}

// Shutdown cancels any active run.
func (s *Service) Shutdown() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Service) run(ctx context.Context, runID string, trigger history.RunTrigger) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.runID = ""
		s.stage = StageIdle
		s.cancel = nil
		s.mu.Unlock()
	}()

	logger := s.logger.With().Str("runId", runID).Logger()
	logger.Info().Str("trigger", string(trigger)).Msg("analysis run started")

	if _, err := s.runs.StartRun(ctx, runID, trigger); err != nil {
		logger.Error().Err(err).Msg("failed to record run start")
		return
	}
	s.broadcast("analysis:started", map[string]any{"runId": runID, "trigger": trigger})

	plan, totalItems, err := s.analyze(ctx, runID, logger)
	if err != nil {
		logger.Error().Err(err).Msg("analysis run failed")
		if ferr := s.runs.FailRun(context.Background(), runID, err); ferr != nil {
			logger.Error().Err(ferr).Msg("failed to record run failure")
		}
		s.broadcast("analysis:failed", map[string]any{"runId": runID, "error": err.Error()})
		return
	}

	if err := s.runs.CompleteRun(ctx, runID, totalItems, plan.TotalItems, plan.TotalSizeGB); err != nil {
		logger.Error().Err(err).Msg("failed to record run completion")
	}
	s.broadcast("analysis:completed", map[string]any{
		"runId":        runID,
		"totalItems":   totalItems,
		"flaggedItems": plan.TotalItems,
		"flaggedSize":  plan.TotalSizeGB,
	})
	logger.Info().
		Int("totalItems", totalItems).
		Int("flagged", plan.TotalItems).
		Float64("flaggedGb", plan.TotalSizeGB).
		Msg("analysis run completed")
}

func (s *Service) analyze(ctx context.Context, runID string, logger zerolog.Logger) (*media.DeletionPlan, int, error) {
	cfg := s.configFn()

	// Sonarr being down must not block analysis; shows are then treated
	// as not continuing and every rule still applies.
	continuing := map[string]bool{}
	if s.series != nil {
		snapshot, err := s.series.ContinuingSeries(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("continuing-series snapshot unavailable, analyzing all shows")
		} else {
			continuing = snapshot
		}
	}

	s.setStage(StageScanning, 0, len(cfg.Libraries))
	items, err := s.scanner.Scan(ctx, cfg.Libraries, func(name string, scanned, total int) {
		s.setStage(StageScanning, scanned, total)
		s.broadcast("analysis:progress", map[string]any{
			"runId": runID, "stage": StageScanning, "library": name,
			"scanned": scanned, "total": total,
		})
	})
	if err != nil {
		return nil, 0, err
	}

	s.setStage(StageEvaluating, len(cfg.Libraries), len(cfg.Libraries))
	eng := engine.New(cfg.RulesForLibrary, engine.Options{
		DuplicatesEnabled: cfg.Duplicates.Enabled,
		NLAudioPriority:   cfg.Duplicates.NLAudioPriority,
		IsContinuing:      engine.SnapshotLookup(continuing),
	}, logger)
	plan := eng.Run(items, time.Now().UTC())

	s.setStage(StageReporting, len(cfg.Libraries), len(cfg.Libraries))
	if _, err := s.writer.Write(plan); err != nil {
		return nil, 0, err
	}
	if s.pruner != nil {
		if _, err := s.pruner.Cleanup(); err != nil {
			logger.Warn().Err(err).Msg("report pruning failed")
		}
	}
	return plan, len(items), nil
}

func (s *Service) setStage(stage string, scanned, total int) {
	s.mu.Lock()
	s.stage = stage
	s.libScanned = scanned
	s.libTotal = total
	s.mu.Unlock()
}

func (s *Service) broadcast(msgType string, payload interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(msgType, payload)
	}
}
