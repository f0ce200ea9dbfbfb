package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/cleanup"
	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/history"
)

// analysisTaskID is the single scheduled analysis job.
const analysisTaskID = "scheduled-analysis"

// Manager binds the user-editable schedule file to the analysis task.
type Manager struct {
	mu        sync.Mutex
	schedule  config.Schedule
	path      string
	scheduler *Scheduler
	cleanup   *cleanup.Service
	logger    zerolog.Logger
}

// NewManager loads the schedule file and registers the analysis task when
// the schedule is enabled.
func NewManager(path string, sched *Scheduler, cleanupSvc *cleanup.Service, logger zerolog.Logger) (*Manager, error) {
	schedule, err := config.LoadSchedule(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	m := &Manager{
		schedule:  schedule,
		path:      path,
		scheduler: sched,
		cleanup:   cleanupSvc,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
	if err := m.apply(schedule); err != nil {
		return nil, err
	}
	return m, nil
}

// Schedule returns the current schedule.
func (m *Manager) Schedule() config.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule
}

// Update validates, persists and applies a new schedule.
func (m *Manager) Update(s config.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := config.SaveSchedule(m.path, s); err != nil {
		return err
	}
	if err := m.apply(s); err != nil {
		return err
	}
	m.schedule = s
	m.logger.Info().
		Bool("enabled", s.Enabled).
		Str("cadence", s.Cadence).
		Str("time", s.Time).
		Msg("schedule updated")
	return nil
}

// NextRun returns the next scheduled analysis time, if one is scheduled.
func (m *Manager) NextRun() *TaskInfo {
	info, err := m.scheduler.GetTask(analysisTaskID)
	if err != nil {
		return nil
	}
	return info
}

func (m *Manager) apply(s config.Schedule) error {
	if !s.Enabled {
		return m.scheduler.RemoveTask(analysisTaskID)
	}

	cron, err := s.CronExpression()
	if err != nil {
		return err
	}
	return m.scheduler.UpdateTask(TaskConfig{
		ID:          analysisTaskID,
		Name:        "Scheduled analysis",
		Description: "Runs the library analysis on the configured schedule",
		Cron:        cron,
		Func:        m.runAnalysis,
	})
}

// runAnalysis starts a scheduled run. A run already in flight is skipped,
// not queued; the next slot picks up any changes anyway.
func (m *Manager) runAnalysis(ctx context.Context) error {
	_, err := m.cleanup.Start(history.TriggerScheduled)
	if errors.Is(err, cleanup.ErrRunInFlight) {
		m.logger.Warn().Msg("skipping scheduled analysis, a run is already in progress")
		return nil
	}
	return err
}
