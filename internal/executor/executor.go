// Package executor carries out confirmed deletions from a reviewed
// deletion plan: backup list, arr unmonitoring, Plex removal or a move to
// the trash folder.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/history"
	"github.com/plexsweep/plexsweep/internal/media"
)

// ErrTooManyDeletions is returned when a request exceeds the configured
// safety percentage.
var ErrTooManyDeletions = errors.New("deletion request exceeds safety limit")

// PlexDeleter removes an item from Plex.
type PlexDeleter interface {
	Delete(ctx context.Context, ratingKey string) error
}

// SeriesUnmonitorer stops Sonarr from re-grabbing a deleted series.
type SeriesUnmonitorer interface {
	Enabled() bool
	Unmonitor(ctx context.Context, title string) error
}

// MovieUnmonitorer stops Radarr from re-grabbing a deleted movie.
type MovieUnmonitorer interface {
	Enabled() bool
	Unmonitor(ctx context.Context, title string, year int) error
}

// EventRecorder persists per-item execution events.
type EventRecorder interface {
	AddEvent(ctx context.Context, e history.Event) error
}

// ItemResult is the outcome for one item.
type ItemResult struct {
	Title   string `json:"title"`
	PlexID  string `json:"plexId"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// Result summarizes one execution pass.
type Result struct {
	DryRun      bool         `json:"dryRun"`
	Requested   int          `json:"requested"`
	Deleted     int          `json:"deleted"`
	Failed      int          `json:"failed"`
	FreedSizeGB float64      `json:"freedSizeGb"`
	BackupFile  string       `json:"backupFile,omitempty"`
	Items       []ItemResult `json:"items"`
}

// Executor deletes flagged items.
type Executor struct {
	configFn  func() *config.Config
	backupDir string
	plex      PlexDeleter
	sonarr    SeriesUnmonitorer
	radarr    MovieUnmonitorer
	events    EventRecorder
	logger    zerolog.Logger
}

// New creates an executor. configFn is called on every execution so config
// changes, a dry-run toggle in particular, apply without a restart. The
// backup list goes to backupDir.
func New(configFn func() *config.Config, backupDir string,
	plexClient PlexDeleter, sonarr SeriesUnmonitorer, radarr MovieUnmonitorer,
	events EventRecorder, logger zerolog.Logger) *Executor {
	return &Executor{
		configFn:  configFn,
		backupDir: backupDir,
		plex:      plexClient,
		sonarr:    sonarr,
		radarr:    radarr,
		events:    events,
		logger:    logger.With().Str("component", "executor").Logger(),
	}
}

// Execute deletes the requested items. Only items the plan auto-flagged
// are eligible; manual-review entries must not be deletable by ID
// confusion. totalItems is the inventory size of the run that produced
// the plan, used for the safety percentage; zero skips that check.
func (e *Executor) Execute(ctx context.Context, plan *media.DeletionPlan, plexIDs []string, runID string, totalItems int) (*Result, error) {
	cfg := e.configFn()
	execCfg := cfg.Execution

	eligible := make(map[string]*media.Item)
	for _, it := range plan.Items {
		if it.ShouldDelete {
			eligible[it.PlexID] = it
		}
	}

	var targets []*media.Item
	for _, id := range plexIDs {
		it, ok := eligible[id]
		if !ok {
			return nil, fmt.Errorf("item %q is not deletable in this plan", id)
		}
		targets = append(targets, it)
	}

	if totalItems > 0 && len(targets)*100 > totalItems*cfg.Safety.MaxDeletePercentage {
		return nil, fmt.Errorf("%w: %d of %d items is over %d%%",
			ErrTooManyDeletions, len(targets), totalItems, cfg.Safety.MaxDeletePercentage)
	}

	result := &Result{
		DryRun:    execCfg.DryRun,
		Requested: len(targets),
	}

	if execCfg.CreateBackupList && !execCfg.DryRun && len(targets) > 0 {
		backup, err := e.writeBackup(targets)
		if err != nil {
			return nil, err
		}
		result.BackupFile = backup
	}

	for _, it := range targets {
		ir := ItemResult{Title: it.Title, PlexID: it.PlexID}
		if err := e.deleteItem(ctx, execCfg, it, runID); err != nil {
			ir.Error = err.Error()
			result.Failed++
			e.logger.Error().Err(err).Str("title", it.Title).Msg("deletion failed")
		} else {
			ir.Deleted = !execCfg.DryRun
			result.Deleted++
			result.FreedSizeGB += it.FileSizeGB
		}
		result.Items = append(result.Items, ir)
	}

	e.logger.Info().
		Bool("dryRun", result.DryRun).
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Float64("freedGb", result.FreedSizeGB).
		Msg("execution finished")
	return result, nil
}

func (e *Executor) deleteItem(ctx context.Context, execCfg config.ExecutionConfig, it *media.Item, runID string) error {
	if execCfg.DryRun {
		e.logger.Info().Str("title", it.Title).Msg("dry run, would delete")
		return nil
	}

	e.unmonitor(ctx, execCfg, it, runID)

	if execCfg.MoveToTrash && it.FilePath != "" {
		if err := e.moveToTrash(execCfg.TrashFolder, it.FilePath); err != nil {
			e.recordEvent(ctx, history.Event{
				RunID: runID, EventType: history.EventDeleteFailed,
				ItemTitle: it.Title, ItemPlexID: it.PlexID, Detail: err.Error(),
			})
			return err
		}
	}

	// Removing the Plex entry also removes the files unless they were
	// already moved to trash above.
	if err := e.plex.Delete(ctx, it.PlexID); err != nil {
		e.recordEvent(ctx, history.Event{
			RunID: runID, EventType: history.EventDeleteFailed,
			ItemTitle: it.Title, ItemPlexID: it.PlexID, Detail: err.Error(),
		})
		return err
	}

	e.recordEvent(ctx, history.Event{
		RunID: runID, EventType: history.EventItemDeleted,
		ItemTitle: it.Title, ItemPlexID: it.PlexID,
		Detail: fmt.Sprintf("%.2f GB", it.FileSizeGB),
	})
	return nil
}

// unmonitor is best effort; a failed unmonitor never blocks the deletion.
func (e *Executor) unmonitor(ctx context.Context, execCfg config.ExecutionConfig, it *media.Item, runID string) {
	switch it.MediaType {
	case media.TypeShow:
		if !execCfg.UnmonitorInSonarr || e.sonarr == nil || !e.sonarr.Enabled() {
			return
		}
		if err := e.sonarr.Unmonitor(ctx, it.Title); err != nil {
			e.logger.Warn().Err(err).Str("title", it.Title).Msg("failed to unmonitor in Sonarr")
			return
		}
	case media.TypeMovie:
		if !execCfg.UnmonitorInRadarr || e.radarr == nil || !e.radarr.Enabled() {
			return
		}
		if err := e.radarr.Unmonitor(ctx, it.Title, it.Year); err != nil {
			e.logger.Warn().Err(err).Str("title", it.Title).Msg("failed to unmonitor in Radarr")
			return
		}
	default:
		return
	}
	e.recordEvent(ctx, history.Event{
		RunID: runID, EventType: history.EventUnmonitored,
		ItemTitle: it.Title, ItemPlexID: it.PlexID,
	})
}

func (e *Executor) moveToTrash(trashFolder, path string) error {
	if err := os.MkdirAll(trashFolder, 0o750); err != nil {
		return fmt.Errorf("failed to create trash folder: %w", err)
	}
	dest := filepath.Join(trashFolder, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		dest = fmt.Sprintf("%s.%d", dest, time.Now().Unix())
	}
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move to trash: %w", err)
	}
	return nil
}

func (e *Executor) writeBackup(targets []*media.Item) (string, error) {
	if err := os.MkdirAll(e.backupDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	path := filepath.Join(e.backupDir, "deleted_items_backup_"+time.Now().UTC().Format("20060102_150405")+".json")

	data, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup list: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write backup list: %w", err)
	}
	return path, nil
}

func (e *Executor) recordEvent(ctx context.Context, ev history.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.AddEvent(ctx, ev); err != nil {
		e.logger.Warn().Err(err).Msg("failed to record event")
	}
}
