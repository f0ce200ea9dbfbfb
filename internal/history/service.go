// Package history persists analysis runs and deletion events.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service provides run and event history backed by SQLite.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// StartRun records the beginning of an analysis run.
func (s *Service) StartRun(ctx context.Context, id string, trigger RunTrigger) (*Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, trigger, status, started_at) VALUES (?, ?, ?, ?)`,
		id, string(trigger), string(StatusRunning), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	if err := s.AddEvent(ctx, Event{RunID: id, EventType: EventRunStarted}); err != nil {
		s.logger.Warn().Err(err).Str("runId", id).Msg("failed to record run start event")
	}

	return &Run{ID: id, Trigger: trigger, Status: StatusRunning, StartedAt: now}, nil
}

// CompleteRun marks a run finished with its result totals.
func (s *Service) CompleteRun(ctx context.Context, id string, totalItems, flaggedItems int, flaggedSizeGB float64) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, total_items = ?, flagged_items = ?, flagged_size_gb = ? WHERE id = ?`,
		string(StatusCompleted), now, totalItems, flaggedItems, flaggedSizeGB, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	detail := fmt.Sprintf("%d of %d items flagged (%.2f GB)", flaggedItems, totalItems, flaggedSizeGB)
	if err := s.AddEvent(ctx, Event{RunID: id, EventType: EventRunCompleted, Detail: detail}); err != nil {
		s.logger.Warn().Err(err).Str("runId", id).Msg("failed to record run completion event")
	}
	return nil
}

// FailRun marks a run failed with the error message.
func (s *Service) FailRun(ctx context.Context, id string, runErr error) error {
	now := time.Now().UTC()
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(StatusFailed), now, msg, id)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}

	if err := s.AddEvent(ctx, Event{RunID: id, EventType: EventRunFailed, Detail: msg}); err != nil {
		s.logger.Warn().Err(err).Str("runId", id).Msg("failed to record run failure event")
	}
	return nil
}

// AddEvent appends one event.
func (s *Service) AddEvent(ctx context.Context, e Event) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	var runID any
	if e.RunID != "" {
		runID = e.RunID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (run_id, event_type, item_title, item_plex_id, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, string(e.EventType), e.ItemTitle, e.ItemPlexID, e.Detail, created)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetRun returns one run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, trigger, status, started_at, completed_at, total_items, flagged_items, flagged_size_gb, COALESCE(error, '')
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trigger, status, started_at, completed_at, total_items, flagged_items, flagged_size_gb, COALESCE(error, '')
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListEvents returns a page of events, newest first.
func (s *Service) ListEvents(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}

	where := "WHERE 1=1"
	args := []any{}
	if opts.EventType != "" {
		where += " AND event_type = ?"
		args = append(args, opts.EventType)
	}
	if opts.RunID != "" {
		where += " AND run_id = ?"
		args = append(args, opts.RunID)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	query := `SELECT id, COALESCE(run_id, ''), event_type, item_title, item_plex_id, detail, created_at
		 FROM events ` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.PageSize, (opts.Page-1)*opts.PageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e := &Event{}
		var eventType string
		if err := rows.Scan(&e.ID, &e.RunID, &eventType, &e.ItemTitle, &e.ItemPlexID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.EventType = EventType(eventType)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ListResponse{
		Events:     events,
		TotalCount: total,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
	}, nil
}

// DeleteAll clears all runs and events.
func (s *Service) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var trigger, status string
	var completed sql.NullTime
	if err := row.Scan(&r.ID, &trigger, &status, &r.StartedAt, &completed, &r.TotalItems, &r.FlaggedItems, &r.FlaggedSizeGB, &r.Error); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found")
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	r.Trigger = RunTrigger(trigger)
	r.Status = RunStatus(status)
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return r, nil
}
