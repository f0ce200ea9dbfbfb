package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/media"
)

// Info describes one report file on disk.
type Info struct {
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	SizeBytes int64     `json:"sizeBytes"`
	Timestamp time.Time `json:"timestamp"`
}

// Store lists, loads and prunes report files.
type Store struct {
	dir    string
	keep   int
	logger zerolog.Logger
}

// NewStore creates a report store over a directory, keeping the newest
// keep report sets when pruning.
func NewStore(dir string, keep int, logger zerolog.Logger) *Store {
	if keep < 1 {
		keep = 5
	}
	return &Store{
		dir:    dir,
		keep:   keep,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// List returns all report files, newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	infos := []Info{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "deletion_plan_") {
			continue
		}
		stamp, ok := ParseStamp(e.Name())
		if !ok {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:      e.Name(),
			Format:    strings.TrimPrefix(filepath.Ext(e.Name()), "."),
			SizeBytes: fi.Size(),
			Timestamp: stamp,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Timestamp.Equal(infos[j].Timestamp) {
			return infos[i].Timestamp.After(infos[j].Timestamp)
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// Path resolves a report name to its path, rejecting anything that would
// escape the report directory.
func (s *Store) Path(name string) (string, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, "deletion_plan_") {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("report not found: %w", err)
	}
	return path, nil
}

// LatestPlan loads the most recent JSON deletion plan.
func (s *Store) LatestPlan() (*media.DeletionPlan, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Format != "json" {
			continue
		}
		return s.LoadPlan(info.Name)
	}
	return nil, fmt.Errorf("no deletion plan found")
}

// LoadPlan reads one JSON deletion plan by name.
func (s *Store) LoadPlan(name string) (*media.DeletionPlan, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	plan := &media.DeletionPlan{}
	if err := json.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("failed to parse deletion plan: %w", err)
	}
	return plan, nil
}

// Cleanup removes report files beyond the newest keep timestamps. Files
// from the same run share a timestamp and are kept or removed together.
func (s *Store) Cleanup() (int, error) {
	infos, err := s.List()
	if err != nil {
		return 0, err
	}

	var stamps []time.Time
	seen := map[time.Time]bool{}
	for _, info := range infos {
		if !seen[info.Timestamp] {
			seen[info.Timestamp] = true
			stamps = append(stamps, info.Timestamp)
		}
	}
	if len(stamps) <= s.keep {
		return 0, nil
	}

	cutoff := map[time.Time]bool{}
	for _, stamp := range stamps[s.keep:] {
		cutoff[stamp] = true
	}

	removed := 0
	for _, info := range infos {
		if !cutoff[info.Timestamp] {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, info.Name)); err != nil {
			s.logger.Warn().Err(err).Str("name", info.Name).Msg("failed to remove old report")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("pruned old reports")
	}
	return removed, nil
}
