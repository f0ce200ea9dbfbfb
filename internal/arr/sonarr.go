package arr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
)

// Sonarr is a Sonarr v3 API client.
type Sonarr struct {
	client
	enabled bool
	logger  zerolog.Logger
}

// series is the subset of the Sonarr series resource we use. The full
// document is kept raw for the unmonitor round trip so no fields are lost.
type series struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"` // continuing, ended, upcoming, deleted
	Monitored bool   `json:"monitored"`
}

// NewSonarr creates a Sonarr client.
func NewSonarr(cfg config.ArrConfig, logger zerolog.Logger) *Sonarr {
	return &Sonarr{
		client:  newClient(cfg),
		enabled: cfg.Enabled,
		logger:  logger.With().Str("component", "sonarr").Logger(),
	}
}

// Enabled reports whether the client is configured for use.
func (s *Sonarr) Enabled() bool {
	return s.enabled && s.apiKey != ""
}

// ContinuingSeries returns the lowercased titles of all series Sonarr
// reports as continuing or upcoming. Callers treat a lookup miss as "not
// continuing", so an unreachable Sonarr degrades to analyzing every show.
func (s *Sonarr) ContinuingSeries(ctx context.Context) (map[string]bool, error) {
	if !s.Enabled() {
		return map[string]bool{}, nil
	}

	var all []series
	if err := s.get(ctx, "/api/v3/series", &all); err != nil {
		return nil, fmt.Errorf("failed to fetch series list: %w", err)
	}

	continuing := make(map[string]bool)
	for _, sr := range all {
		if sr.Status == "continuing" || sr.Status == "upcoming" {
			continuing[strings.ToLower(sr.Title)] = true
		}
	}
	s.logger.Debug().Int("total", len(all)).Int("continuing", len(continuing)).Msg("built continuing-series snapshot")
	return continuing, nil
}

// Unmonitor turns off monitoring for the series matching title. A title
// with no match is not an error; there is simply nothing to unmonitor.
func (s *Sonarr) Unmonitor(ctx context.Context, title string) error {
	if !s.Enabled() {
		return nil
	}

	// Fetch the full documents so the PUT sends everything back unchanged
	// except the monitored flag.
	var all []map[string]any
	if err := s.get(ctx, "/api/v3/series", &all); err != nil {
		return fmt.Errorf("failed to fetch series list: %w", err)
	}

	want := strings.ToLower(title)
	for _, doc := range all {
		name, _ := doc["title"].(string)
		if strings.ToLower(name) != want {
			continue
		}
		if monitored, _ := doc["monitored"].(bool); !monitored {
			return nil
		}
		doc["monitored"] = false
		id, ok := doc["id"].(float64)
		if !ok {
			return fmt.Errorf("series %q has no numeric id", title)
		}
		if err := s.put(ctx, fmt.Sprintf("/api/v3/series/%d", int(id)), doc); err != nil {
			return fmt.Errorf("failed to unmonitor series: %w", err)
		}
		s.logger.Info().Str("title", title).Msg("unmonitored series in Sonarr")
		return nil
	}
	return nil
}
