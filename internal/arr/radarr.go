package arr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
)

// Radarr is a Radarr v3 API client.
type Radarr struct {
	client
	enabled bool
	logger  zerolog.Logger
}

// NewRadarr creates a Radarr client.
func NewRadarr(cfg config.ArrConfig, logger zerolog.Logger) *Radarr {
	return &Radarr{
		client:  newClient(cfg),
		enabled: cfg.Enabled,
		logger:  logger.With().Str("component", "radarr").Logger(),
	}
}

// Enabled reports whether the client is configured for use.
func (r *Radarr) Enabled() bool {
	return r.enabled && r.apiKey != ""
}

// Unmonitor turns off monitoring for the movie matching title and year.
// Year zero matches on title alone. A miss is not an error.
func (r *Radarr) Unmonitor(ctx context.Context, title string, year int) error {
	if !r.Enabled() {
		return nil
	}

	var all []map[string]any
	if err := r.get(ctx, "/api/v3/movie", &all); err != nil {
		return fmt.Errorf("failed to fetch movie list: %w", err)
	}

	want := strings.ToLower(title)
	for _, doc := range all {
		name, _ := doc["title"].(string)
		if strings.ToLower(name) != want {
			continue
		}
		if year != 0 {
			if y, ok := doc["year"].(float64); ok && int(y) != year {
				continue
			}
		}
		if monitored, _ := doc["monitored"].(bool); !monitored {
			return nil
		}
		doc["monitored"] = false
		id, ok := doc["id"].(float64)
		if !ok {
			return fmt.Errorf("movie %q has no numeric id", title)
		}
		if err := r.put(ctx, fmt.Sprintf("/api/v3/movie/%d", int(id)), doc); err != nil {
			return fmt.Errorf("failed to unmonitor movie: %w", err)
		}
		r.logger.Info().Str("title", title).Int("year", year).Msg("unmonitored movie in Radarr")
		return nil
	}
	return nil
}
