// Package scanner builds the media inventory for an analysis run from the
// configured Plex libraries, enriching movie entries with audio probe
// results for duplicate resolution.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
	"github.com/plexsweep/plexsweep/internal/plex"
)

const bytesPerGB = 1024 * 1024 * 1024

// LibrarySource is the slice of the Plex client the scanner needs.
type LibrarySource interface {
	Movies(ctx context.Context, sectionID string) ([]plex.Movie, error)
	Shows(ctx context.Context, sectionID string) ([]plex.Show, error)
}

// AudioProber detects Dutch audio in a media file.
type AudioProber interface {
	Available() bool
	HasNLAudio(ctx context.Context, path string) bool
}

// Progress reports scan progress to the caller after each library.
type Progress func(libraryName string, scanned, totalLibraries int)

// Scanner fetches the configured libraries into a flat item list.
type Scanner struct {
	source LibrarySource
	prober AudioProber
	logger zerolog.Logger
}

// New creates a scanner.
func New(source LibrarySource, prober AudioProber, logger zerolog.Logger) *Scanner {
	return &Scanner{
		source: source,
		prober: prober,
		logger: logger.With().Str("component", "scanner").Logger(),
	}
}

// Scan fetches every configured library and returns the combined inventory.
// A library that fails to fetch fails the whole scan; a partial inventory
// would make the resulting plan look like a mass-deletion candidate list.
func (s *Scanner) Scan(ctx context.Context, libraries []config.LibraryConfig, progress Progress) ([]*media.Item, error) {
	var items []*media.Item

	for i, lib := range libraries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var libItems []*media.Item
		var err error
		switch lib.Type {
		case "show":
			libItems, err = s.scanShows(ctx, lib)
		default:
			libItems, err = s.scanMovies(ctx, lib)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan library %q: %w", lib.Name, err)
		}

		s.logger.Info().Str("library", lib.Name).Int("items", len(libItems)).Msg("library scanned")
		items = append(items, libItems...)

		if progress != nil {
			progress(lib.Name, i+1, len(libraries))
		}
	}
	return items, nil
}

func (s *Scanner) scanMovies(ctx context.Context, lib config.LibraryConfig) ([]*media.Item, error) {
	movies, err := s.source.Movies(ctx, lib.ID)
	if err != nil {
		return nil, err
	}

	probe := s.prober != nil && s.prober.Available()
	items := make([]*media.Item, 0, len(movies))
	for _, m := range movies {
		item := &media.Item{
			Title:       m.Title,
			Year:        m.Year,
			PlexID:      m.RatingKey,
			LibraryID:   lib.ID,
			LibraryName: lib.Name,
			MediaType:   media.TypeMovie,
			FilePath:    m.FilePath,
			FileSizeGB:  float64(m.FileSizeBytes) / bytesPerGB,
			Resolution:  normalizeResolution(m.Resolution),
			VideoCodec:  m.VideoCodec,
			AddedDate:   time.Unix(m.AddedAt, 0).UTC(),
			ViewCount:   m.ViewCount,
		}
		if m.LastViewedAt > 0 {
			t := time.Unix(m.LastViewedAt, 0).UTC()
			item.LastViewedDate = &t
		}
		if m.HasRating {
			r := m.Rating
			item.Rating = &r
		}
		if probe {
			item.HasNLAudio = s.prober.HasNLAudio(ctx, m.FilePath)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Scanner) scanShows(ctx context.Context, lib config.LibraryConfig) ([]*media.Item, error) {
	shows, err := s.source.Shows(ctx, lib.ID)
	if err != nil {
		return nil, err
	}

	items := make([]*media.Item, 0, len(shows))
	for _, sh := range shows {
		item := &media.Item{
			Title:           sh.Title,
			Year:            sh.Year,
			PlexID:          sh.RatingKey,
			LibraryID:       lib.ID,
			LibraryName:     lib.Name,
			MediaType:       media.TypeShow,
			FilePath:        sh.DirPath,
			FileSizeGB:      float64(sh.FileSizeBytes) / bytesPerGB,
			Resolution:      normalizeResolution(sh.Resolution),
			VideoCodec:      sh.VideoCodec,
			AddedDate:       time.Unix(sh.AddedAt, 0).UTC(),
			ViewCount:       sh.ViewedCount,
			TotalEpisodes:   sh.EpisodeCount,
			WatchedEpisodes: sh.ViewedCount,
		}
		if sh.LastViewedAt > 0 {
			t := time.Unix(sh.LastViewedAt, 0).UTC()
			item.LastViewedDate = &t
		}
		items = append(items, item)
	}
	return items, nil
}

// normalizeResolution maps Plex's videoResolution values onto the ladder
// the duplicate scorer uses.
func normalizeResolution(res string) string {
	switch res {
	case "4k", "2160":
		return "2160p"
	case "1080":
		return "1080p"
	case "720":
		return "720p"
	case "480", "sd":
		return "480p"
	case "":
		return ""
	default:
		return res
	}
}
