package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
	"github.com/plexsweep/plexsweep/internal/plex"
)

type fakeSource struct {
	movies map[string][]plex.Movie
	shows  map[string][]plex.Show
	err    error
}

func (f *fakeSource) Movies(ctx context.Context, sectionID string) ([]plex.Movie, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.movies[sectionID], nil
}

func (f *fakeSource) Shows(ctx context.Context, sectionID string) ([]plex.Show, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shows[sectionID], nil
}

type fakeProber struct {
	nlPaths map[string]bool
	probed  []string
}

func (f *fakeProber) Available() bool { return true }

func (f *fakeProber) HasNLAudio(ctx context.Context, path string) bool {
	f.probed = append(f.probed, path)
	return f.nlPaths[path]
}

func TestScanMovies(t *testing.T) {
	source := &fakeSource{movies: map[string][]plex.Movie{
		"1": {
			{
				RatingKey: "101", Title: "Heat", Year: 1995,
				AddedAt: 1600000000, LastViewedAt: 1650000000, ViewCount: 2,
				Rating: 8.3, HasRating: true,
				FilePath: "/movies/Heat.mkv", FileSizeBytes: 2 * bytesPerGB,
				Resolution: "1080", VideoCodec: "h264",
			},
			{
				RatingKey: "102", Title: "Never Seen", Year: 2010,
				AddedAt:  1500000000,
				FilePath: "/movies/NeverSeen.mkv", FileSizeBytes: bytesPerGB / 2,
				Resolution: "4k", VideoCodec: "hevc",
			},
		},
	}}
	prober := &fakeProber{nlPaths: map[string]bool{"/movies/Heat.mkv": true}}
	s := New(source, prober, zerolog.Nop())

	items, err := s.Scan(context.Background(), []config.LibraryConfig{
		{ID: "1", Name: "Movies", Type: "movie"},
	}, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	heat := items[0]
	if heat.MediaType != media.TypeMovie || heat.LibraryName != "Movies" {
		t.Errorf("heat = %+v", heat)
	}
	if heat.FileSizeGB != 2.0 {
		t.Errorf("FileSizeGB = %v, want 2.0", heat.FileSizeGB)
	}
	if heat.Resolution != "1080p" {
		t.Errorf("Resolution = %q, want 1080p", heat.Resolution)
	}
	if heat.LastViewedDate == nil || heat.Rating == nil || *heat.Rating != 8.3 {
		t.Errorf("view/rating fields = %v/%v", heat.LastViewedDate, heat.Rating)
	}
	if !heat.HasNLAudio {
		t.Error("HasNLAudio = false, prober says true")
	}

	unseen := items[1]
	if unseen.LastViewedDate != nil || unseen.Rating != nil {
		t.Errorf("unwatched movie has view/rating: %v/%v", unseen.LastViewedDate, unseen.Rating)
	}
	if unseen.Resolution != "2160p" {
		t.Errorf("Resolution = %q, want 2160p", unseen.Resolution)
	}
	if unseen.HasNLAudio {
		t.Error("HasNLAudio = true for non-NL file")
	}
}

func TestScanShows(t *testing.T) {
	source := &fakeSource{shows: map[string][]plex.Show{
		"3": {
			{
				RatingKey: "300", Title: "The Wire", Year: 2002,
				AddedAt: 1400000000, LastViewedAt: 1610000000,
				ViewCount: 60, EpisodeCount: 60, ViewedCount: 60,
				DirPath: "/tv/The Wire", FileSizeBytes: 50 * bytesPerGB,
				Resolution: "1080", VideoCodec: "h264",
			},
		},
	}}
	s := New(source, nil, zerolog.Nop())

	items, err := s.Scan(context.Background(), []config.LibraryConfig{
		{ID: "3", Name: "TV Shows", Type: "show"},
	}, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}

	wire := items[0]
	if wire.MediaType != media.TypeShow {
		t.Errorf("MediaType = %q", wire.MediaType)
	}
	if wire.TotalEpisodes != 60 || wire.WatchedEpisodes != 60 {
		t.Errorf("episodes = %d/%d", wire.WatchedEpisodes, wire.TotalEpisodes)
	}
	if wire.FileSizeGB != 50.0 {
		t.Errorf("FileSizeGB = %v", wire.FileSizeGB)
	}
	if wire.FilePath != "/tv/The Wire" {
		t.Errorf("FilePath = %q", wire.FilePath)
	}
}

func TestScanProgressCallback(t *testing.T) {
	source := &fakeSource{
		movies: map[string][]plex.Movie{"1": {}},
		shows:  map[string][]plex.Show{"3": {}},
	}
	s := New(source, nil, zerolog.Nop())

	var calls []string
	_, err := s.Scan(context.Background(), []config.LibraryConfig{
		{ID: "1", Name: "Movies", Type: "movie"},
		{ID: "3", Name: "TV Shows", Type: "show"},
	}, func(name string, scanned, total int) {
		calls = append(calls, name)
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(calls) != 2 || calls[0] != "Movies" || calls[1] != "TV Shows" {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestScanFailsWhole(t *testing.T) {
	source := &fakeSource{err: errors.New("plex down")}
	s := New(source, nil, zerolog.Nop())

	_, err := s.Scan(context.Background(), []config.LibraryConfig{
		{ID: "1", Name: "Movies", Type: "movie"},
	}, nil)
	if err == nil {
		t.Error("Scan() error = nil, want failure")
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{movies: map[string][]plex.Movie{"1": {}}}
	s := New(source, nil, zerolog.Nop())
	_, err := s.Scan(ctx, []config.LibraryConfig{{ID: "1", Name: "Movies", Type: "movie"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}
