// Package plex is a thin client for the Plex Media Server HTTP API.
package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
)

var (
	ErrTokenMissing = errors.New("plex token is not configured")
	ErrNotFound     = errors.New("plex item not found")
	ErrAPIError     = errors.New("plex API error")
)

// Client is a Plex Media Server API client.
type Client struct {
	httpClient *http.Client
	config     config.PlexConfig
	logger     zerolog.Logger
}

// NewClient creates a new Plex client.
func NewClient(cfg config.PlexConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "plex").Logger(),
	}
}

// IsConfigured returns true if the token is set.
func (c *Client) IsConfigured() bool {
	return c.config.Token != ""
}

// Test verifies connectivity by requesting the server root.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrTokenMissing
	}
	var result struct {
		MediaContainer struct {
			FriendlyName string `json:"friendlyName"`
		} `json:"MediaContainer"`
	}
	return c.doRequest(ctx, "/", nil, &result)
}

// Sections lists the server's library sections.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	if !c.IsConfigured() {
		return nil, ErrTokenMissing
	}

	var resp sectionsResponse
	if err := c.doRequest(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(resp.MediaContainer.Directory))
	for _, d := range resp.MediaContainer.Directory {
		sections = append(sections, Section{ID: d.Key, Title: d.Title, Type: d.Type})
	}
	return sections, nil
}

// Movies returns all movies in a section.
func (c *Client) Movies(ctx context.Context, sectionID string) ([]Movie, error) {
	if !c.IsConfigured() {
		return nil, ErrTokenMissing
	}

	var resp libraryResponse
	path := fmt.Sprintf("/library/sections/%s/all", sectionID)
	if err := c.doRequest(ctx, path, url.Values{"type": []string{"1"}}, &resp); err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		movie := Movie{
			RatingKey:    m.RatingKey,
			Title:        m.Title,
			Year:         m.Year,
			AddedAt:      m.AddedAt,
			LastViewedAt: m.LastViewedAt,
			ViewCount:    m.ViewCount,
		}
		// Prefer the audience rating, as the critic rating is missing far
		// more often.
		if m.AudienceRating != nil {
			movie.Rating = *m.AudienceRating
			movie.HasRating = true
		} else if m.Rating != nil {
			movie.Rating = *m.Rating
			movie.HasRating = true
		}
		if len(m.Media) > 0 {
			media := m.Media[0]
			movie.Resolution = media.VideoResolution
			movie.VideoCodec = media.VideoCodec
			if len(media.Part) > 0 {
				movie.FilePath = media.Part[0].File
				movie.FileSizeBytes = media.Part[0].Size
			}
		}
		movies = append(movies, movie)
	}

	c.logger.Debug().Str("section", sectionID).Int("count", len(movies)).Msg("fetched movies")
	return movies, nil
}

// Shows returns all series in a section, with file sizes aggregated from
// their episodes.
func (c *Client) Shows(ctx context.Context, sectionID string) ([]Show, error) {
	if !c.IsConfigured() {
		return nil, ErrTokenMissing
	}

	var resp libraryResponse
	path := fmt.Sprintf("/library/sections/%s/all", sectionID)
	if err := c.doRequest(ctx, path, url.Values{"type": []string{"2"}}, &resp); err != nil {
		return nil, err
	}

	shows := make([]Show, 0, len(resp.MediaContainer.Metadata))
	index := make(map[string]int, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		index[m.RatingKey] = len(shows)
		shows = append(shows, Show{
			RatingKey:    m.RatingKey,
			Title:        m.Title,
			Year:         m.Year,
			AddedAt:      m.AddedAt,
			LastViewedAt: m.LastViewedAt,
			ViewCount:    m.ViewCount,
			EpisodeCount: m.LeafCount,
			ViewedCount:  m.ViewedLeafCount,
		})
	}
	if len(shows) == 0 {
		return shows, nil
	}

	// One extra query for all episodes beats a per-show metadata walk.
	var episodes libraryResponse
	if err := c.doRequest(ctx, path, url.Values{"type": []string{"4"}}, &episodes); err != nil {
		return nil, err
	}
	for _, ep := range episodes.MediaContainer.Metadata {
		i, ok := index[ep.GrandparentRatingKey]
		if !ok || len(ep.Media) == 0 {
			continue
		}
		media := ep.Media[0]
		if shows[i].Resolution == "" {
			shows[i].Resolution = media.VideoResolution
			shows[i].VideoCodec = media.VideoCodec
		}
		if len(media.Part) > 0 {
			shows[i].FileSizeBytes += media.Part[0].Size
			if shows[i].DirPath == "" && media.Part[0].File != "" {
				// The series directory is two levels above the episode file
				// (show/season/episode).
				shows[i].DirPath = filepath.Dir(filepath.Dir(media.Part[0].File))
			}
		}
	}

	c.logger.Debug().Str("section", sectionID).Int("count", len(shows)).Msg("fetched shows")
	return shows, nil
}

// Delete removes an item from Plex, which also deletes the underlying media
// files when the server allows it.
func (c *Client) Delete(ctx context.Context, ratingKey string) error {
	if !c.IsConfigured() {
		return ErrTokenMissing
	}

	reqURL := fmt.Sprintf("%s/library/metadata/%s?X-Plex-Token=%s", c.config.URL, ratingKey, url.QueryEscape(c.config.Token))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("X-Plex-Token", c.config.Token)
	reqURL := fmt.Sprintf("%s%s?%s", c.config.URL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid token", ErrAPIError)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
