// Package media defines the shared media item and deletion plan types
// exchanged between the scanner, the decision engine and the reporting sinks.
package media

import "time"

// Type represents the kind of library item.
type Type string

const (
	TypeMovie Type = "movie"
	TypeShow  Type = "show"
)

// Item represents one inventory entry (a movie or an entire show) with the
// decision fields populated during an analysis run.
type Item struct {
	Title       string `json:"title"`
	Year        int    `json:"year,omitempty"`
	PlexID      string `json:"plexId"`
	LibraryID   string `json:"libraryId"`
	LibraryName string `json:"libraryName"`
	MediaType   Type   `json:"mediaType"`
	GUID        string `json:"guid"`

	FilePath   string  `json:"filePath"`
	FileSizeGB float64 `json:"fileSizeGb"`
	Resolution string  `json:"resolution,omitempty"`
	VideoCodec string  `json:"videoCodec,omitempty"`

	AddedDate      time.Time  `json:"addedDate"`
	LastViewedDate *time.Time `json:"lastViewedDate,omitempty"`
	ViewCount      int        `json:"viewCount"`
	Rating         *float64   `json:"rating,omitempty"`

	HasNLAudio  bool     `json:"hasNlAudio"`
	AudioTracks []string `json:"audioTracks,omitempty"`

	// Show-only fields. For shows ViewCount mirrors WatchedEpisodes.
	TotalEpisodes   int `json:"totalEpisodes,omitempty"`
	WatchedEpisodes int `json:"watchedEpisodes,omitempty"`

	// Decision fields, written by ApplyDecision once per evaluation pass.
	ShouldDelete         bool   `json:"shouldDelete"`
	DeleteReason         string `json:"deleteReason,omitempty"`
	DeletePriority       int    `json:"deletePriority,omitempty"`
	RequiresManualReview bool   `json:"requiresManualReview"`
	IsContinuing         bool   `json:"isContinuing,omitempty"`
	AutoRecommended      bool   `json:"autoRecommended,omitempty"`
}

// Decision is the immutable outcome of evaluating a single item. The rule
// evaluators return Decision values instead of mutating the item so partial
// writes cannot leak out of a half-finished evaluation.
type Decision struct {
	ShouldDelete         bool
	Reason               string
	Priority             int
	RequiresManualReview bool
	IsContinuing         bool
	AutoRecommended      bool
}

// ApplyDecision merges a decision into the item, replacing any outcome from a
// previous run so re-evaluation stays idempotent.
func (i *Item) ApplyDecision(d Decision) {
	i.ShouldDelete = d.ShouldDelete
	i.DeleteReason = d.Reason
	i.DeletePriority = d.Priority
	i.RequiresManualReview = d.RequiresManualReview
	i.IsContinuing = d.IsContinuing
	i.AutoRecommended = d.AutoRecommended
}

// AgeYears returns the item's age in fractional Julian years (365.25 days)
// relative to now. Thresholds in rule sets are expressed in the same unit.
func (i *Item) AgeYears(now time.Time) float64 {
	return YearsBetween(i.AddedDate, now)
}

// YearsSinceLastView returns the fractional years since the last view and
// whether the item has ever been viewed.
func (i *Item) YearsSinceLastView(now time.Time) (float64, bool) {
	if i.LastViewedDate == nil {
		return 0, false
	}
	return YearsBetween(*i.LastViewedDate, now), true
}

// YearsBetween converts the span from a to b into fractional Julian years.
func YearsBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24 / 365.25
}

// DeletionPlan is the immutable result of an analysis run: every item that is
// either auto-flagged or surfaced for manual review with a reason.
type DeletionPlan struct {
	Timestamp     time.Time      `json:"timestamp"`
	TotalItems    int            `json:"totalItems"`
	TotalSizeGB   float64        `json:"totalSizeGb"`
	ItemsByReason map[string]int `json:"itemsByReason"`
	Items         []*Item        `json:"items"`
}
