package engine

import (
	"strings"
	"testing"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
)

func testShow(title string) *media.Item {
	return &media.Item{
		Title:       title,
		Year:        2018,
		PlexID:      "s-" + title,
		LibraryID:   "3",
		LibraryName: "TV Shows",
		MediaType:   media.TypeShow,
		FilePath:    "/tv/" + title,
		FileSizeGB:  40,
		AddedDate:   yearsAgo(2),
	}
}

func TestEvaluateShow_NeverAutoDeletes(t *testing.T) {
	rules := config.DefaultRuleSet()

	cases := []struct {
		name string
		it   func() *media.Item
	}{
		{"fully watched stale", func() *media.Item {
			it := testShow("Done")
			it.TotalEpisodes = 10
			it.WatchedEpisodes = 10
			it.ViewCount = 10
			it.LastViewedDate = timePtr(yearsAgo(1))
			return it
		}},
		{"never watched old", func() *media.Item {
			it := testShow("Untouched")
			it.AddedDate = yearsAgo(6)
			it.TotalEpisodes = 20
			return it
		}},
		{"abandoned", func() *media.Item {
			it := testShow("Dropped")
			it.TotalEpisodes = 20
			it.WatchedEpisodes = 5
			it.ViewCount = 5
			it.LastViewedDate = timePtr(yearsAgo(3))
			return it
		}},
		{"no rule matches", func() *media.Item {
			it := testShow("Active")
			it.TotalEpisodes = 10
			it.WatchedEpisodes = 4
			it.ViewCount = 4
			it.LastViewedDate = timePtr(yearsAgo(0.1))
			return it
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := EvaluateShow(tc.it(), rules, false, testNow)
			if d.ShouldDelete {
				t.Error("ShouldDelete = true for a show, must always be false")
			}
			if !d.RequiresManualReview {
				t.Error("RequiresManualReview = false for a show, must always be true")
			}
		})
	}
}

func TestEvaluateShow_ContinuingGateStopsEvaluation(t *testing.T) {
	rules := config.DefaultRuleSet()

	// Also fully watched and stale; the continuing gate must win.
	it := testShow("Ongoing")
	it.TotalEpisodes = 8
	it.WatchedEpisodes = 8
	it.ViewCount = 8
	it.LastViewedDate = timePtr(yearsAgo(2))

	d := EvaluateShow(it, rules, true, testNow)
	if !d.IsContinuing {
		t.Error("IsContinuing = false, want true")
	}
	if d.Reason != ContinuingSeriesReason {
		t.Errorf("Reason = %q, want %q", d.Reason, ContinuingSeriesReason)
	}
	if d.Priority != PriorityInformational {
		t.Errorf("Priority = %d, want %d", d.Priority, PriorityInformational)
	}
}

func TestEvaluateShow_FullyWatchedStale(t *testing.T) {
	rules := config.DefaultRuleSet()

	it := testShow("Done")
	it.TotalEpisodes = 12
	it.WatchedEpisodes = 12
	it.ViewCount = 12
	it.LastViewedDate = timePtr(yearsAgo(1))

	d := EvaluateShow(it, rules, false, testNow)
	if d.Priority != PriorityWatchedStale {
		t.Errorf("Priority = %d, want %d", d.Priority, PriorityWatchedStale)
	}
	if !strings.Contains(d.Reason, "Fully watched") {
		t.Errorf("Reason = %q", d.Reason)
	}
}

func TestEvaluateShow_ZeroEpisodesIsNotFullyWatched(t *testing.T) {
	rules := config.DefaultRuleSet()

	it := testShow("Empty")
	it.TotalEpisodes = 0
	it.WatchedEpisodes = 0
	it.AddedDate = yearsAgo(1)

	d := EvaluateShow(it, rules, false, testNow)
	if strings.Contains(d.Reason, "Fully watched") {
		t.Errorf("zero-episode show matched fully-watched rule: %q", d.Reason)
	}
}

func TestEvaluateShow_NeverWatchedOld(t *testing.T) {
	rules := config.DefaultRuleSet()

	it := testShow("Untouched")
	it.AddedDate = yearsAgo(5.5)
	it.TotalEpisodes = 24

	d := EvaluateShow(it, rules, false, testNow)
	if d.Priority != PriorityUnwatchedOld {
		t.Errorf("Priority = %d, want %d", d.Priority, PriorityUnwatchedOld)
	}
	if !strings.Contains(d.Reason, "Never watched") {
		t.Errorf("Reason = %q", d.Reason)
	}
}

func TestEvaluateShow_PartiallyWatchedAbandoned(t *testing.T) {
	rules := config.DefaultRuleSet()

	it := testShow("Dropped")
	it.TotalEpisodes = 20
	it.WatchedEpisodes = 5
	it.ViewCount = 5
	it.LastViewedDate = timePtr(yearsAgo(2.5))

	d := EvaluateShow(it, rules, false, testNow)
	if d.Priority != PriorityLowRating {
		t.Errorf("Priority = %d, want %d", d.Priority, PriorityLowRating)
	}
	if !strings.Contains(d.Reason, "25% watched") {
		t.Errorf("Reason = %q, want watch percentage", d.Reason)
	}
}

func TestEvaluateShow_NoMatchLeavesReasonEmpty(t *testing.T) {
	rules := config.DefaultRuleSet()

	it := testShow("Active")
	it.TotalEpisodes = 10
	it.WatchedEpisodes = 3
	it.ViewCount = 3
	it.LastViewedDate = timePtr(yearsAgo(0.2))

	d := EvaluateShow(it, rules, false, testNow)
	if d.Reason != "" {
		t.Errorf("Reason = %q, want empty", d.Reason)
	}
	if !d.RequiresManualReview {
		t.Error("RequiresManualReview = false, want true even without a match")
	}
}
