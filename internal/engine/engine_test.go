package engine

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
)

func defaultResolver(libraryID string) (config.RuleSet, bool) {
	return config.DefaultRuleSet(), true
}

func TestEngine_Run(t *testing.T) {
	e := New(defaultResolver, Options{
		DuplicatesEnabled: true,
		NLAudioPriority:   true,
		IsContinuing: func(title string) bool {
			return title == "Ongoing"
		},
	}, zerolog.Nop())

	old := testMovie("Old")
	old.AddedDate = yearsAgo(7)

	dupA := dupMovie("dup-a", "1080p", "hevc", 10, false)
	dupB := dupMovie("dup-b", "720p", "h264", 8, true)

	ongoing := testShow("Ongoing")
	ongoing.TotalEpisodes = 10
	ongoing.WatchedEpisodes = 10
	ongoing.ViewCount = 10
	ongoing.LastViewedDate = timePtr(yearsAgo(2))

	done := testShow("Done")
	done.TotalEpisodes = 6
	done.WatchedEpisodes = 6
	done.ViewCount = 6
	done.LastViewedDate = timePtr(yearsAgo(1))

	items := []*media.Item{old, dupA, dupB, ongoing, done}
	plan := e.Run(items, testNow)

	if !old.ShouldDelete || old.DeletePriority != PriorityUnwatchedOld {
		t.Errorf("old movie decision = %v/%d", old.ShouldDelete, old.DeletePriority)
	}
	if !dupA.ShouldDelete || dupA.DeletePriority != PriorityDuplicate {
		t.Errorf("duplicate loser decision = %v/%d", dupA.ShouldDelete, dupA.DeletePriority)
	}
	if dupB.ShouldDelete {
		t.Error("duplicate keeper flagged for deletion")
	}
	if ongoing.ShouldDelete || !ongoing.IsContinuing || ongoing.DeleteReason != ContinuingSeriesReason {
		t.Errorf("continuing show decision = %+v", ongoing)
	}
	if done.ShouldDelete {
		t.Error("show auto-flagged")
	}
	if done.DeleteReason == "" {
		t.Error("fully watched stale show has no advisory reason")
	}

	// Plan: old movie + duplicate loser + both shows with reasons.
	if plan.TotalItems != 4 {
		t.Errorf("plan TotalItems = %d, want 4", plan.TotalItems)
	}
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	e := New(defaultResolver, Options{DuplicatesEnabled: true, NLAudioPriority: true}, zerolog.Nop())

	build := func() []*media.Item {
		old := testMovie("Old")
		old.AddedDate = yearsAgo(7)
		a := dupMovie("a", "1080p", "hevc", 10, false)
		b := dupMovie("b", "720p", "h264", 8, true)
		s := testShow("Done")
		s.TotalEpisodes = 4
		s.WatchedEpisodes = 4
		s.ViewCount = 4
		s.LastViewedDate = timePtr(yearsAgo(1))
		return []*media.Item{old, a, b, s}
	}

	first := build()
	second := build()
	e.Run(first, testNow)
	e.Run(second, testNow)

	// Re-run the already-decided list as well: decisions must not drift.
	e.Run(first, testNow)

	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Errorf("item %d diverged between runs:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

func TestEngine_UnconfiguredLibrarySkipped(t *testing.T) {
	resolver := func(libraryID string) (config.RuleSet, bool) {
		return config.RuleSet{}, false
	}
	e := New(resolver, Options{}, zerolog.Nop())

	old := testMovie("Old")
	old.AddedDate = yearsAgo(10)

	plan := e.Run([]*media.Item{old}, testNow)
	if old.ShouldDelete {
		t.Error("item from unconfigured library evaluated")
	}
	if plan.TotalItems != 0 {
		t.Errorf("plan TotalItems = %d, want 0", plan.TotalItems)
	}
}

func TestEngine_NilContinuationLookupFailsOpen(t *testing.T) {
	e := New(defaultResolver, Options{}, zerolog.Nop())

	s := testShow("Maybe")
	s.TotalEpisodes = 5
	s.WatchedEpisodes = 5
	s.ViewCount = 5
	s.LastViewedDate = timePtr(yearsAgo(1))

	e.Run([]*media.Item{s}, testNow)
	if s.IsContinuing {
		t.Error("IsContinuing = true without a lookup, want false (fail open)")
	}
	if s.DeleteReason == "" {
		t.Error("analysis suppressed when lookup is unavailable")
	}
}
