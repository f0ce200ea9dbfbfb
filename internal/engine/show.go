package engine

import (
	"fmt"
	"time"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
)

// ContinuingSeriesReason is the advisory message forced onto shows the
// external tracker reports as still running. Nothing may overwrite it.
const ContinuingSeriesReason = "Continuing series - not recommended for deletion"

// showRule is one (predicate, outcome) pair in the show rule chain.
type showRule struct {
	name  string
	match func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool)
}

// showRules is the ordered, first-match-wins advisory chain for shows.
// It runs only when the continuing-series gate has not fired.
var showRules = []showRule{
	{
		name: "fully-watched-stale",
		match: func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool) {
			sinceView, viewed := it.YearsSinceLastView(now)
			if it.TotalEpisodes > 0 && it.WatchedEpisodes == it.TotalEpisodes &&
				viewed && sinceView > rs.FullyWatchedAgeYears {
				reason := fmt.Sprintf("Fully watched, last view %.1f years ago", sinceView)
				return reason, PriorityWatchedStale, true
			}
			return "", 0, false
		},
	},
	{
		name: "never-watched-old",
		match: func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool) {
			age := it.AgeYears(now)
			if it.WatchedEpisodes == 0 && age > rs.UnwatchedAgeYears {
				reason := fmt.Sprintf("Never watched, added %.1f years ago", age)
				return reason, PriorityUnwatchedOld, true
			}
			return "", 0, false
		},
	},
	{
		name: "partially-watched-abandoned",
		match: func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool) {
			sinceView, viewed := it.YearsSinceLastView(now)
			if it.WatchedEpisodes > 0 && it.WatchedEpisodes < it.TotalEpisodes &&
				viewed && sinceView > rs.PartiallyWatchedAgeYears {
				pct := float64(it.WatchedEpisodes) / float64(it.TotalEpisodes) * 100
				reason := fmt.Sprintf("%.0f%% watched, abandoned %.1f years ago", pct, sinceView)
				return reason, PriorityLowRating, true
			}
			return "", 0, false
		},
	},
}

// EvaluateShow evaluates a show in analysis-only mode. Shows are never
// auto-flagged: the decision carries an advisory reason and priority for
// manual review, with ShouldDelete always false.
//
// The continuing-series gate is checked first and stops all further
// evaluation so a continuing show's advisory can never suggest deletion.
func EvaluateShow(it *media.Item, rules config.RuleSet, continuing bool, now time.Time) media.Decision {
	decision := media.Decision{RequiresManualReview: true}

	if continuing {
		decision.IsContinuing = true
		decision.Reason = ContinuingSeriesReason
		decision.Priority = PriorityInformational
		return decision
	}

	for _, rule := range showRules {
		if reason, priority, ok := rule.match(it, rules, now); ok {
			decision.Reason = reason
			decision.Priority = priority
			return decision
		}
	}
	return decision
}
