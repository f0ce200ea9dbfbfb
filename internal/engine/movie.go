package engine

import (
	"fmt"
	"time"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
)

// Deletion priorities, higher is more urgent. Duplicates outrank every
// single-item rule so they surface first in the plan.
const (
	PriorityInformational  = 0
	PriorityWatchedStale   = 2
	PriorityUnwatchedOld   = 3
	PriorityLowRating      = 4
	PriorityLargeUnwatched = 5
	PriorityDuplicate      = 6
)

// movieRule is one (predicate, outcome) pair in the movie rule chain.
// match returns the reason and priority when the rule applies.
type movieRule struct {
	name  string
	match func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool)
}

// movieRules is the ordered rule chain for movies. Evaluation is
// first-match-wins: order encodes intent, not priority values.
var movieRules = []movieRule{
	{
		name: "unwatched-old",
		match: func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool) {
			age := it.AgeYears(now)
			if it.ViewCount == 0 && age > rs.UnwatchedAgeYears {
				reason := fmt.Sprintf("Unwatched for %.1f years (threshold: %gy)", age, rs.UnwatchedAgeYears)
				return reason, PriorityUnwatchedOld, true
			}
			return "", 0, false
		},
	},
	{
		name: "watched-stale",
		match: func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool) {
			sinceView, viewed := it.YearsSinceLastView(now)
			if it.ViewCount > 0 && viewed && sinceView > rs.WatchedAgeYears {
				reason := fmt.Sprintf("Last watched %.1f years ago (threshold: %gy)", sinceView, rs.WatchedAgeYears)
				return reason, PriorityWatchedStale, true
			}
			return "", 0, false
		},
	},
	{
		name: "low-rating",
		match: func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool) {
			age := it.AgeYears(now)
			if it.Rating != nil && *it.Rating < rs.LowRatingThreshold && age > rs.LowRatingAgeYears {
				reason := fmt.Sprintf("Low rating (%.1f) and %.1f years old", *it.Rating, age)
				return reason, PriorityLowRating, true
			}
			return "", 0, false
		},
	},
	{
		name: "large-unwatched",
		match: func(it *media.Item, rs config.RuleSet, now time.Time) (string, int, bool) {
			age := it.AgeYears(now)
			if it.ViewCount == 0 && it.FileSizeGB > rs.LargeFileGB && age > rs.LargeFileUnwatchedYears {
				reason := fmt.Sprintf("Large file (%.1fGB) unwatched for %.1f years", it.FileSizeGB, age)
				return reason, PriorityLargeUnwatched, true
			}
			return "", 0, false
		},
	},
}

// EvaluateMovie runs the movie rule chain against one item and returns the
// resulting decision. A match auto-flags the movie for deletion; no match
// leaves it untouched. Movies never require manual review.
func EvaluateMovie(it *media.Item, rules config.RuleSet, now time.Time) media.Decision {
	for _, rule := range movieRules {
		if reason, priority, ok := rule.match(it, rules, now); ok {
			return media.Decision{
				ShouldDelete:    true,
				Reason:          reason,
				Priority:        priority,
				AutoRecommended: true,
			}
		}
	}
	return media.Decision{}
}
