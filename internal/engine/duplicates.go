package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plexsweep/plexsweep/internal/media"
)

// Duplicate scoring constants. Kept as named tables so scoring policy changes
// stay configuration-shaped, not scattered magic numbers.
const (
	nlAudioBonus     = 1000.0
	sizePenaltyPerGB = 0.1
)

// qualityScores ranks resolutions on a fixed ladder; unknown scores zero.
var qualityScores = map[string]float64{
	"2160p": 400,
	"1080p": 300,
	"720p":  200,
	"480p":  100,
}

// codecScores rewards modern codecs; unknown codecs score zero.
var codecScores = map[string]float64{
	"hevc": 30,
	"h265": 30,
	"h264": 20,
	"x264": 20,
}

// dupKey is the composite identity for grouping copies of the same content.
type dupKey struct {
	title     string
	year      int
	libraryID string
}

// DuplicateScore computes the keep-worthiness of one duplicate candidate:
// NL-audio bonus plus quality and codec ladder scores, minus a small size
// penalty so the smaller file wins when everything else is equal.
func DuplicateScore(it *media.Item, nlPriority bool) float64 {
	score := 0.0
	if nlPriority && it.HasNLAudio {
		score += nlAudioBonus
	}
	score += qualityScores[it.Resolution]
	score += codecScores[strings.ToLower(it.VideoCodec)]
	score -= it.FileSizeGB * sizePenaltyPerGB
	return score
}

// ResolveDuplicates groups items sharing (title, year, library), keeps the
// highest-scoring copy of each group and marks the rest for deletion.
// Returns the number of groups of size two or more.
//
// Items already flagged by the rule evaluators are excluded so their reason
// is not overwritten; continuing shows are excluded so the continuing-series
// advisory stays intact. Ties in score are broken by input order: the
// first-seen item wins, which keeps the pass deterministic and idempotent.
func ResolveDuplicates(items []*media.Item, nlPriority bool) int {
	groups := make(map[dupKey][]*media.Item)
	for _, it := range items {
		if it.ShouldDelete || it.IsContinuing {
			continue
		}
		key := dupKey{title: it.Title, year: it.Year, libraryID: it.LibraryID}
		groups[key] = append(groups[key], it)
	}

	resolved := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		resolved++
		resolveGroup(group, nlPriority)
	}
	return resolved
}

// resolveGroup picks the keeper and marks the losers. The group slice
// preserves input order, so a stable sort keeps first-seen-wins tie-breaks.
func resolveGroup(group []*media.Item, nlPriority bool) {
	sorted := make([]*media.Item, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return DuplicateScore(sorted[i], nlPriority) > DuplicateScore(sorted[j], nlPriority)
	})

	keeper := sorted[0]
	for _, loser := range sorted[1:] {
		reason := duplicateReason(keeper, loser, nlPriority)

		// Shows stay analysis-only even when they lose a duplicate group:
		// the advisory surfaces in the plan through the manual-review path.
		loser.ApplyDecision(media.Decision{
			ShouldDelete:         loser.MediaType == media.TypeMovie,
			Reason:               reason,
			Priority:             PriorityDuplicate,
			RequiresManualReview: loser.MediaType == media.TypeShow,
		})
	}
}

// duplicateReason names the factor that decided the group, preferring NL
// audio over resolution over the generic message.
func duplicateReason(keeper, loser *media.Item, nlPriority bool) string {
	switch {
	case nlPriority && keeper.HasNLAudio && !loser.HasNLAudio:
		return "Duplicate of better version (other has NL audio)"
	case keeper.Resolution != loser.Resolution:
		return fmt.Sprintf("Duplicate of better version (other is %s vs %s)",
			displayResolution(keeper.Resolution), displayResolution(loser.Resolution))
	default:
		return "Duplicate of better version"
	}
}

func displayResolution(res string) string {
	if res == "" {
		return "unknown"
	}
	return res
}
