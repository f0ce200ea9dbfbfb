package engine

import (
	"math"
	"time"

	"github.com/plexsweep/plexsweep/internal/media"
)

// BuildPlan selects every item that is auto-flagged for deletion or surfaced
// for manual review with a non-empty reason, and aggregates them into an
// immutable deletion plan. Advisory shows enter the plan this way without
// ever being authorized for auto-deletion.
func BuildPlan(items []*media.Item, now time.Time) *media.DeletionPlan {
	var selected []*media.Item
	totalSize := 0.0
	byReason := make(map[string]int)

	for _, it := range items {
		if !it.ShouldDelete && !(it.RequiresManualReview && it.DeleteReason != "") {
			continue
		}
		selected = append(selected, it)
		totalSize += it.FileSizeGB
		byReason[it.DeleteReason]++
	}

	return &media.DeletionPlan{
		Timestamp:     now,
		TotalItems:    len(selected),
		TotalSizeGB:   math.Round(totalSize*100) / 100,
		ItemsByReason: byReason,
		Items:         selected,
	}
}
