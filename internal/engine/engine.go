// Package engine implements the cleanup decision engine: the movie and show
// rule evaluators, the duplicate resolver and the plan aggregator.
//
// The engine is a pure, single-threaded computation over an in-memory item
// list. It performs no I/O, takes the current time as a parameter and is
// idempotent: re-running with identical inputs produces identical decisions.
package engine

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/media"
)

// RuleResolver returns the rule set for a library, or false when the library
// is not configured for cleanup. Items from unconfigured libraries are left
// untouched.
type RuleResolver func(libraryID string) (config.RuleSet, bool)

// ContinuationLookup reports whether a series is still continuing. Callers
// snapshot the external tracker state before a run so the engine stays free
// of network calls; a lookup failure or unknown title must report false.
type ContinuationLookup func(title string) bool

// SnapshotLookup builds a ContinuationLookup over a snapshot of
// lowercased continuing-series titles.
func SnapshotLookup(continuing map[string]bool) ContinuationLookup {
	return func(title string) bool {
		return continuing[strings.ToLower(title)]
	}
}

// Options configure a single evaluation run.
type Options struct {
	DuplicatesEnabled bool
	NLAudioPriority   bool
	IsContinuing      ContinuationLookup
}

// Engine evaluates a scanned item list into a deletion plan.
type Engine struct {
	rules  RuleResolver
	opts   Options
	logger zerolog.Logger
}

// New creates a decision engine.
func New(rules RuleResolver, opts Options, logger zerolog.Logger) *Engine {
	return &Engine{
		rules:  rules,
		opts:   opts,
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// Run applies the rule evaluators to every item, resolves duplicates among
// the survivors and aggregates the result into a deletion plan. Decision
// fields on the items are overwritten; all other fields are read-only.
func (e *Engine) Run(items []*media.Item, now time.Time) *media.DeletionPlan {
	for _, item := range items {
		rules, ok := e.rules(item.LibraryID)
		if !ok {
			e.logger.Debug().
				Str("title", item.Title).
				Str("libraryId", item.LibraryID).
				Msg("no rule set configured for library, skipping")
			continue
		}

		switch item.MediaType {
		case media.TypeMovie:
			item.ApplyDecision(EvaluateMovie(item, rules, now))
		case media.TypeShow:
			continuing := false
			if e.opts.IsContinuing != nil {
				continuing = e.opts.IsContinuing(item.Title)
			}
			item.ApplyDecision(EvaluateShow(item, rules, continuing, now))
		}
	}

	if e.opts.DuplicatesEnabled {
		groups := ResolveDuplicates(items, e.opts.NLAudioPriority)
		e.logger.Info().Int("groups", groups).Msg("duplicate groups resolved")
	} else {
		e.logger.Info().Msg("duplicate detection disabled")
	}

	return BuildPlan(items, now)
}
