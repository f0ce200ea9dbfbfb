package config

// RuleSet holds the cleanup thresholds for one named rule set. Libraries
// reference rule sets by name; a single struct carries both movie and show
// thresholds so mixed defaults (kids_movies, anime) stay one mapping.
//
// All values are optional in the config file. Normalize replaces zero values
// with the documented defaults, so consumers never default ad hoc.
type RuleSet struct {
	// Movie thresholds.
	UnwatchedAgeYears       float64 `mapstructure:"unwatched_age_years" yaml:"unwatched_age_years" json:"unwatchedAgeYears"`
	WatchedAgeYears         float64 `mapstructure:"watched_age_years" yaml:"watched_age_years" json:"watchedAgeYears"`
	LowRatingThreshold      float64 `mapstructure:"low_rating_threshold" yaml:"low_rating_threshold" json:"lowRatingThreshold"`
	LowRatingAgeYears       float64 `mapstructure:"low_rating_age_years" yaml:"low_rating_age_years" json:"lowRatingAgeYears"`
	LargeFileGB             float64 `mapstructure:"large_file_gb" yaml:"large_file_gb" json:"largeFileGb"`
	LargeFileUnwatchedYears float64 `mapstructure:"large_file_unwatched_years" yaml:"large_file_unwatched_years" json:"largeFileUnwatchedYears"`

	// Show thresholds (analysis only, shows are never auto-flagged).
	FullyWatchedAgeYears     float64 `mapstructure:"fully_watched_age_years" yaml:"fully_watched_age_years" json:"fullyWatchedAgeYears"`
	PartiallyWatchedAgeYears float64 `mapstructure:"partially_watched_age_years" yaml:"partially_watched_age_years" json:"partiallyWatchedAgeYears"`
}

// Default rule thresholds, in years except LowRatingThreshold (0-10 rating
// scale) and LargeFileGB (gigabytes).
const (
	DefaultUnwatchedAgeYears        = 5.0
	DefaultWatchedAgeYears          = 2.0
	DefaultLowRatingThreshold       = 3.0
	DefaultLowRatingAgeYears        = 1.0
	DefaultLargeFileGB              = 50.0
	DefaultLargeFileUnwatchedYears  = 3.0
	DefaultFullyWatchedAgeYears     = 0.5
	DefaultPartiallyWatchedAgeYears = 2.0
)

// DefaultRuleSet returns a rule set with every threshold at its default.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		UnwatchedAgeYears:        DefaultUnwatchedAgeYears,
		WatchedAgeYears:          DefaultWatchedAgeYears,
		LowRatingThreshold:       DefaultLowRatingThreshold,
		LowRatingAgeYears:        DefaultLowRatingAgeYears,
		LargeFileGB:              DefaultLargeFileGB,
		LargeFileUnwatchedYears:  DefaultLargeFileUnwatchedYears,
		FullyWatchedAgeYears:     DefaultFullyWatchedAgeYears,
		PartiallyWatchedAgeYears: DefaultPartiallyWatchedAgeYears,
	}
}

// Normalize fills unset (zero) thresholds with their defaults.
func (r RuleSet) Normalize() RuleSet {
	if r.UnwatchedAgeYears <= 0 {
		r.UnwatchedAgeYears = DefaultUnwatchedAgeYears
	}
	if r.WatchedAgeYears <= 0 {
		r.WatchedAgeYears = DefaultWatchedAgeYears
	}
	if r.LowRatingThreshold <= 0 {
		r.LowRatingThreshold = DefaultLowRatingThreshold
	}
	if r.LowRatingAgeYears <= 0 {
		r.LowRatingAgeYears = DefaultLowRatingAgeYears
	}
	if r.LargeFileGB <= 0 {
		r.LargeFileGB = DefaultLargeFileGB
	}
	if r.LargeFileUnwatchedYears <= 0 {
		r.LargeFileUnwatchedYears = DefaultLargeFileUnwatchedYears
	}
	if r.FullyWatchedAgeYears <= 0 {
		r.FullyWatchedAgeYears = DefaultFullyWatchedAgeYears
	}
	if r.PartiallyWatchedAgeYears <= 0 {
		r.PartiallyWatchedAgeYears = DefaultPartiallyWatchedAgeYears
	}
	return r
}
