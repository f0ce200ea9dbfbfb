package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schedule describes when automatic analysis runs. It is stored in its own
// file next to the main config so the dashboard can update it independently.
type Schedule struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Time       string `yaml:"time" json:"time"`               // HH:MM, 24h
	Cadence    string `yaml:"cadence" json:"cadence"`         // daily, weekly, monthly
	DayOfWeek  string `yaml:"day_of_week" json:"dayOfWeek"`   // weekly only
	DayOfMonth int    `yaml:"day_of_month" json:"dayOfMonth"` // monthly only
}

var timeOfDayRe = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

var weekdays = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

// DefaultSchedule returns a disabled weekly schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		Enabled:    false,
		Time:       "03:00",
		Cadence:    "weekly",
		DayOfWeek:  "sunday",
		DayOfMonth: 1,
	}
}

// Validate checks the schedule fields.
func (s Schedule) Validate() error {
	if !timeOfDayRe.MatchString(s.Time) {
		return fmt.Errorf("invalid time %q, expected HH:MM", s.Time)
	}
	switch s.Cadence {
	case "daily":
	case "weekly":
		if _, ok := weekdays[strings.ToLower(s.DayOfWeek)]; !ok {
			return fmt.Errorf("invalid day of week %q", s.DayOfWeek)
		}
	case "monthly":
		if s.DayOfMonth < 1 || s.DayOfMonth > 28 {
			return fmt.Errorf("day of month %d out of range 1-28", s.DayOfMonth)
		}
	default:
		return fmt.Errorf("invalid cadence %q", s.Cadence)
	}
	return nil
}

// CronExpression converts the schedule to a five-field cron expression.
func (s Schedule) CronExpression() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	m := timeOfDayRe.FindStringSubmatch(s.Time)
	hour, minute := strings.TrimPrefix(m[1], "0"), strings.TrimPrefix(m[2], "0")
	if hour == "" {
		hour = "0"
	}
	if minute == "" {
		minute = "0"
	}
	switch s.Cadence {
	case "daily":
		return fmt.Sprintf("%s %s * * *", minute, hour), nil
	case "weekly":
		return fmt.Sprintf("%s %s * * %d", minute, hour, weekdays[strings.ToLower(s.DayOfWeek)]), nil
	default:
		return fmt.Sprintf("%s %s %d * *", minute, hour, s.DayOfMonth), nil
	}
}

// LoadSchedule reads the schedule file, falling back to the default when the
// file does not exist yet.
func LoadSchedule(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSchedule(), nil
		}
		return Schedule{}, fmt.Errorf("failed to read schedule file: %w", err)
	}
	s := DefaultSchedule()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse schedule file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// SaveSchedule validates and writes the schedule file.
func SaveSchedule(path string, s Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create schedule directory: %w", err)
		}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write schedule file: %w", err)
	}
	return nil
}
