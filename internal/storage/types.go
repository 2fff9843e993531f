package storage

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Timeframe is the goal-tracking period unit.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ParseTimeframe normalizes user input into a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return TimeframeDaily, nil
	case "weekly", "week":
		return TimeframeWeekly, nil
	case "monthly", "month":
		return TimeframeMonthly, nil
	default:
		return "", fmt.Errorf("%w: timeframe %q (must be daily, weekly or monthly)", ErrInvalid, s)
	}
}

// UnmarshalJSON implements json.Unmarshaler to normalize the timeframe.
func (t *Timeframe) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeframe(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Activity is a user-defined thing to track time against.
type Activity struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Icon      string    `json:"icon" yaml:"icon"`
	Color     string    `json:"color" yaml:"color"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Validate checks the activity before it is written.
func (a Activity) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: activity id is required", ErrInvalid)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: activity name is required", ErrInvalid)
	}
	return nil
}

// TimeEntry is one finalized timer run.
type TimeEntry struct {
	ID         string        `json:"id" yaml:"id"`
	ActivityID string        `json:"activity_id" yaml:"activity_id"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Date       time.Time     `json:"date" yaml:"date"`             // start of the day the run was stopped
	StartTime  time.Time     `json:"start_time" yaml:"start_time"` // start of the first segment
}

// Validate checks the entry before it is written.
func (e TimeEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: entry id is required", ErrInvalid)
	}
	if e.ActivityID == "" {
		return fmt.Errorf("%w: entry activity is required", ErrInvalid)
	}
	if e.Duration < 0 {
		return fmt.Errorf("%w: entry duration %v is negative", ErrInvalid, e.Duration)
	}
	return nil
}

// Goal is a target amount of time for an activity over a timeframe.
type Goal struct {
	ID          string    `json:"id" yaml:"id"`
	ActivityID  string    `json:"activity_id" yaml:"activity_id"`
	TargetHours float64   `json:"target_hours" yaml:"target_hours"`
	Timeframe   Timeframe `json:"timeframe" yaml:"timeframe"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Target returns the goal target as a duration.
func (g Goal) Target() time.Duration {
	return time.Duration(g.TargetHours * float64(time.Hour))
}

// Validate checks the goal before it is written.
func (g Goal) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: goal id is required", ErrInvalid)
	}
	if g.ActivityID == "" {
		return fmt.Errorf("%w: goal activity is required", ErrInvalid)
	}
	if g.TargetHours <= 0 {
		return fmt.Errorf("%w: goal target must be positive, got %v", ErrInvalid, g.TargetHours)
	}
	if _, err := ParseTimeframe(string(g.Timeframe)); err != nil {
		return err
	}
	return nil
}

// SortActivities orders activities by creation time, then ID.
func SortActivities(activities []Activity) {
	slices.SortStableFunc(activities, func(a, b Activity) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// SortEntries orders entries by start time, then ID.
func SortEntries(entries []TimeEntry) {
	slices.SortStableFunc(entries, func(a, b TimeEntry) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
