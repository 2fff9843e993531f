package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/tally/internal/storage"
)

// parseActivity converts a Redis hash to Activity
func parseActivity(data map[string]string) (*storage.Activity, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &storage.Activity{
		ID:        data["id"],
		Name:      data["name"],
		Icon:      data["icon"],
		Color:     data["color"],
		CreatedAt: createdAt,
	}, nil
}

// parseTimeEntry converts a Redis hash to TimeEntry
func parseTimeEntry(data map[string]string) (*storage.TimeEntry, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	duration, err := strconv.ParseInt(data["duration"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	date, err := time.Parse(time.RFC3339Nano, data["date"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}

	startTime, err := time.Parse(time.RFC3339Nano, data["start_time"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse start_time: %w", err)
	}

	return &storage.TimeEntry{
		ID:         data["id"],
		ActivityID: data["activity_id"],
		Duration:   time.Duration(duration),
		Date:       date,
		StartTime:  startTime,
	}, nil
}

// parseGoal converts a Redis hash to Goal
func parseGoal(data map[string]string) (*storage.Goal, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	targetHours, err := strconv.ParseFloat(data["target_hours"], 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target_hours: %w", err)
	}

	timeframe, err := storage.ParseTimeframe(data["timeframe"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse timeframe: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &storage.Goal{
		ID:          data["id"],
		ActivityID:  data["activity_id"],
		TargetHours: targetHours,
		Timeframe:   timeframe,
		CreatedAt:   createdAt,
	}, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// scoreBound renders a sorted-set bound in whole seconds; callers re-filter
// precisely after the range read.
func scoreBound(t *time.Time, fallback string, roundUp bool) string {
	if t == nil {
		return fallback
	}
	secs := t.Unix()
	if roundUp && t.Nanosecond() > 0 {
		secs++
	}
	return strconv.FormatInt(secs, 10)
}
