package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/tally/internal/clock"
	"github.com/goodtune/tally/internal/storage"
	"github.com/rs/zerolog"
)

// Service builds reports from the entry store
type Service struct {
	store  storage.Store
	logger zerolog.Logger
}

// Summary aggregates one timeframe ending at a reference time.
type Summary struct {
	Timeframe          storage.Timeframe
	Window             Window
	Total              time.Duration
	AverageDaily       time.Duration
	ActiveActivities   int
	Activities         []ActivityTotal
	BestDay            DayTotal
	HasBestDay         bool
	MostActiveWeekday  time.Weekday
	HasMostActiveDay   bool
	CurrentStreak      int
	LongestStreak      int
	GoalCompletionRate float64
}

// DayIntensity is one cell of the calendar heat map.
type DayIntensity struct {
	Day       time.Time
	Duration  time.Duration
	Intensity float64
}

// DayReport lists what was tracked on one day.
type DayReport struct {
	Day        time.Time
	Total      time.Duration
	Activities []ActivityTotal
}

// GoalStatus is a goal with its current progress.
type GoalStatus struct {
	Goal     storage.Goal
	Activity storage.Activity
	Window   Window
	Actual   time.Duration
	Progress float64
}

// NewService creates a report service over store
func NewService(store storage.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "analytics").Logger(),
	}
}

// Summary reports totals, breakdown, streaks and goal completion for the
// timeframe ending at ref.
func (s *Service) Summary(ctx context.Context, timeframe storage.Timeframe, ref time.Time) (*Summary, error) {
	activities, err := s.store.Activities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	// Streaks look past the window, so load everything once.
	all, err := s.store.Entries().Query(ctx, storage.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	goals, err := s.store.Goals().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	w := WindowFor(timeframe, ref)
	inWindow := make([]storage.TimeEntry, 0, len(all))
	for _, e := range all {
		if w.Contains(e.Date) {
			inWindow = append(inWindow, e)
		}
	}

	summary := &Summary{
		Timeframe:          timeframe,
		Window:             w,
		Total:              DurationInWindow(all, w.Start, w.End),
		ActiveActivities:   ActiveCount(inWindow),
		Activities:         Breakdown(activities, inWindow),
		CurrentStreak:      CurrentStreak(all, ref),
		LongestStreak:      LongestStreak(all),
		GoalCompletionRate: GoalCompletionRate(goals, all, ref),
	}
	summary.AverageDaily = AverageDaily(summary.Total, timeframe)
	summary.BestDay, summary.HasBestDay = BestDay(inWindow)
	summary.MostActiveWeekday, _, summary.HasMostActiveDay = MostActiveWeekday(inWindow)

	s.logger.Debug().
		Str("timeframe", string(timeframe)).
		Int("entries", len(inWindow)).
		Dur("total", summary.Total).
		Msg("Built summary")

	return summary, nil
}

// Calendar returns one intensity per calendar day of month's month.
func (s *Service) Calendar(ctx context.Context, month time.Time, capHours float64) ([]DayIntensity, error) {
	y, m, _ := month.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, month.Location())
	last := first.AddDate(0, 1, -1)

	entries, err := s.store.Entries().Query(ctx, storage.EntryFilter{Start: &first, End: &last})
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	totals := make(map[string]time.Duration)
	for _, d := range DailyTotals(entries) {
		totals[dayKey(d.Day)] = d.Duration
	}

	days := make([]DayIntensity, 0, last.Day())
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, DayIntensity{
			Day:       day,
			Duration:  totals[dayKey(day)],
			Intensity: DailyIntensity(entries, day, capHours),
		})
	}
	return days, nil
}

// Day returns the per-activity breakdown for one calendar day.
func (s *Service) Day(ctx context.Context, day time.Time) (*DayReport, error) {
	activities, err := s.store.Activities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	start := clock.StartOfDay(day)
	entries, err := s.store.Entries().Query(ctx, storage.EntryFilter{Start: &start, End: &start})
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	rows := Breakdown(activities, entries)
	report := &DayReport{Day: start, Activities: rows}
	for _, r := range rows {
		report.Total += r.Duration
	}
	return report, nil
}

// Goals returns every goal with its progress over the window ending today,
// in activity creation order.
func (s *Service) Goals(ctx context.Context, today time.Time) ([]GoalStatus, error) {
	activities, err := s.store.Activities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	goals, err := s.store.Goals().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	byActivity := make(map[string]storage.Goal, len(goals))
	for _, g := range goals {
		byActivity[g.ActivityID] = g
	}

	statuses := make([]GoalStatus, 0, len(goals))
	for _, activity := range activities {
		g, ok := byActivity[activity.ID]
		if !ok {
			continue
		}

		w := WindowFor(g.Timeframe, today)
		entries, err := s.store.Entries().Query(ctx, storage.EntryFilter{
			ActivityID: g.ActivityID,
			Start:      &w.Start,
			End:        &w.End,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query entries for %s: %w", g.ActivityID, err)
		}

		actual := goalActual(g, entries, today)
		statuses = append(statuses, GoalStatus{
			Goal:     g,
			Activity: activity,
			Window:   w,
			Actual:   actual,
			Progress: progress(g, actual),
		})
	}

	if len(statuses) != len(goals) {
		s.logger.Warn().
			Int("goals", len(goals)).
			Int("resolved", len(statuses)).
			Msg("Skipped goals without an activity")
	}

	return statuses, nil
}

// Today returns every activity with the time tracked on today's calendar
// day, in activity creation order. Activities with no time are included.
func (s *Service) Today(ctx context.Context, today time.Time) ([]ActivityTotal, error) {
	activities, err := s.store.Activities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	start := clock.StartOfDay(today)
	entries, err := s.store.Entries().Query(ctx, storage.EntryFilter{Start: &start, End: &start})
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	totals := TotalsByActivity(entries)
	var overall time.Duration
	for _, a := range activities {
		overall += totals[a.ID]
	}

	rows := make([]ActivityTotal, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, ActivityTotal{
			Activity:   a,
			Duration:   totals[a.ID],
			Percentage: PercentageOf(totals[a.ID], overall),
		})
	}
	return rows, nil
}
