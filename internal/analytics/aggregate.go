// Package analytics turns stored time entries into totals, percentages,
// calendar intensities, streaks and goal progress.
//
// Everything in this file is a pure function of its inputs. Windows compare
// against TimeEntry.Date, the start of the day the run was stopped, and are
// inclusive at both ends.
package analytics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goodtune/tally/internal/clock"
	"github.com/goodtune/tally/internal/storage"
)

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ActivityTotal is one row of a per-activity breakdown.
type ActivityTotal struct {
	Activity   storage.Activity
	Duration   time.Duration
	Percentage float64
}

// DayTotal is the tracked time for one calendar day.
type DayTotal struct {
	Day      time.Time
	Duration time.Duration
}

// DurationInWindow sums entry durations whose date is within [start, end].
func DurationInWindow(entries []storage.TimeEntry, start, end time.Time) time.Duration {
	w := Window{Start: start, End: end}
	var total time.Duration
	for _, e := range entries {
		if w.Contains(e.Date) {
			total += e.Duration
		}
	}
	return total
}

// WindowFor returns the window a timeframe covers, ending at ref. Monthly
// windows start on the same day of the previous month, clamped to that
// month's length.
func WindowFor(timeframe storage.Timeframe, ref time.Time) Window {
	switch timeframe {
	case storage.TimeframeWeekly:
		return Window{Start: ref.AddDate(0, 0, -7), End: ref}
	case storage.TimeframeMonthly:
		return Window{Start: subtractMonth(ref), End: ref}
	default:
		return Window{Start: clock.StartOfDay(ref), End: ref}
	}
}

func subtractMonth(t time.Time) time.Time {
	y, m, d := t.Date()
	hour, minute, sec := t.Clock()

	// Day 0 of month m is the last day of month m-1.
	lastDay := time.Date(y, m, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(y, m-1, d, hour, minute, sec, t.Nanosecond(), t.Location())
}

// PercentageOf returns part as a percentage of total, or 0 when total is 0.
func PercentageOf(part, total time.Duration) float64 {
	if total <= 0 || part <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// DailyIntensity returns the share of capHours tracked on day's calendar
// day, clamped to [0, 1].
func DailyIntensity(entries []storage.TimeEntry, day time.Time, capHours float64) float64 {
	if capHours <= 0 {
		return 0
	}

	key := dayKey(day)
	var total time.Duration
	for _, e := range entries {
		if dayKey(e.Date) == key {
			total += e.Duration
		}
	}

	intensity := total.Hours() / capHours
	return min(max(intensity, 0), 1)
}

// GoalProgress returns how much of the goal has been met over its current
// window ending at today, as a percentage capped at 100.
func GoalProgress(goal storage.Goal, entries []storage.TimeEntry, today time.Time) float64 {
	return progress(goal, goalActual(goal, entries, today))
}

func goalActual(goal storage.Goal, entries []storage.TimeEntry, today time.Time) time.Duration {
	w := WindowFor(goal.Timeframe, today)
	var actual time.Duration
	for _, e := range entries {
		if e.ActivityID == goal.ActivityID && w.Contains(e.Date) {
			actual += e.Duration
		}
	}
	return actual
}

func progress(goal storage.Goal, actual time.Duration) float64 {
	target := goal.Target()
	if target <= 0 {
		return 0
	}
	ratio := float64(actual) / float64(target)
	return min(max(ratio, 0), 1) * 100
}

// TotalsByActivity sums durations per activity ID.
func TotalsByActivity(entries []storage.TimeEntry) map[string]time.Duration {
	totals := make(map[string]time.Duration)
	for _, e := range entries {
		totals[e.ActivityID] += e.Duration
	}
	return totals
}

// ActiveCount returns the number of activities with a positive total.
func ActiveCount(entries []storage.TimeEntry) int {
	count := 0
	for _, total := range TotalsByActivity(entries) {
		if total > 0 {
			count++
		}
	}
	return count
}

// Breakdown returns each activity with tracked time and its share of the
// overall total, largest first. Ties are ordered by name.
func Breakdown(activities []storage.Activity, entries []storage.TimeEntry) []ActivityTotal {
	totals := TotalsByActivity(entries)

	var overall time.Duration
	for _, a := range activities {
		if d := totals[a.ID]; d > 0 {
			overall += d
		}
	}

	rows := make([]ActivityTotal, 0, len(activities))
	for _, a := range activities {
		d := totals[a.ID]
		if d <= 0 {
			continue
		}
		rows = append(rows, ActivityTotal{
			Activity:   a,
			Duration:   d,
			Percentage: PercentageOf(d, overall),
		})
	}

	slices.SortStableFunc(rows, func(a, b ActivityTotal) int {
		if a.Duration != b.Duration {
			if a.Duration > b.Duration {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Activity.Name, b.Activity.Name)
	})
	return rows
}

// DailyTotals returns the tracked time per calendar day, oldest first.
func DailyTotals(entries []storage.TimeEntry) []DayTotal {
	index := make(map[string]int)
	var days []DayTotal
	for _, e := range entries {
		key := dayKey(e.Date)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, DayTotal{Day: clock.StartOfDay(e.Date)})
		}
		days[i].Duration += e.Duration
	}

	slices.SortFunc(days, func(a, b DayTotal) int {
		return strings.Compare(dayKey(a.Day), dayKey(b.Day))
	})
	return days
}

// BestDay returns the day with the most tracked time. The earliest day wins
// a tie. ok is false when nothing positive was tracked.
func BestDay(entries []storage.TimeEntry) (best DayTotal, ok bool) {
	for _, d := range DailyTotals(entries) {
		if d.Duration > best.Duration {
			best = d
			ok = true
		}
	}
	return best, ok
}

// MostActiveWeekday returns the weekday with the most tracked time, Sunday
// first on a tie.
func MostActiveWeekday(entries []storage.TimeEntry) (time.Weekday, time.Duration, bool) {
	var totals [7]time.Duration
	for _, e := range entries {
		totals[e.Date.Weekday()] += e.Duration
	}

	best, found := time.Sunday, false
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if totals[wd] > 0 && (!found || totals[wd] > totals[best]) {
			best, found = wd, true
		}
	}
	return best, totals[best], found
}

// CurrentStreak counts consecutive days with tracked time ending today. A
// day without time yet does not break the streak until it is over, so the
// count falls back to ending yesterday.
func CurrentStreak(entries []storage.TimeEntry, today time.Time) int {
	active := activeDays(entries)

	day := clock.StartOfDay(today)
	if !active[dayKey(day)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for active[dayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// LongestStreak returns the longest run of consecutive days with tracked time.
func LongestStreak(entries []storage.TimeEntry) int {
	longest, current := 0, 0
	var prev time.Time
	for _, d := range DailyTotals(entries) {
		if d.Duration <= 0 {
			current = 0
			continue
		}
		if current > 0 && dayKey(prev.AddDate(0, 0, 1)) == dayKey(d.Day) {
			current++
		} else {
			current = 1
		}
		prev = d.Day
		longest = max(longest, current)
	}
	return longest
}

// AverageDaily spreads total over the nominal number of days in a timeframe.
func AverageDaily(total time.Duration, timeframe storage.Timeframe) time.Duration {
	return total / time.Duration(timeframeDays(timeframe))
}

func timeframeDays(timeframe storage.Timeframe) int {
	switch timeframe {
	case storage.TimeframeWeekly:
		return 7
	case storage.TimeframeMonthly:
		return 30
	default:
		return 1
	}
}

// GoalCompletionRate returns the percentage of goals fully met as of today.
func GoalCompletionRate(goals []storage.Goal, entries []storage.TimeEntry, today time.Time) float64 {
	if len(goals) == 0 {
		return 0
	}
	met := 0
	for _, g := range goals {
		if GoalProgress(g, entries, today) >= 100 {
			met++
		}
	}
	return float64(met) / float64(len(goals)) * 100
}

// FormatDuration renders d as "Xh Ym", or "Ym" below one hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func activeDays(entries []storage.TimeEntry) map[string]bool {
	days := make(map[string]bool)
	for _, d := range DailyTotals(entries) {
		if d.Duration > 0 {
			days[dayKey(d.Day)] = true
		}
	}
	return days
}

// dayKey identifies a calendar day in t's own location.
func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
