package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodtune/tally/internal/storage"
	"github.com/goodtune/tally/internal/storage/bolt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "tally.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	created := day(2024, 1, 1)
	for i, a := range []storage.Activity{
		{ID: "reading", Name: "Reading"},
		{ID: "walking", Name: "Walking"},
		{ID: "piano", Name: "Piano"},
	} {
		a.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Activities().Upsert(ctx, a))
	}

	for _, e := range []storage.TimeEntry{
		entry("reading", day(2024, 3, 8), 90*time.Minute),
		entry("reading", day(2024, 3, 9), 30*time.Minute),
		entry("walking", day(2024, 3, 9), time.Hour),
		entry("walking", day(2024, 3, 10), 2*time.Hour),
		entry("reading", day(2024, 2, 1), 4*time.Hour),
	} {
		require.NoError(t, store.Entries().Add(ctx, e))
	}

	return NewService(store, zerolog.Nop()), store
}

func TestServiceSummary(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Goals().Upsert(ctx, storage.Goal{
		ID: "g1", ActivityID: "walking", TargetHours: 2, Timeframe: storage.TimeframeDaily, CreatedAt: day(2024, 1, 1),
	}))

	ref := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	summary, err := svc.Summary(ctx, storage.TimeframeWeekly, ref)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Hour, summary.Total)
	assert.Equal(t, 2, summary.ActiveActivities)
	require.Len(t, summary.Activities, 2)
	assert.Equal(t, "walking", summary.Activities[0].Activity.ID)
	assert.InDelta(t, 60.0, summary.Activities[0].Percentage, 1e-9)
	assert.Equal(t, 3, summary.CurrentStreak)
	assert.Equal(t, 3, summary.LongestStreak)
	assert.True(t, summary.HasBestDay)
	assert.True(t, summary.BestDay.Day.Equal(day(2024, 3, 10)))
	assert.InDelta(t, 100.0, summary.GoalCompletionRate, 1e-9)
	assert.Equal(t, 5*time.Hour/7, summary.AverageDaily)
}

func TestServiceCalendar(t *testing.T) {
	svc, _ := newTestService(t)

	days, err := svc.Calendar(context.Background(), day(2024, 3, 15), 8)
	require.NoError(t, err)
	require.Len(t, days, 31)

	assert.True(t, days[0].Day.Equal(day(2024, 3, 1)))
	assert.InDelta(t, 90.0/60/8, days[7].Intensity, 1e-9)
	assert.InDelta(t, 1.5/8, days[8].Intensity, 1e-9)
	assert.Equal(t, 90*time.Minute, days[8].Duration)
	assert.Zero(t, days[0].Intensity)

	feb, err := svc.Calendar(context.Background(), day(2024, 2, 1), 8)
	require.NoError(t, err)
	assert.Len(t, feb, 29)
	assert.InDelta(t, 0.5, feb[0].Intensity, 1e-9)
}

func TestServiceDay(t *testing.T) {
	svc, _ := newTestService(t)

	report, err := svc.Day(context.Background(), time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, report.Day.Equal(day(2024, 3, 9)))
	assert.Equal(t, 90*time.Minute, report.Total)
	require.Len(t, report.Activities, 2)
	assert.Equal(t, "walking", report.Activities[0].Activity.ID)
	assert.Equal(t, "reading", report.Activities[1].Activity.ID)
}

func TestServiceGoals(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Goals().Upsert(ctx, storage.Goal{
		ID: "g2", ActivityID: "walking", TargetHours: 6, Timeframe: storage.TimeframeWeekly, CreatedAt: day(2024, 1, 1),
	}))
	require.NoError(t, store.Goals().Upsert(ctx, storage.Goal{
		ID: "g1", ActivityID: "reading", TargetHours: 1, Timeframe: storage.TimeframeMonthly, CreatedAt: day(2024, 1, 1),
	}))

	statuses, err := svc.Goals(ctx, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, "reading", statuses[0].Activity.ID, "activity creation order")
	assert.Equal(t, 2*time.Hour, statuses[0].Actual)
	assert.Equal(t, 100.0, statuses[0].Progress)

	assert.Equal(t, "walking", statuses[1].Activity.ID)
	assert.Equal(t, 3*time.Hour, statuses[1].Actual)
	assert.InDelta(t, 50.0, statuses[1].Progress, 1e-9)
}

func TestServiceToday(t *testing.T) {
	svc, _ := newTestService(t)

	rows, err := svc.Today(context.Background(), time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "reading", rows[0].Activity.ID)
	assert.Zero(t, rows[0].Duration)
	assert.Equal(t, 2*time.Hour, rows[1].Duration)
	assert.InDelta(t, 100.0, rows[1].Percentage, 1e-9)
	assert.Zero(t, rows[2].Duration)
}
