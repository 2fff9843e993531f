package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/tally/internal/config"
	"github.com/goodtune/tally/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	// Create miniredis instance
	mr := miniredis.RunT(t)

	// miniredis.Addr() returns "host:port", so Port stays 0
	cfg := config.RedisConfig{
		Host:         mr.Addr(),
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
		KeyPrefix:    "tally-test",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

var testDay = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func seedActivity(t *testing.T, store *Store, id string, createdAt time.Time) {
	t.Helper()

	err := store.Activities().Upsert(context.Background(), storage.Activity{
		ID:        id,
		Name:      "Activity " + id,
		Icon:      "book",
		Color:     "systemBlue",
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("Upsert activity %s failed: %v", id, err)
	}
}

func TestActivityStore_UpsertGetList(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	seedActivity(t, store, "walking", base.Add(time.Hour))
	seedActivity(t, store, "reading", base)

	got, err := store.Activities().Get(ctx, "reading")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Activity reading" || got.Icon != "book" || !got.CreatedAt.Equal(base) {
		t.Errorf("unexpected activity: %+v", got)
	}

	list, err := store.Activities().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "reading" || list[1].ID != "walking" {
		t.Fatalf("expected creation order [reading walking], got %+v", list)
	}

	if _, err := store.Activities().Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEntryStore_AddQuery(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	seedActivity(t, store, "reading", testDay)
	seedActivity(t, store, "walking", testDay.Add(time.Minute))

	entries := []storage.TimeEntry{
		{ID: "e1", ActivityID: "reading", Duration: time.Hour, Date: testDay, StartTime: testDay.Add(9 * time.Hour)},
		{ID: "e2", ActivityID: "walking", Duration: 90 * time.Second, Date: testDay, StartTime: testDay.Add(8 * time.Hour)},
		{ID: "e3", ActivityID: "reading", Duration: 1500 * time.Millisecond, Date: testDay.AddDate(0, 0, 2), StartTime: testDay.AddDate(0, 0, 2)},
	}
	for _, e := range entries {
		if err := store.Entries().Add(ctx, e); err != nil {
			t.Fatalf("Add %s failed: %v", e.ID, err)
		}
	}

	all, err := store.Entries().Query(ctx, storage.EntryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].ID != "e2" || all[1].ID != "e1" || all[2].ID != "e3" {
		t.Errorf("expected start-time ordering, got %s %s %s", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[2].Duration != 1500*time.Millisecond {
		t.Errorf("expected sub-second duration to round-trip, got %v", all[2].Duration)
	}

	end := testDay.Add(12 * time.Hour)
	firstDay, err := store.Entries().Query(ctx, storage.EntryFilter{ActivityID: "reading", Start: &testDay, End: &end})
	if err != nil {
		t.Fatalf("Query range failed: %v", err)
	}
	if len(firstDay) != 1 || firstDay[0].ID != "e1" {
		t.Fatalf("expected only e1, got %+v", firstDay)
	}

	err = store.Entries().Add(ctx, storage.TimeEntry{ID: "e4", ActivityID: "missing", Date: testDay, StartTime: testDay})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown activity, got %v", err)
	}

	err = store.Entries().Add(ctx, entries[0])
	if !errors.Is(err, storage.ErrInvalid) {
		t.Errorf("expected ErrInvalid for duplicate entry, got %v", err)
	}
}

func TestGoalStore_Upsert(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	seedActivity(t, store, "reading", testDay)

	goal := storage.Goal{ID: "g1", ActivityID: "reading", TargetHours: 5, Timeframe: storage.TimeframeWeekly, CreatedAt: testDay}
	if err := store.Goals().Upsert(ctx, goal); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	goal.ID = "g2"
	goal.TargetHours = 2.5
	goal.Timeframe = storage.TimeframeMonthly
	if err := store.Goals().Upsert(ctx, goal); err != nil {
		t.Fatalf("Upsert update failed: %v", err)
	}

	got, err := store.Goals().GetByActivity(ctx, "reading")
	if err != nil {
		t.Fatalf("GetByActivity failed: %v", err)
	}
	if got.ID != "g1" || got.TargetHours != 2.5 || got.Timeframe != storage.TimeframeMonthly {
		t.Errorf("unexpected goal after update: %+v", got)
	}

	goals, err := store.Goals().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(goals))
	}

	invalid := storage.Goal{ID: "g3", ActivityID: "reading", TargetHours: 0, Timeframe: storage.TimeframeDaily}
	if err := store.Goals().Upsert(ctx, invalid); !errors.Is(err, storage.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestActivityStore_DeleteCascades(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	seedActivity(t, store, "reading", testDay)
	seedActivity(t, store, "walking", testDay)

	for _, e := range []storage.TimeEntry{
		{ID: "e1", ActivityID: "reading", Duration: time.Minute, Date: testDay, StartTime: testDay},
		{ID: "e2", ActivityID: "walking", Duration: time.Minute, Date: testDay, StartTime: testDay},
	} {
		if err := store.Entries().Add(ctx, e); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if err := store.Goals().Upsert(ctx, storage.Goal{ID: "g1", ActivityID: "reading", TargetHours: 1, Timeframe: storage.TimeframeDaily, CreatedAt: testDay}); err != nil {
		t.Fatalf("Upsert goal failed: %v", err)
	}

	if err := store.Activities().Delete(ctx, "reading"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if mr.Exists("tally-test:entry:e1") {
		t.Error("expected entry e1 to be deleted")
	}
	if _, err := store.Goals().GetByActivity(ctx, "reading"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected goal gone, got %v", err)
	}
	remaining, err := store.Entries().Query(ctx, storage.EntryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "e2" {
		t.Fatalf("expected only e2 to remain, got %+v", remaining)
	}
	activities, err := store.Activities().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(activities) != 1 || activities[0].ID != "walking" {
		t.Fatalf("expected only walking to remain, got %+v", activities)
	}

	if err := store.Activities().Delete(ctx, "reading"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestOpen_InvalidTimeout(t *testing.T) {
	_, err := Open(config.RedisConfig{Host: "localhost", DialTimeout: "soon", ReadTimeout: "1s", WriteTimeout: "1s"})
	if err == nil {
		t.Fatal("expected error for invalid dial timeout")
	}
}
