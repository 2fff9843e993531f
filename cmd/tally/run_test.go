package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goodtune/tally/internal/clock"
	"github.com/goodtune/tally/internal/storage"
	"github.com/goodtune/tally/internal/timer"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consoleFixture struct {
	console   *console
	timer     *timer.Timer
	store     storage.Store
	clock     *clock.TestClock
	scheduler *clock.ManualScheduler
	out       *bytes.Buffer
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()

	store := openTestStore(t, reading, walking)
	clk := clock.NewTestClock(time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC))
	sched := clock.NewManualScheduler()
	tm := timer.New(store, timer.Config{Clock: clk, Scheduler: sched}, zerolog.Nop())

	var out bytes.Buffer
	return &consoleFixture{
		console:   newConsole(tm, store, &out),
		timer:     tm,
		store:     store,
		clock:     clk,
		scheduler: sched,
		out:       &out,
	}
}

func (f *consoleFixture) entries(t *testing.T) []storage.TimeEntry {
	t.Helper()
	entries, err := f.store.Entries().Query(context.Background(), storage.EntryFilter{})
	require.NoError(t, err)
	return entries
}

func TestConsoleRunScript(t *testing.T) {
	f := newConsoleFixture(t)

	in := strings.NewReader("p\nr\nstatus\nfly\n\ns\nignored after stop\n")
	require.NoError(t, f.console.run(context.Background(), reading.ID, in))

	out := f.out.String()
	assert.Contains(t, out, "▶ Started Reading")
	assert.Contains(t, out, "⏸ Paused Reading at 00:00")
	assert.Contains(t, out, "▶ Resumed Reading")
	assert.Contains(t, out, "Reading running")
	assert.Contains(t, out, `unknown command "fly"`)
	assert.Contains(t, out, "■ Stopped Reading")
	assert.Contains(t, out, "Saved 0m")

	assert.Len(t, f.entries(t), 1)
	assert.Equal(t, timer.ModeIdle, f.timer.Snapshot().Mode)
}

func TestConsoleRunStopsOnEOF(t *testing.T) {
	f := newConsoleFixture(t)

	require.NoError(t, f.console.run(context.Background(), walking.ID, strings.NewReader("")))

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, walking.ID, entries[0].ActivityID)
}

func TestConsoleRunStopsOnCancel(t *testing.T) {
	f := newConsoleFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The reader cancels on first use and never yields a line.
	require.NoError(t, f.console.run(ctx, reading.ID, cancelReader{cancel: cancel}))

	assert.Contains(t, f.out.String(), "Interrupted")
	assert.Len(t, f.entries(t), 1)
}

func TestConsoleRunUnknownActivity(t *testing.T) {
	f := newConsoleFixture(t)

	err := f.console.run(context.Background(), "missing", strings.NewReader("s\n"))
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	assert.Empty(t, f.entries(t))
}

func TestConsoleHandle(t *testing.T) {
	f := newConsoleFixture(t)
	ctx := context.Background()

	_, err := f.timer.Start(ctx, reading.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	finished, err := f.console.handle(ctx, "resume")
	assert.False(t, finished)
	assert.ErrorIs(t, err, timer.ErrInvalidTransition)

	finished, err = f.console.handle(ctx, "switch walking")
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Contains(t, f.out.String(), "Saved 10m")

	snap := f.timer.Snapshot()
	assert.Equal(t, timer.ModeRunning, snap.Mode)
	assert.Equal(t, walking.ID, snap.Activity.ID)

	_, err = f.console.handle(ctx, "switch")
	assert.Error(t, err)

	_, err = f.console.handle(ctx, "switch Cooking")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, walking.ID, f.timer.Snapshot().Activity.ID)

	f.clock.Advance(90 * time.Second)
	f.scheduler.Tick()
	assert.Contains(t, f.out.String(), "\rWalking  01:30 ")

	finished, err = f.console.handle(ctx, "stop")
	require.NoError(t, err)
	assert.True(t, finished)

	entries := f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, 10*time.Minute, entries[0].Duration)
	assert.Equal(t, 90*time.Second, entries[1].Duration)
}

func TestConsoleStatusIdle(t *testing.T) {
	f := newConsoleFixture(t)

	finished, err := f.console.handle(context.Background(), "status")
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Contains(t, f.out.String(), "Timer is idle")
}

type cancelReader struct {
	cancel context.CancelFunc
}

func (r cancelReader) Read([]byte) (int, error) {
	r.cancel()
	select {}
}
