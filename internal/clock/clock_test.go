package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTestClockAdvance(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	c := NewTestClock(start)

	c.Advance(90 * time.Second)
	if got := c.Now().Sub(start); got != 90*time.Second {
		t.Fatalf("expected 90s advance, got %v", got)
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatalf("expected clock reset to %v, got %v", start, c.Now())
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	in := time.Date(2024, 1, 31, 23, 59, 59, 999, loc)
	got := StartOfDay(in)
	want := time.Date(2024, 1, 31, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("StartOfDay() = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Fatalf("StartOfDay() changed location to %v", got.Location())
	}
}

func TestManualScheduler(t *testing.T) {
	s := NewManualScheduler()
	var calls int32

	cancel := s.Every(time.Second, func() { atomic.AddInt32(&calls, 1) })
	s.Tick()
	s.Tick()
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}

	cancel()
	s.Tick()
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected no calls after cancel, got %d", got)
	}
	if s.Active() != 0 {
		t.Fatalf("expected no active entries, got %d", s.Active())
	}
}

func TestTickerSchedulerCancel(t *testing.T) {
	var calls int32
	fired := make(chan struct{}, 1)

	cancel := TickerScheduler{}.Every(5*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never fired")
	}

	cancel()
	cancel() // idempotent
}
