// Package timer implements the single process-wide activity timer.
//
// The timer moves between idle, running and paused. Elapsed time is always
// derived from recorded timestamps; the periodic tick only refreshes what
// subscribers display. Stopping a run produces one TimeEntry which is handed
// to the entry store exactly once.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/tally/internal/clock"
	"github.com/goodtune/tally/internal/metrics"
	"github.com/goodtune/tally/internal/storage"
	"github.com/rs/zerolog"
)

const (
	// DefaultTickInterval is the display refresh period.
	DefaultTickInterval = time.Second
)

var (
	// ErrInvalidTransition is returned when pause or resume is requested
	// in a state that does not allow it. The timer is left unchanged.
	ErrInvalidTransition = errors.New("timer: invalid transition")

	// ErrPersistence is returned when a finalized entry could not be saved.
	// The timer is idle afterwards and the run's duration is lost.
	ErrPersistence = errors.New("timer: failed to persist time entry")
)

// Config holds timer configuration
type Config struct {
	TickInterval time.Duration
	Clock        clock.Clock
	Scheduler    clock.Scheduler
}

// Timer tracks elapsed time for one activity at a time
type Timer struct {
	store        storage.Store
	clock        clock.Clock
	scheduler    clock.Scheduler
	tickInterval time.Duration
	logger       zerolog.Logger

	mu         sync.Mutex
	session    *session // nil while idle
	generation uint64
	cancelTick func()

	// Events are queued under mu in transition order and delivered by one
	// goroutine at a time, outside mu.
	pending    []Event
	delivering bool

	subsMu      sync.Mutex
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(Event)
}

// New creates an idle timer that saves finished runs to store
func New(store storage.Store, config Config, logger zerolog.Logger) *Timer {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.Scheduler == nil {
		config.Scheduler = clock.TickerScheduler{}
	}

	return &Timer{
		store:        store,
		clock:        config.Clock,
		scheduler:    config.Scheduler,
		tickInterval: config.TickInterval,
		logger:       logger.With().Str("component", "timer").Logger(),
	}
}

// Start begins timing activityID. A run already in progress is stopped and
// persisted first; its entry is returned. If that save fails the new run
// still starts and the returned error wraps ErrPersistence.
func (t *Timer) Start(ctx context.Context, activityID string) (*storage.TimeEntry, error) {
	activity, err := t.store.Activities().Get(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve activity %s: %w", activityID, err)
	}

	t.mu.Lock()

	var (
		events    []Event
		stopped   *storage.TimeEntry
		stopErr   error
		stopEvent Event
	)
	if t.session != nil {
		stopped, stopEvent, stopErr = t.stopLocked(ctx)
		events = append(events, stopEvent)
	}

	now := t.clock.Now()
	t.generation++
	gen := t.generation
	t.session = &session{
		activity:     *activity,
		mode:         ModeRunning,
		segmentStart: now,
		startedAt:    now,
		generation:   gen,
	}
	t.cancelTick = t.scheduler.Every(t.tickInterval, func() { t.tick(gen) })

	metrics.TimerTransitions.WithLabelValues("start").Inc()
	metrics.TimerActive.Set(1)

	t.logger.Info().
		Str("activity_id", activity.ID).
		Str("activity", activity.Name).
		Time("started_at", now).
		Msg("Timer started")

	events = append(events, Event{Kind: EventStarted, Snapshot: t.snapshotLocked(now)})
	t.unlockAndNotify(events...)

	return stopped, stopErr
}

// Pause freezes the running segment into the accumulated total.
func (t *Timer) Pause() error {
	t.mu.Lock()

	if t.session == nil || t.session.mode != ModeRunning {
		mode := t.modeLocked()
		t.mu.Unlock()
		return t.rejectTransition("pause", mode)
	}

	now := t.clock.Now()
	s := t.session
	s.accumulated += nonNegative(now.Sub(s.segmentStart))
	s.mode = ModePaused

	metrics.TimerTransitions.WithLabelValues("pause").Inc()

	t.logger.Info().
		Str("activity_id", s.activity.ID).
		Dur("accumulated", s.accumulated).
		Msg("Timer paused")

	t.unlockAndNotify(Event{Kind: EventPaused, Snapshot: t.snapshotLocked(now)})
	return nil
}

// Resume opens a new segment on a paused run.
func (t *Timer) Resume() error {
	t.mu.Lock()

	if t.session == nil || t.session.mode != ModePaused {
		mode := t.modeLocked()
		t.mu.Unlock()
		return t.rejectTransition("resume", mode)
	}

	now := t.clock.Now()
	s := t.session
	s.segmentStart = now
	s.mode = ModeRunning

	metrics.TimerTransitions.WithLabelValues("resume").Inc()

	t.logger.Info().
		Str("activity_id", s.activity.ID).
		Dur("accumulated", s.accumulated).
		Msg("Timer resumed")

	t.unlockAndNotify(Event{Kind: EventResumed, Snapshot: t.snapshotLocked(now)})
	return nil
}

// Stop finalizes the current run and saves it. Stopping an idle timer is a
// no-op returning (nil, nil). On a failed save the timer is still idle and
// the unsaved entry is returned with an error wrapping ErrPersistence.
func (t *Timer) Stop(ctx context.Context) (*storage.TimeEntry, error) {
	t.mu.Lock()

	if t.session == nil {
		t.mu.Unlock()
		return nil, nil
	}

	entry, event, err := t.stopLocked(ctx)
	t.unlockAndNotify(event)
	return entry, err
}

// Close stops and persists any active run. Used on shutdown.
func (t *Timer) Close(ctx context.Context) error {
	entry, err := t.Stop(ctx)
	if entry != nil && err == nil {
		t.logger.Info().
			Str("entry_id", entry.ID).
			Dur("duration", entry.Duration).
			Msg("Saved running timer on close")
	}
	return err
}

// Elapsed returns the current run's total time, or 0 while idle.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return 0
	}
	return t.session.elapsed(t.clock.Now())
}

// Snapshot returns the current state of the timer.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(t.clock.Now())
}

// Subscribe registers fn for every transition and tick. Events reach
// handlers in transition order, one at a time and outside the state lock,
// so a handler may read the timer. A transition made while another
// goroutine is delivering returns at once; its event follows the ones
// queued before it. The returned function removes the subscription.
func (t *Timer) Subscribe(fn func(Event)) func() {
	t.subsMu.Lock()
	id := t.nextSubID
	t.nextSubID++
	t.subscribers = append(t.subscribers, subscriber{id: id, fn: fn})
	t.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.subsMu.Lock()
			defer t.subsMu.Unlock()
			for i, sub := range t.subscribers {
				if sub.id == id {
					t.subscribers = append(t.subscribers[:i:i], t.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// stopLocked ends the session and saves its entry (must be called with lock held).
// The session is cleared before the save so a failed write never leaves
// the timer running.
func (t *Timer) stopLocked(ctx context.Context) (*storage.TimeEntry, Event, error) {
	now := t.clock.Now()
	s := t.session
	duration := s.elapsed(now)

	entry := &storage.TimeEntry{
		ID:         storage.NewID(),
		ActivityID: s.activity.ID,
		Duration:   duration,
		Date:       clock.StartOfDay(now),
		StartTime:  s.startedAt,
	}

	t.session = nil
	if t.cancelTick != nil {
		t.cancelTick()
		t.cancelTick = nil
	}

	metrics.TimerTransitions.WithLabelValues("stop").Inc()
	metrics.TimerActive.Set(0)

	event := Event{
		Kind: EventStopped,
		Snapshot: Snapshot{
			Mode:      ModeIdle,
			Activity:  s.activity,
			StartedAt: s.startedAt,
			Elapsed:   duration,
		},
		Entry: entry,
	}

	if err := t.store.Entries().Add(ctx, *entry); err != nil {
		metrics.EntryPersistFailures.Inc()
		t.logger.Error().
			Err(err).
			Str("activity_id", s.activity.ID).
			Dur("duration", duration).
			Msg("Failed to save time entry")
		return entry, event, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.EntriesPersisted.Inc()
	metrics.TrackedSeconds.WithLabelValues(s.activity.Name).Add(duration.Seconds())

	t.logger.Info().
		Str("entry_id", entry.ID).
		Str("activity_id", s.activity.ID).
		Dur("duration", duration).
		Msg("Timer stopped")

	return entry, event, nil
}

// tick refreshes subscribers. Ticks scheduled by an earlier run are dropped.
func (t *Timer) tick(generation uint64) {
	t.mu.Lock()
	if t.session == nil || t.session.generation != generation {
		t.mu.Unlock()
		return
	}
	t.unlockAndNotify(Event{Kind: EventTick, Snapshot: t.snapshotLocked(t.clock.Now())})
}

func (t *Timer) rejectTransition(transition string, mode Mode) error {
	metrics.TimerInvalidTransitions.WithLabelValues(transition).Inc()
	t.logger.Debug().
		Str("transition", transition).
		Str("mode", mode.String()).
		Msg("Ignoring invalid timer transition")
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, transition, mode)
}

func (t *Timer) modeLocked() Mode {
	if t.session == nil {
		return ModeIdle
	}
	return t.session.mode
}

func (t *Timer) snapshotLocked(now time.Time) Snapshot {
	if t.session == nil {
		return Snapshot{Mode: ModeIdle}
	}
	return Snapshot{
		Mode:      t.session.mode,
		Activity:  t.session.activity,
		StartedAt: t.session.startedAt,
		Elapsed:   t.session.elapsed(now),
	}
}

// unlockAndNotify queues events, releases mu and delivers the queue unless
// another goroutine is already delivering (must be called with lock held).
func (t *Timer) unlockAndNotify(events ...Event) {
	t.pending = append(t.pending, events...)
	if t.delivering {
		t.mu.Unlock()
		return
	}

	t.delivering = true
	for len(t.pending) > 0 {
		batch := t.pending
		t.pending = nil
		t.mu.Unlock()

		t.deliver(batch)

		t.mu.Lock()
	}
	t.delivering = false
	t.mu.Unlock()
}

func (t *Timer) deliver(events []Event) {
	t.subsMu.Lock()
	subs := make([]subscriber, len(t.subscribers))
	copy(subs, t.subscribers)
	t.subsMu.Unlock()

	for _, event := range events {
		for _, sub := range subs {
			sub.fn(event)
		}
	}
}
