package timer

import (
	"time"

	"github.com/goodtune/tally/internal/storage"
)

// Mode is the state of the timer.
type Mode int

const (
	ModeIdle Mode = iota
	ModeRunning
	ModePaused
)

func (m Mode) String() string {
	switch m {
	case ModeRunning:
		return "running"
	case ModePaused:
		return "paused"
	default:
		return "idle"
	}
}

// EventKind identifies what a subscriber is being told about.
type EventKind int

const (
	EventStarted EventKind = iota
	EventPaused
	EventResumed
	EventStopped
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventTick:
		return "tick"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time view of the timer.
type Snapshot struct {
	Mode      Mode
	Activity  storage.Activity // zero value while idle
	StartedAt time.Time
	Elapsed   time.Duration
}

// Event is delivered to subscribers on every transition and tick.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Entry    *storage.TimeEntry // the finalized entry, EventStopped only
}

// session is the in-memory state of the one non-idle run.
type session struct {
	activity     storage.Activity
	mode         Mode
	segmentStart time.Time
	accumulated  time.Duration
	startedAt    time.Time
	generation   uint64
}

// elapsed derives the running total from timestamps, never from tick counts.
func (s *session) elapsed(now time.Time) time.Duration {
	total := s.accumulated
	if s.mode == ModeRunning {
		total += nonNegative(now.Sub(s.segmentStart))
	}
	return nonNegative(total)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
