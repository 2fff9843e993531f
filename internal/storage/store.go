package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record is missing from storage.
	ErrNotFound = errors.New("storage: record not found")

	// ErrInvalid is returned when a record fails validation before a write.
	ErrInvalid = errors.New("storage: invalid record")
)

// Store represents the root storage interface.
type Store interface {
	Close() error
	Activities() ActivityStore
	Entries() EntryStore
	Goals() GoalStore
}

// ActivityStore manages activities.
type ActivityStore interface {
	Get(ctx context.Context, id string) (*Activity, error)
	// List returns all activities ordered by creation time ascending.
	List(ctx context.Context) ([]Activity, error)
	Upsert(ctx context.Context, activity Activity) error
	// Delete removes the activity together with its time entries and goal
	// in a single atomic operation.
	Delete(ctx context.Context, id string) error
}

// EntryStore manages finalized time entries. Entries are append-only.
type EntryStore interface {
	Add(ctx context.Context, entry TimeEntry) error
	Query(ctx context.Context, filter EntryFilter) ([]TimeEntry, error)
}

// GoalStore manages goals, at most one per activity.
type GoalStore interface {
	GetByActivity(ctx context.Context, activityID string) (*Goal, error)
	List(ctx context.Context) ([]Goal, error)
	// Upsert saves a goal. When the activity already has a goal it is
	// updated in place, keeping its ID and creation time.
	Upsert(ctx context.Context, goal Goal) error
}

// EntryFilter defines criteria for querying time entries. Start and End
// bound the entry's Date and are inclusive.
type EntryFilter struct {
	ActivityID string
	Start      *time.Time
	End        *time.Time
}

// Matches reports whether the entry satisfies the filter.
func (f EntryFilter) Matches(entry TimeEntry) bool {
	if f.ActivityID != "" && entry.ActivityID != f.ActivityID {
		return false
	}
	if f.Start != nil && entry.Date.Before(*f.Start) {
		return false
	}
	if f.End != nil && entry.Date.After(*f.End) {
		return false
	}
	return true
}
