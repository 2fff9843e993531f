// Package cached wraps a storage.Store with an in-memory LRU of activities.
// The timer and the report commands resolve the same activity repeatedly, so
// only activity lookups are cached; entries and goals pass straight through.
package cached

import (
	"context"
	"fmt"
	"sync"

	"github.com/goodtune/tally/internal/metrics"
	"github.com/goodtune/tally/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Store is a storage.Store with a read-through activity cache.
type Store struct {
	inner      storage.Store
	activities *activityStore
}

// Wrap returns inner wrapped with an activity cache of the given size.
// A size of zero or less disables caching and returns inner unchanged.
func Wrap(inner storage.Store, size int, logger zerolog.Logger) (storage.Store, error) {
	if size <= 0 {
		return inner, nil
	}

	cache, err := lru.New[string, storage.Activity](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity cache: %w", err)
	}

	logger = logger.With().Str("component", "cache").Logger()
	logger.Debug().Int("cache_size", size).Msg("Activity cache enabled")

	return &Store{
		inner: inner,
		activities: &activityStore{
			inner:  inner.Activities(),
			cache:  cache,
			logger: logger,
		},
	}, nil
}

// Close closes the underlying store.
func (s *Store) Close() error {
	s.activities.purge()
	return s.inner.Close()
}

// Activities returns the cached ActivityStore.
func (s *Store) Activities() storage.ActivityStore {
	return s.activities
}

// Entries returns the underlying EntryStore.
func (s *Store) Entries() storage.EntryStore {
	return s.inner.Entries()
}

// Goals returns the underlying GoalStore.
func (s *Store) Goals() storage.GoalStore {
	return s.inner.Goals()
}

type activityStore struct {
	inner  storage.ActivityStore
	cache  *lru.Cache[string, storage.Activity]
	logger zerolog.Logger
	mu     sync.RWMutex
}

func (s *activityStore) Get(ctx context.Context, id string) (*storage.Activity, error) {
	s.mu.RLock()
	if activity, ok := s.cache.Get(id); ok {
		s.mu.RUnlock()
		metrics.ActivityCacheHits.Inc()
		return &activity, nil
	}
	s.mu.RUnlock()

	metrics.ActivityCacheMisses.Inc()

	activity, err := s.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache.Add(id, *activity)
	s.mu.Unlock()

	return activity, nil
}

// List always reads through and refreshes the cached copies.
func (s *activityStore) List(ctx context.Context) ([]storage.Activity, error) {
	activities, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, activity := range activities {
		if s.cache.Contains(activity.ID) {
			s.cache.Add(activity.ID, activity)
		}
	}
	s.mu.Unlock()

	return activities, nil
}

func (s *activityStore) Upsert(ctx context.Context, activity storage.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inner.Upsert(ctx, activity); err != nil {
		return err
	}
	s.cache.Remove(activity.ID)
	return nil
}

func (s *activityStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evict first so a failed cascade never leaves a stale hit behind.
	s.cache.Remove(id)
	if err := s.inner.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug().Str("activity_id", id).Msg("Evicted deleted activity")
	return nil
}

func (s *activityStore) purge() {
	s.mu.Lock()
	s.cache.Purge()
	s.mu.Unlock()
}
