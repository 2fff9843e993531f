package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/goodtune/tally/internal/storage"
	"github.com/redis/go-redis/v9"
)

type entryStore struct {
	client *redis.Client
	keys   keyspace
}

// Add atomically stores a finalized entry
func (s *entryStore) Add(ctx context.Context, entry storage.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	script := redis.NewScript(addEntryScript)

	keys := []string{
		s.keys.activity(entry.ActivityID),
		s.keys.entry(entry.ID),
		s.keys.activityEntries(entry.ActivityID),
	}
	args := []interface{}{
		entry.ID,
		entry.ActivityID,
		strconv.FormatInt(int64(entry.Duration), 10),
		formatTime(entry.Date),
		formatTime(entry.StartTime),
		entry.Date.Unix(),
	}

	result, err := script.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return err
	}
	switch result {
	case 0:
		return fmt.Errorf("activity %s: %w", entry.ActivityID, storage.ErrNotFound)
	case -1:
		return fmt.Errorf("%w: entry %s already exists", storage.ErrInvalid, entry.ID)
	}
	return nil
}

// Query returns entries matching the filter ordered by start time
func (s *entryStore) Query(ctx context.Context, filter storage.EntryFilter) ([]storage.TimeEntry, error) {
	activityIDs := []string{filter.ActivityID}
	if filter.ActivityID == "" {
		ids, err := s.client.ZRange(ctx, s.keys.activities(), 0, -1).Result()
		if err != nil {
			return nil, err
		}
		activityIDs = ids
	}

	if len(activityIDs) == 0 {
		return []storage.TimeEntry{}, nil
	}

	rangeBy := &redis.ZRangeBy{
		Min: scoreBound(filter.Start, "-inf", false),
		Max: scoreBound(filter.End, "+inf", true),
	}

	// First pass: entry ids per activity within the score range
	pipe := s.client.Pipeline()
	idCmds := make([]*redis.StringSliceCmd, len(activityIDs))
	for i, activityID := range activityIDs {
		idCmds[i] = pipe.ZRangeByScore(ctx, s.keys.activityEntries(activityID), rangeBy)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var entryIDs []string
	for _, cmd := range idCmds {
		ids, err := cmd.Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		entryIDs = append(entryIDs, ids...)
	}

	entries := make([]storage.TimeEntry, 0, len(entryIDs))
	if len(entryIDs) == 0 {
		return entries, nil
	}

	// Second pass: entry hashes
	pipe = s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(entryIDs))
	for i, id := range entryIDs {
		cmds[i] = pipe.HGetAll(ctx, s.keys.entry(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		entry, err := parseTimeEntry(data)
		if err != nil {
			return nil, err
		}
		if filter.Matches(*entry) {
			entries = append(entries, *entry)
		}
	}

	storage.SortEntries(entries)
	return entries, nil
}
