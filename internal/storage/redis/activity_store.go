package redis

import (
	"context"
	"errors"

	"github.com/goodtune/tally/internal/storage"
	"github.com/redis/go-redis/v9"
)

type activityStore struct {
	client *redis.Client
	keys   keyspace
}

// Get retrieves an activity by ID
func (s *activityStore) Get(ctx context.Context, id string) (*storage.Activity, error) {
	data, err := s.client.HGetAll(ctx, s.keys.activity(id)).Result()
	if err != nil {
		return nil, err
	}
	return parseActivity(data)
}

// List returns all activities in creation order
func (s *activityStore) List(ctx context.Context) ([]storage.Activity, error) {
	ids, err := s.client.ZRange(ctx, s.keys.activities(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []storage.Activity{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.keys.activity(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	activities := make([]storage.Activity, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		activity, err := parseActivity(data)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *activity)
	}

	storage.SortActivities(activities)
	return activities, nil
}

// Upsert creates or updates an activity and its creation-order index
func (s *activityStore) Upsert(ctx context.Context, activity storage.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.keys.activity(activity.ID),
			"id", activity.ID,
			"name", activity.Name,
			"icon", activity.Icon,
			"color", activity.Color,
			"created_at", formatTime(activity.CreatedAt),
		)
		pipe.ZAdd(ctx, s.keys.activities(), redis.Z{
			Score:  float64(activity.CreatedAt.UnixMilli()),
			Member: activity.ID,
		})
		return nil
	})
	return err
}

// Delete removes an activity with its entries and goal
func (s *activityStore) Delete(ctx context.Context, id string) error {
	script := redis.NewScript(deleteActivityScript)

	keys := []string{
		s.keys.activity(id),
		s.keys.activities(),
		s.keys.activityEntries(id),
		s.keys.goal(id),
		s.keys.goals(),
	}
	args := []interface{}{id, s.keys.entry("")}

	result, err := script.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return storage.ErrNotFound
	}
	return nil
}
