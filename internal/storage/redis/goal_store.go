package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/goodtune/tally/internal/storage"
	"github.com/redis/go-redis/v9"
)

type goalStore struct {
	client *redis.Client
	keys   keyspace
}

// GetByActivity retrieves the goal attached to an activity
func (s *goalStore) GetByActivity(ctx context.Context, activityID string) (*storage.Goal, error) {
	data, err := s.client.HGetAll(ctx, s.keys.goal(activityID)).Result()
	if err != nil {
		return nil, err
	}
	return parseGoal(data)
}

// List returns all goals
func (s *goalStore) List(ctx context.Context) ([]storage.Goal, error) {
	activityIDs, err := s.client.SMembers(ctx, s.keys.goals()).Result()
	if err != nil {
		return nil, err
	}

	if len(activityIDs) == 0 {
		return []storage.Goal{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(activityIDs))
	for i, id := range activityIDs {
		cmds[i] = pipe.HGetAll(ctx, s.keys.goal(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	goals := make([]storage.Goal, 0, len(activityIDs))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		goal, err := parseGoal(data)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}

	return goals, nil
}

// Upsert atomically creates or updates the goal of an activity
func (s *goalStore) Upsert(ctx context.Context, goal storage.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	script := redis.NewScript(upsertGoalScript)

	keys := []string{
		s.keys.activity(goal.ActivityID),
		s.keys.goal(goal.ActivityID),
		s.keys.goals(),
	}
	args := []interface{}{
		goal.ID,
		goal.ActivityID,
		strconv.FormatFloat(goal.TargetHours, 'f', -1, 64),
		string(goal.Timeframe),
		formatTime(goal.CreatedAt),
	}

	result, err := script.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return fmt.Errorf("activity %s: %w", goal.ActivityID, storage.ErrNotFound)
	}
	return nil
}
