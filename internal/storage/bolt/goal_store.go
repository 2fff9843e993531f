package bolt

import (
	"context"
	"fmt"

	"github.com/goodtune/tally/internal/storage"
	"go.etcd.io/bbolt"
)

type goalStore struct {
	db *bbolt.DB
}

func (s *goalStore) GetByActivity(ctx context.Context, activityID string) (*storage.Goal, error) {
	return getBucketValue[storage.Goal](ctx, s.db, bucketGoals, activityID)
}

func (s *goalStore) List(ctx context.Context) ([]storage.Goal, error) {
	return listBucket[storage.Goal](ctx, s.db, bucketGoals)
}

func (s *goalStore) Upsert(ctx context.Context, goal storage.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !activityExists(tx, goal.ActivityID) {
			return fmt.Errorf("activity %s: %w", goal.ActivityID, storage.ErrNotFound)
		}
		b := tx.Bucket([]byte(bucketGoals))
		if b == nil {
			return fmt.Errorf("goals bucket missing")
		}

		if existing := b.Get([]byte(goal.ActivityID)); existing != nil {
			var current storage.Goal
			if err := unmarshal(existing, &current); err != nil {
				return err
			}
			goal.ID = current.ID
			goal.CreatedAt = current.CreatedAt
		}

		data, err := marshal(goal)
		if err != nil {
			return err
		}
		return b.Put([]byte(goal.ActivityID), data)
	})
}
