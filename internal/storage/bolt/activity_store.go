package bolt

import (
	"bytes"
	"context"

	"github.com/goodtune/tally/internal/storage"
	"go.etcd.io/bbolt"
)

type activityStore struct {
	db *bbolt.DB
}

func (s *activityStore) Get(ctx context.Context, id string) (*storage.Activity, error) {
	return getBucketValue[storage.Activity](ctx, s.db, bucketActivities, id)
}

func (s *activityStore) List(ctx context.Context) ([]storage.Activity, error) {
	activities, err := listBucket[storage.Activity](ctx, s.db, bucketActivities)
	if err != nil {
		return nil, err
	}
	storage.SortActivities(activities)
	return activities, nil
}

func (s *activityStore) Upsert(ctx context.Context, activity storage.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}
	return putBucketValue(ctx, s.db, bucketActivities, activity.ID, activity)
}

func (s *activityStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		activities := tx.Bucket([]byte(bucketActivities))
		if activities == nil || activities.Get([]byte(id)) == nil {
			return storage.ErrNotFound
		}
		if err := activities.Delete([]byte(id)); err != nil {
			return err
		}

		if entries := tx.Bucket([]byte(bucketEntries)); entries != nil {
			prefix := entryPrefix(id)
			var keys [][]byte
			c := entries.Cursor()
			for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
				keys = append(keys, append([]byte(nil), k...))
			}
			for _, k := range keys {
				if err := entries.Delete(k); err != nil {
					return err
				}
			}
		}

		if goals := tx.Bucket([]byte(bucketGoals)); goals != nil {
			if err := goals.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}
