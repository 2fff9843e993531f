package bolt

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goodtune/tally/internal/storage"
	"go.etcd.io/bbolt"
)

type entryStore struct {
	db *bbolt.DB
}

func (s *entryStore) Add(ctx context.Context, entry storage.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	data, err := marshal(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !activityExists(tx, entry.ActivityID) {
			return fmt.Errorf("activity %s: %w", entry.ActivityID, storage.ErrNotFound)
		}
		b := tx.Bucket([]byte(bucketEntries))
		if b == nil {
			return fmt.Errorf("entries bucket missing")
		}
		key := entryKey(entry.ActivityID, entry.ID)
		if b.Get(key) != nil {
			return fmt.Errorf("%w: entry %s already exists", storage.ErrInvalid, entry.ID)
		}
		return b.Put(key, data)
	})
}

func (s *entryStore) Query(ctx context.Context, filter storage.EntryFilter) ([]storage.TimeEntry, error) {
	entries := make([]storage.TimeEntry, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketEntries))
		if b == nil {
			return nil
		}

		var prefix []byte
		if filter.ActivityID != "" {
			prefix = entryPrefix(filter.ActivityID)
		}

		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var entry storage.TimeEntry
			if err := unmarshal(v, &entry); err != nil {
				return err
			}
			if filter.Matches(entry) {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	storage.SortEntries(entries)
	return entries, nil
}
