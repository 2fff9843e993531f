package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/tally/internal/config"
	"github.com/goodtune/tally/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store implements the storage.Store interface using Redis
type Store struct {
	client        *redis.Client
	activityStore *activityStore
	entryStore    *entryStore
	goalStore     *goalStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Determine address
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	// Create Redis client
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	k := newKeyspace(cfg.KeyPrefix)
	store := &Store{
		client:        client,
		activityStore: &activityStore{client: client, keys: k},
		entryStore:    &entryStore{client: client, keys: k},
		goalStore:     &goalStore{client: client, keys: k},
	}

	return store, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Activities returns the ActivityStore implementation
func (s *Store) Activities() storage.ActivityStore {
	return s.activityStore
}

// Entries returns the EntryStore implementation
func (s *Store) Entries() storage.EntryStore {
	return s.entryStore
}

// Goals returns the GoalStore implementation
func (s *Store) Goals() storage.GoalStore {
	return s.goalStore
}

// keyspace builds every key used by the store under a common prefix.
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = "tally"
	}
	return keyspace{prefix: prefix}
}

// activity hash: {prefix}:activity:{id}
func (k keyspace) activity(id string) string {
	return fmt.Sprintf("%s:activity:%s", k.prefix, id)
}

// activity index: sorted set of ids scored by creation time
func (k keyspace) activities() string {
	return k.prefix + ":activities"
}

// entry hash: {prefix}:entry:{id}
func (k keyspace) entry(id string) string {
	return fmt.Sprintf("%s:entry:%s", k.prefix, id)
}

// per-activity entry index: sorted set of entry ids scored by entry date
func (k keyspace) activityEntries(activityID string) string {
	return fmt.Sprintf("%s:entries:%s", k.prefix, activityID)
}

// goal hash, one per activity: {prefix}:goal:{activityID}
func (k keyspace) goal(activityID string) string {
	return fmt.Sprintf("%s:goal:%s", k.prefix, activityID)
}

// goal index: set of activity ids that have a goal
func (k keyspace) goals() string {
	return k.prefix + ":goals"
}
