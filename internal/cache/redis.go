package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout. Entries live under one namespace, and each source path
// owns a set of its entry keys for path-scoped invalidation.
const (
	redisEntryPrefix = "mdcache:entry:"
	redisPathPrefix  = "mdcache:path:"

	// DefaultRedisTTL bounds entry lifetime when the caller passes none.
	DefaultRedisTTL = 24 * time.Hour

	redisDialTimeout = 5 * time.Second
)

// RedisStore implements Store on a Redis server, sharing results across
// processes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to the Redis server at url (redis://host:port/db,
// or a bare address) and verifies the connection. Non-positive ttl falls
// back to DefaultRedisTTL.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		// Accept bare host:port addresses too.
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// Get returns the cached result for key, or ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, key string) (*Result, error) {
	payload, err := s.rdb.Get(ctx, redisEntryPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	result := e.Result
	return &result, nil
}

// Set stores e with the store's TTL and adds its key to the path set. The
// path set's own TTL is refreshed so it outlives its newest member.
func (s *RedisStore) Set(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := s.rdb.Set(ctx, redisEntryPrefix+e.Key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set entry: %w", err)
	}

	pathKey := redisPathPrefix + e.Path
	if err := s.rdb.SAdd(ctx, pathKey, e.Key).Err(); err != nil {
		return fmt.Errorf("index entry: %w", err)
	}
	if err := s.rdb.Expire(ctx, pathKey, s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh index ttl: %w", err)
	}
	return nil
}

// Invalidate removes the addressed entry or every entry for a path. Keys in
// a path set whose entries already expired delete as no-ops.
func (s *RedisStore) Invalidate(ctx context.Context, inv Invalidation) error {
	if inv.Key != "" {
		if err := s.rdb.Del(ctx, redisEntryPrefix+inv.Key).Err(); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return nil
	}

	pathKey := redisPathPrefix + inv.Path
	keys, err := s.rdb.SMembers(ctx, pathKey).Result()
	if err != nil {
		return fmt.Errorf("list path entries: %w", err)
	}

	targets := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		targets = append(targets, redisEntryPrefix+key)
	}
	targets = append(targets, pathKey)

	if err := s.rdb.Del(ctx, targets...).Err(); err != nil {
		return fmt.Errorf("delete path entries: %w", err)
	}
	return nil
}

// Close closes the client connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

var _ Store = (*RedisStore)(nil)
