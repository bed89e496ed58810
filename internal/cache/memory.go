package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Default retention for in-process entries.
const (
	DefaultMemoryTTL   = 1 * time.Hour
	DefaultMemorySweep = 10 * time.Minute
)

// MemoryStore keeps entries in process memory with TTL eviction. A side
// index maps each source path to its live keys so path-scoped invalidation
// does not scan the whole cache.
type MemoryStore struct {
	entries *gocache.Cache

	mu    sync.Mutex
	paths map[string]map[string]struct{}
}

// NewMemoryStore creates a store that expires entries after ttl and purges
// expired items every sweep interval. Non-positive values fall back to the
// defaults.
func NewMemoryStore(ttl, sweep time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	if sweep <= 0 {
		sweep = DefaultMemorySweep
	}

	s := &MemoryStore{
		entries: gocache.New(ttl, sweep),
		paths:   make(map[string]map[string]struct{}),
	}
	// Expiry must also drop the path index entry, or invalidation keeps
	// chasing dead keys.
	s.entries.OnEvicted(func(key string, value any) {
		if e, ok := value.(Entry); ok {
			s.unindex(e.Path, key)
		}
	})
	return s
}

// Get returns the cached result for key, or ErrCacheMiss.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, found := s.entries.Get(key)
	if !found {
		return nil, ErrCacheMiss
	}
	e, ok := value.(Entry)
	if !ok {
		return nil, ErrCacheMiss
	}
	result := e.Result
	return &result, nil
}

// Set stores e under its key and indexes it by path.
func (s *MemoryStore) Set(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.entries.Set(e.Key, e, gocache.DefaultExpiration)

	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.paths[e.Path]
	if !ok {
		keys = make(map[string]struct{})
		s.paths[e.Path] = keys
	}
	keys[e.Key] = struct{}{}
	return nil
}

// Invalidate removes the addressed entry or every entry for a path.
// Removing something that is already gone is not an error.
func (s *MemoryStore) Invalidate(ctx context.Context, inv Invalidation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if inv.Key != "" {
		// Delete fires OnEvicted, which drops the path index entry.
		s.entries.Delete(inv.Key)
		return nil
	}

	s.mu.Lock()
	keys := s.paths[inv.Path]
	delete(s.paths, inv.Path)
	s.mu.Unlock()

	for key := range keys {
		s.entries.Delete(key)
	}
	return nil
}

// Close releases nothing; the janitor goroutine stops with the cache.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) unindex(path, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keys, ok := s.paths[path]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.paths, path)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
