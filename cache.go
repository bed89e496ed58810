package mdrender

import (
	"context"
	"log/slog"
	"time"

	"github.com/alnah/go-mdrender/internal/cache"
)

// KeyInput carries everything that determines a render result. Identical
// inputs yield byte-identical keys across processes and restarts.
type KeyInput struct {
	Path        string
	Content     string
	Theme       string
	Preferences map[string]string
}

// CachedResult is a completed render stored under its cache key.
type CachedResult struct {
	Key       string
	HTML      string
	Meta      ConvertMeta
	CreatedAt time.Time
}

// SetEntry is a cache write request: the result plus the indexing fields
// that make path-scoped invalidation possible.
type SetEntry struct {
	Key         string
	Result      CachedResult
	Path        string
	ContentHash string
	Theme       string
}

// InvalidateRequest addresses entries either by exact key or by source
// path. Exactly one field should be set; key wins when both are.
type InvalidateRequest struct {
	Key  string
	Path string
}

// Cache is the result cache contract. Get reports ErrCacheMiss for unknown
// keys. Renders treat every cache failure as a miss on read and a logged
// no-op on write; a broken cache never fails a render. Implementations must
// be safe for concurrent use.
type Cache interface {
	GenerateKey(ctx context.Context, in KeyInput) (string, error)
	Get(ctx context.Context, key string) (*CachedResult, error)
	Set(ctx context.Context, e SetEntry) error
	Invalidate(ctx context.Context, inv InvalidateRequest) error
	Close() error
}

// ContentHash returns the SHA-256 hex digest of content, the change marker
// stored with each cache entry.
func ContentHash(content string) string {
	return cache.ContentHash(content)
}

// NewMemoryCache creates an in-process cache expiring entries after ttl.
// Non-positive ttl falls back to the default.
func NewMemoryCache(ttl time.Duration) Cache {
	return &storeCache{store: cache.NewMemoryStore(ttl, 0)}
}

// NewSQLiteCache opens (or creates) a persistent cache at path. Use
// ":memory:" for an in-memory database.
func NewSQLiteCache(path string) (Cache, error) {
	store, err := cache.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return &storeCache{store: store}, nil
}

// NewRedisCache connects to the redis server described by url
// (redis://host:port/db) and expires entries after ttl.
func NewRedisCache(url string, ttl time.Duration) (Cache, error) {
	store, err := cache.NewRedisStore(url, ttl)
	if err != nil {
		return nil, err
	}
	return &storeCache{store: store}, nil
}

// NewNATSCache connects to the shared cache daemon through the NATS server
// at url. Subjects are derived from prefix; "" uses the daemon default.
// Unlike the other backends, key generation goes over the wire so all
// daemon clients agree on one derivation.
func NewNATSCache(url, prefix string, timeout time.Duration, logger *slog.Logger) (Cache, error) {
	client, err := cache.NewClient(url, prefix, timeout, logger)
	if err != nil {
		return nil, err
	}
	return &storeCache{store: client}, nil
}

// keyGenerator is implemented by stores that derive keys remotely.
type keyGenerator interface {
	GenerateKey(ctx context.Context, in cache.KeyInput) (string, error)
}

// storeCache adapts an internal store to the public Cache contract. Key
// generation runs locally unless the store handles it itself.
type storeCache struct {
	store cache.Store
}

func (c *storeCache) GenerateKey(ctx context.Context, in KeyInput) (string, error) {
	if gen, ok := c.store.(keyGenerator); ok {
		return gen.GenerateKey(ctx, toKeyInput(in))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return cache.Key(toKeyInput(in)), nil
}

func (c *storeCache) Get(ctx context.Context, key string) (*CachedResult, error) {
	result, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return fromCacheResult(result), nil
}

func (c *storeCache) Set(ctx context.Context, e SetEntry) error {
	return c.store.Set(ctx, toCacheEntry(e))
}

func (c *storeCache) Invalidate(ctx context.Context, inv InvalidateRequest) error {
	return c.store.Invalidate(ctx, cache.Invalidation{Key: inv.Key, Path: inv.Path})
}

func (c *storeCache) Close() error {
	return c.store.Close()
}

var _ Cache = (*storeCache)(nil)

// toKeyInput converts the public KeyInput to the internal type.
func toKeyInput(in KeyInput) cache.KeyInput {
	return cache.KeyInput{
		Path:        in.Path,
		Content:     in.Content,
		Theme:       in.Theme,
		Preferences: in.Preferences,
	}
}

// toCacheEntry converts a public SetEntry to the internal type.
func toCacheEntry(e SetEntry) cache.Entry {
	return cache.Entry{
		Key: e.Key,
		Result: cache.Result{
			Key:       e.Result.Key,
			HTML:      e.Result.HTML,
			Meta:      toCacheMeta(e.Result.Meta),
			CreatedAt: e.Result.CreatedAt,
		},
		Path:        e.Path,
		ContentHash: e.ContentHash,
		Theme:       e.Theme,
	}
}

// fromCacheResult converts an internal result to the public type.
func fromCacheResult(r *cache.Result) *CachedResult {
	if r == nil {
		return nil
	}
	return &CachedResult{
		Key:       r.Key,
		HTML:      r.HTML,
		Meta:      fromCacheMeta(r.Meta),
		CreatedAt: r.CreatedAt,
	}
}

func toCacheMeta(m ConvertMeta) cache.Meta {
	return cache.Meta{
		WordCount:      m.WordCount,
		HeadingCount:   m.HeadingCount,
		CodeBlockCount: m.CodeBlockCount,
	}
}

func fromCacheMeta(m cache.Meta) ConvertMeta {
	return ConvertMeta{
		WordCount:      m.WordCount,
		HeadingCount:   m.HeadingCount,
		CodeBlockCount: m.CodeBlockCount,
	}
}
