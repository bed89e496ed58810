package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for cache operations.
var (
	// ErrCacheMiss reports that no entry exists for a key. Every store maps
	// its backend's not-found condition to this value.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable reports that the backend could not be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Meta summarizes the document a cached result was rendered from.
type Meta struct {
	WordCount      int `json:"wordCount"`
	HeadingCount   int `json:"headingCount"`
	CodeBlockCount int `json:"codeBlockCount"`
}

// Result is a completed render stored under its cache key.
type Result struct {
	Key       string    `json:"key"`
	HTML      string    `json:"html"`
	Meta      Meta      `json:"meta"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entry is a write request: the result plus the indexing fields that make
// path-scoped invalidation possible.
type Entry struct {
	Key         string `json:"key"`
	Result      Result `json:"result"`
	Path        string `json:"path"`
	ContentHash string `json:"contentHash"`
	Theme       string `json:"theme"`
}

// Invalidation addresses entries either by exact key or by source path.
// Exactly one field should be set; key wins when both are.
type Invalidation struct {
	Key  string `json:"key,omitempty"`
	Path string `json:"path,omitempty"`
}

// Store is the backend contract. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (*Result, error)
	Set(ctx context.Context, e Entry) error
	Invalidate(ctx context.Context, inv Invalidation) error
	Close() error
}
