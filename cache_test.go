package mdrender

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestContentHash(t *testing.T) {
	t.Parallel()

	a := ContentHash("# Hello")
	b := ContentHash("# Hello")
	c := ContentHash("# Hello!")

	if a != b {
		t.Errorf("identical content hashed differently: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different content produced identical hashes")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestGenerateKey_Deterministic(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	base := KeyInput{
		Path:    "docs/guide.md",
		Content: "# Guide\n\nbody",
		Theme:   "github",
		Preferences: map[string]string{
			"fontSize": "14",
			"width":    "80ch",
		},
	}

	k1, err := cache.GenerateKey(ctx, base)
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	// Same fields, map built in the opposite order.
	again := base
	again.Preferences = map[string]string{
		"width":    "80ch",
		"fontSize": "14",
	}
	k2, err := cache.GenerateKey(ctx, again)
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if k1 != k2 {
		t.Errorf("identical inputs produced different keys:\n%s\n%s", k1, k2)
	}

	tests := []struct {
		name   string
		mutate func(in *KeyInput)
	}{
		{"content change", func(in *KeyInput) { in.Content += "." }},
		{"theme change", func(in *KeyInput) { in.Theme = "dark" }},
		{"path change", func(in *KeyInput) { in.Path = "docs/other.md" }},
		{"preference change", func(in *KeyInput) { in.Preferences["fontSize"] = "16" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.Preferences = map[string]string{"fontSize": "14", "width": "80ch"}
			tt.mutate(&in)
			k, err := cache.GenerateKey(ctx, in)
			if err != nil {
				t.Fatalf("GenerateKey() error: %v", err)
			}
			if k == k1 {
				t.Error("mutated input produced the original key")
			}
		})
	}
}

func TestGenerateKey_CancelledContext(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(time.Minute)
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.GenerateKey(ctx, KeyInput{Content: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateKey() error = %v, want %v", err, context.Canceled)
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	key, err := cache.GenerateKey(ctx, KeyInput{Path: "a.md", Content: "# A", Theme: "github"})
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	if _, err := cache.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() before Set error = %v, want %v", err, ErrCacheMiss)
	}

	want := CachedResult{
		Key:       key,
		HTML:      "<h1>A</h1>",
		Meta:      ConvertMeta{WordCount: 1, HeadingCount: 1},
		CreatedAt: time.Now(),
	}
	err = cache.Set(ctx, SetEntry{
		Key:         key,
		Result:      want,
		Path:        "a.md",
		ContentHash: ContentHash("# A"),
		Theme:       "github",
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() after Set error: %v", err)
	}
	if got.HTML != want.HTML {
		t.Errorf("Get() HTML = %q, want %q", got.HTML, want.HTML)
	}
	if got.Meta != want.Meta {
		t.Errorf("Get() Meta = %+v, want %+v", got.Meta, want.Meta)
	}
}

func TestMemoryCache_InvalidateByKey(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	entry := SetEntry{
		Key:    "k1",
		Result: CachedResult{Key: "k1", HTML: "<p>x</p>"},
		Path:   "a.md",
	}
	if err := cache.Set(ctx, entry); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	if err := cache.Invalidate(ctx, InvalidateRequest{Key: "k1"}); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, err := cache.Get(ctx, "k1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after invalidation error = %v, want %v", err, ErrCacheMiss)
	}
}

func TestMemoryCache_InvalidateByPath(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	// Two themes of the same document share a path; both must go.
	for _, key := range []string{"k-light", "k-dark"} {
		err := cache.Set(ctx, SetEntry{
			Key:    key,
			Result: CachedResult{Key: key, HTML: "<p>themed</p>"},
			Path:   "docs/shared.md",
		})
		if err != nil {
			t.Fatalf("Set(%s) error: %v", key, err)
		}
	}
	err := cache.Set(ctx, SetEntry{
		Key:    "k-other",
		Result: CachedResult{Key: "k-other", HTML: "<p>other</p>"},
		Path:   "docs/other.md",
	})
	if err != nil {
		t.Fatalf("Set(k-other) error: %v", err)
	}

	if err := cache.Invalidate(ctx, InvalidateRequest{Path: "docs/shared.md"}); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}

	for _, key := range []string{"k-light", "k-dark"} {
		if _, err := cache.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Get(%s) after path invalidation error = %v, want miss", key, err)
		}
	}
	if _, err := cache.Get(ctx, "k-other"); err != nil {
		t.Errorf("Get(k-other) error = %v; unrelated path was invalidated", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(10 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	err := cache.Set(ctx, SetEntry{
		Key:    "short-lived",
		Result: CachedResult{Key: "short-lived", HTML: "<p>x</p>"},
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if _, err := cache.Get(ctx, "short-lived"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want %v", err, ErrCacheMiss)
	}
}

func TestSQLiteCache_RoundTrip(t *testing.T) {
	t.Parallel()

	cache, err := NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteCache() error: %v", err)
	}
	defer cache.Close()
	ctx := context.Background()

	entry := SetEntry{
		Key:         "sqlite-key",
		Result:      CachedResult{Key: "sqlite-key", HTML: "<p>persisted</p>", CreatedAt: time.Now()},
		Path:        "notes/db.md",
		ContentHash: ContentHash("body"),
		Theme:       "github",
	}
	if err := cache.Set(ctx, entry); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err := cache.Get(ctx, "sqlite-key")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.HTML != "<p>persisted</p>" {
		t.Errorf("Get() HTML = %q, want %q", got.HTML, "<p>persisted</p>")
	}

	if err := cache.Invalidate(ctx, InvalidateRequest{Path: "notes/db.md"}); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, err := cache.Get(ctx, "sqlite-key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after invalidation error = %v, want %v", err, ErrCacheMiss)
	}
}
