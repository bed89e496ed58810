package main

import (
	"errors"
	"fmt"
	"strings"

	mdrender "github.com/alnah/go-mdrender"
	"github.com/alnah/go-mdrender/internal/config"
	"github.com/alnah/go-mdrender/internal/fileutil"
	"github.com/alnah/go-mdrender/internal/hints"
)

// Sentinel errors for CLI param building.
var (
	ErrInvalidPreference = errors.New("invalid preference")
	ErrThemeIsPath       = errors.New("theme takes a name, not a path")
	ErrCacheDSNRequired  = errors.New("cache backend requires an address")
)

// renderParams groups parameters shared across batch/file rendering.
type renderParams struct {
	theme       string
	title       string // "" derives the title per file
	prefs       map[string]string
	useCache    bool
	useParallel bool
	chunkSize   int
	onProgress  func(mdrender.Progress) // set only for single-file renders
}

// buildRenderParams resolves the per-request render settings from merged
// flags and config. Cache wiring happens separately in openCache.
func buildRenderParams(flags *renderFlags, cfg *config.Config) (*renderParams, error) {
	prefs, err := parsePreferences(flags.document.prefs)
	if err != nil {
		return nil, err
	}

	// Catch --theme ./custom.css early; left alone it surfaces much later as
	// an unknown theme named after the path.
	if fileutil.IsFilePath(cfg.Theme) {
		return nil, fmt.Errorf("%w: %q (use --asset-path for a directory of custom themes)",
			ErrThemeIsPath, cfg.Theme)
	}

	return &renderParams{
		theme:       cfg.Theme,
		title:       flags.document.title,
		prefs:       prefs,
		useParallel: flags.pipeline.parallel,
		chunkSize:   cfg.ChunkSize,
	}, nil
}

// parsePreferences parses repeated key=value flags into a map. Later values
// win for duplicate keys.
func parsePreferences(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	prefs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q (want key=value)", ErrInvalidPreference, pair)
		}
		prefs[key] = value
	}
	return prefs, nil
}

// openCache opens the configured cache backend. Returns nil without error
// when no backend is configured or the cache is disabled. An explicitly
// configured backend that cannot open is a hard error; --no-cache is the
// escape hatch.
func openCache(cfg *config.Config, flags *renderFlags) (mdrender.Cache, error) {
	if flags.cache.disabled {
		return nil, nil
	}

	backend := strings.ToLower(cfg.Cache.Backend)
	if backend == "" {
		return nil, nil
	}

	ttl, err := cfg.CacheTTLDuration()
	if err != nil {
		return nil, fmt.Errorf("%w: cache.ttl: %v", config.ErrInvalidField, err)
	}

	switch backend {
	case "memory":
		return mdrender.NewMemoryCache(ttl), nil

	case "sqlite":
		if cfg.Cache.DSN == "" {
			return nil, fmt.Errorf("%w: sqlite needs a file path in cache.dsn", ErrCacheDSNRequired)
		}
		c, err := mdrender.NewSQLiteCache(cfg.Cache.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite cache: %w%s", err, hints.ForCacheUnavailable("sqlite"))
		}
		return c, nil

	case "redis":
		if cfg.Cache.DSN == "" {
			return nil, fmt.Errorf("%w: redis needs a URL in cache.dsn", ErrCacheDSNRequired)
		}
		c, err := mdrender.NewRedisCache(cfg.Cache.DSN, ttl)
		if err != nil {
			return nil, fmt.Errorf("opening redis cache: %w%s", err, hints.ForCacheUnavailable("redis"))
		}
		return c, nil

	case "nats":
		if cfg.NATS.URL == "" {
			return nil, fmt.Errorf("%w: nats needs a server URL in nats.url", ErrCacheDSNRequired)
		}
		timeout, err := cfg.NATSTimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("%w: nats.timeout: %v", config.ErrInvalidField, err)
		}
		c, err := mdrender.NewNATSCache(cfg.NATS.URL, "", timeout, nil)
		if err != nil {
			return nil, fmt.Errorf("connecting cache daemon: %w%s", err, hints.ForCacheUnavailable("nats"))
		}
		return c, nil

	default:
		return nil, fmt.Errorf("%w: cache.backend %q", config.ErrInvalidField, cfg.Cache.Backend)
	}
}
