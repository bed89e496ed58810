package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdrender/internal/config"
	"github.com/alnah/go-mdrender/internal/timeutil"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // MDRENDER_CONFIG: config file name or path
	Theme      string        // MDRENDER_THEME: theme name
	Timeout    time.Duration // MDRENDER_TIMEOUT: per-render timeout

	// Tier 2 - I/O
	InputDir  string // MDRENDER_INPUT_DIR: default input directory
	OutputDir string // MDRENDER_OUTPUT_DIR: default output directory
	AssetPath string // MDRENDER_ASSET_PATH: custom theme/template directory

	// Tier 3 - Cache and tuning
	CacheBackend string // MDRENDER_CACHE_BACKEND: memory, sqlite, redis, nats
	CacheDSN     string // MDRENDER_CACHE_DSN: backend address
	CacheTTL     string // MDRENDER_CACHE_TTL: entry lifetime, e.g. "24h"
	NATSURL      string // MDRENDER_NATS_URL: cache daemon URL
	Workers      int    // MDRENDER_WORKERS: parallel renderers
}

// knownEnvVars lists valid MDRENDER_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MDRENDER_CONFIG":  true,
	"MDRENDER_THEME":   true,
	"MDRENDER_TIMEOUT": true,
	// Tier 2 - I/O
	"MDRENDER_INPUT_DIR":  true,
	"MDRENDER_OUTPUT_DIR": true,
	"MDRENDER_ASSET_PATH": true,
	// Tier 3 - Cache and tuning
	"MDRENDER_CACHE_BACKEND": true,
	"MDRENDER_CACHE_DSN":     true,
	"MDRENDER_CACHE_TTL":     true,
	"MDRENDER_NATS_URL":      true,
	"MDRENDER_WORKERS":       true,
	// Read by doctor only
	"MDRENDER_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized MDRENDER_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("MDRENDER_CONFIG"),
		Theme:      os.Getenv("MDRENDER_THEME"),
		// Tier 2
		InputDir:  os.Getenv("MDRENDER_INPUT_DIR"),
		OutputDir: os.Getenv("MDRENDER_OUTPUT_DIR"),
		AssetPath: os.Getenv("MDRENDER_ASSET_PATH"),
		// Tier 3
		CacheBackend: os.Getenv("MDRENDER_CACHE_BACKEND"),
		CacheDSN:     os.Getenv("MDRENDER_CACHE_DSN"),
		CacheTTL:     os.Getenv("MDRENDER_CACHE_TTL"),
		NATSURL:      os.Getenv("MDRENDER_NATS_URL"),
	}

	// Parse duration for timeout
	if timeout := os.Getenv("MDRENDER_TIMEOUT"); timeout != "" {
		if d, err := timeutil.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Parse int for workers
	if workers := os.Getenv("MDRENDER_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDRENDER_* variables.
// Helps catch typos like MDRENDER_TEHME instead of MDRENDER_THEME.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MDRENDER_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig fills config gaps from environment variables.
// A value is applied only when the env var is set AND the config value is
// empty/zero, so: CLI flags > config file > env vars > defaults.
// (CLI flags are applied later via mergeFlags; timeout is resolved
// separately in resolveTimeoutWithEnv.)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if env.Theme != "" && cfg.Theme == "" {
		cfg.Theme = env.Theme
	}

	// Tier 2 - I/O
	if env.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}

	// Tier 3 - Cache
	if env.CacheBackend != "" && cfg.Cache.Backend == "" {
		cfg.Cache.Backend = env.CacheBackend
	}
	if env.CacheDSN != "" && cfg.Cache.DSN == "" {
		cfg.Cache.DSN = env.CacheDSN
	}
	if env.CacheTTL != "" && cfg.Cache.TTL == "" {
		cfg.Cache.TTL = env.CacheTTL
	}
	if env.NATSURL != "" && cfg.NATS.URL == "" {
		cfg.NATS.URL = env.NATSURL
	}
	if env.Workers > 0 && cfg.Workers == 0 {
		cfg.Workers = env.Workers
	}
}
