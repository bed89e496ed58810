package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mdrender/internal/timeutil"
	"github.com/alnah/go-mdrender/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidField    = errors.New("invalid config field")
)

// Field length limits for multi-tenant safety.
const (
	MaxThemeLength    = 50   // "github", "github-dark", custom names
	MaxBackendLength  = 20   // "memory", "sqlite", "redis", "nats"
	MaxDSNLength      = 2048 // File path, redis URL, or connection string
	MaxURLLength      = 2048 // NATS server URL
	MaxPathLength     = 4096 // Input/output directory paths
	MaxDurationLength = timeutil.MaxDurationLength
)

// Config holds all tunables for document rendering. Zero values defer to the
// library defaults.
type Config struct {
	Theme              string      `yaml:"theme"`              // Theme name in internal/assets/themes/ (empty = "github")
	Workers            int         `yaml:"workers"`            // Dispatcher workers (0 = derive from CPU count)
	TaskTimeout        string      `yaml:"taskTimeout"`        // Per-task deadline, e.g. "30s"
	ProgressInterval   string      `yaml:"progressInterval"`   // Progress emission throttle, e.g. "100ms"
	HydrationThreshold int         `yaml:"hydrationThreshold"` // Bytes above which rendering goes progressive (0 = default)
	ChunkSize          int         `yaml:"chunkSize"`          // Max section size in bytes (0 = default)
	Input              IOConfig    `yaml:"input"`              // Default source location for CLI renders
	Output             IOConfig    `yaml:"output"`             // Default destination for CLI renders
	Cache              CacheConfig `yaml:"cache"`
	NATS               NATSConfig  `yaml:"nats"`
}

// IOConfig names a default directory used when the CLI gets no explicit path.
type IOConfig struct {
	DefaultDir string `yaml:"defaultDir"`
}

// CacheConfig selects and tunes the render result cache.
type CacheConfig struct {
	Backend string `yaml:"backend"` // "memory", "sqlite", "redis", "nats" (empty = no cache)
	DSN     string `yaml:"dsn"`     // Backend address: file path, redis URL, ignored for memory
	TTL     string `yaml:"ttl"`     // Entry lifetime, e.g. "24h" or "7d" (empty = backend default)
}

// NATSConfig points at the cache daemon for the nats backend.
type NATSConfig struct {
	URL     string `yaml:"url"`     // Server URL, e.g. "nats://localhost:4222"
	Timeout string `yaml:"timeout"` // Per-request deadline, e.g. "2s"
}

// cacheBackends enumerates accepted cache.backend values.
var cacheBackends = map[string]bool{
	"memory": true,
	"sqlite": true,
	"redis":  true,
	"nats":   true,
}

// Validate checks field lengths and value domains. Called automatically by
// LoadConfig, but available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("theme", c.Theme, MaxThemeLength); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidField, c.Workers)
	}
	if c.HydrationThreshold < 0 {
		return fmt.Errorf("%w: hydrationThreshold must not be negative, got %d", ErrInvalidField, c.HydrationThreshold)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: chunkSize must not be negative, got %d", ErrInvalidField, c.ChunkSize)
	}
	if err := validateDuration("taskTimeout", c.TaskTimeout); err != nil {
		return err
	}
	if err := validateDuration("progressInterval", c.ProgressInterval); err != nil {
		return err
	}
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	if c.Cache.Backend != "" && !cacheBackends[strings.ToLower(c.Cache.Backend)] {
		return fmt.Errorf("%w: cache.backend %q (must be memory, sqlite, redis, or nats)",
			ErrInvalidField, c.Cache.Backend)
	}
	if err := validateFieldLength("cache.backend", c.Cache.Backend, MaxBackendLength); err != nil {
		return err
	}
	if err := validateFieldLength("cache.dsn", c.Cache.DSN, MaxDSNLength); err != nil {
		return err
	}
	if err := validateDuration("cache.ttl", c.Cache.TTL); err != nil {
		return err
	}

	if err := validateFieldLength("nats.url", c.NATS.URL, MaxURLLength); err != nil {
		return err
	}
	if err := validateDuration("nats.timeout", c.NATS.Timeout); err != nil {
		return err
	}

	return nil
}

// TaskTimeoutDuration parses TaskTimeout; zero when unset.
func (c *Config) TaskTimeoutDuration() (time.Duration, error) {
	return optionalDuration(c.TaskTimeout)
}

// ProgressIntervalDuration parses ProgressInterval; zero when unset.
func (c *Config) ProgressIntervalDuration() (time.Duration, error) {
	return optionalDuration(c.ProgressInterval)
}

// CacheTTLDuration parses Cache.TTL; zero when unset.
func (c *Config) CacheTTLDuration() (time.Duration, error) {
	return optionalDuration(c.Cache.TTL)
}

// NATSTimeoutDuration parses NATS.Timeout; zero when unset.
func (c *Config) NATSTimeoutDuration() (time.Duration, error) {
	return optionalDuration(c.NATS.Timeout)
}

func optionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return timeutil.ParseDuration(s)
}

// validateDuration checks that a duration field, when set, parses.
func validateDuration(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if _, err := timeutil.ParseDuration(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidField, fieldName, err)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the stock configuration: github theme, derived worker
// count, no cache.
func DefaultConfig() *Config {
	return &Config{
		Theme:            "github",
		Workers:          0,
		TaskTimeout:      "30s",
		ProgressInterval: "100ms",
		Cache:            CacheConfig{Backend: "", TTL: "24h"},
		NATS:             NATSConfig{URL: "", Timeout: "2s"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdrender/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mdrender", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
