// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strings"
)

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mdrender/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path (contains .config/go-mdrender) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-mdrender") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForThemeNotFound returns hints for theme not found errors.
func ForThemeNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForCacheUnavailable returns hints for unreachable cache backends.
func ForCacheUnavailable(backend string) string {
	switch backend {
	case "nats":
		return format("start the cache daemon (mdcached) or check --nats-url")
	case "redis":
		return format("check the redis server is running at --cache-dsn")
	case "sqlite":
		return format("check --cache-dsn points to a writable file path")
	default:
		return format("check --cache and --cache-dsn settings")
	}
}

// ForChunkSize returns a hint for invalid chunk size values.
func ForChunkSize() string {
	return format("chunk size must be positive; omit --chunk-size for the default")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
