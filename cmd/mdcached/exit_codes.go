package main

import (
	"errors"

	"github.com/alnah/go-mdrender/internal/cache"
)

// Exit codes for the mdcached daemon.
// Follows Unix conventions: 0=success, 1=general, 2=usage. Code 4 matches
// the mdrender CLI's meaning for cache backend failures.
const (
	ExitSuccess = 0 // Clean shutdown
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags or validation
	ExitBackend = 4 // Store or broker unreachable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Backend errors (exit 4)
	if errors.Is(err, ErrBrokerUnavailable) ||
		errors.Is(err, cache.ErrCacheUnavailable) {
		return ExitBackend
	}

	// Usage/validation errors (exit 2)
	if errors.Is(err, ErrUnknownBackend) ||
		errors.Is(err, ErrDSNRequired) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidAddress) {
		return ExitUsage
	}

	return ExitGeneral
}
