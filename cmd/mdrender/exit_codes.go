package main

import (
	"context"
	"errors"
	"os"

	mdrender "github.com/alnah/go-mdrender"
	"github.com/alnah/go-mdrender/internal/assets"
	"github.com/alnah/go-mdrender/internal/config"
	"github.com/alnah/go-mdrender/internal/hints"
)

// Exit codes for the mdrender CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful render
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitCache   = 4 // Cache backend errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Cache backend errors (exit 4)
	if errors.Is(err, mdrender.ErrCacheUnavailable) {
		return ExitCache
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadDocument) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, mdrender.ErrEmptyDocument) ||
		errors.Is(err, mdrender.ErrUnknownTheme) ||
		errors.Is(err, mdrender.ErrInvalidChunkSize) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidPreference) ||
		errors.Is(err, ErrThemeIsPath) ||
		errors.Is(err, ErrCacheDSNRequired) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}

// describeError renders err for terminal output, appending a recovery hint
// when the failure class has one. Most errors print unchanged.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error() + errorHint(err)
}

// errorHint returns the hint for err, or "" when none applies.
func errorHint(err error) string {
	switch {
	case errors.Is(err, mdrender.ErrTaskTimeout) || errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, mdrender.ErrUnknownTheme):
		return hints.ForThemeNotFound(assets.ThemeNames())
	case errors.Is(err, mdrender.ErrInvalidChunkSize):
		return hints.ForChunkSize()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}
