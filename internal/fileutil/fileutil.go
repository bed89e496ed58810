// Package fileutil provides file and path utility functions.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "github" -> false (name)
//   - "./custom.css" -> true (relative path)
//   - "../shared/theme.css" -> true (parent path)
//   - "/absolute/theme.css" -> true (absolute)
//   - "C:\windows\theme.css" -> true (Windows)
//   - "github-dark" -> false (hyphenated name)
//   - "sub/dir" -> true (contains separator)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// EnsureDir creates the directory and any missing parents. An empty path is
// a no-op so callers can pass optional output directories straight through.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// filePermissions is rw-r--r--: rendered output is meant to be readable.
const filePermissions = 0o644

// WriteFileAtomic writes content to path through a temp file and rename, so
// a watcher reading the output never observes a half-written file.
func WriteFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mdrender-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	// CreateTemp opens the file 0600; widen before the rename publishes it.
	if err := tmp.Chmod(filePermissions); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
