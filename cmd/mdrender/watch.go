package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-mdrender/internal/fileutil"
	"github.com/alnah/go-mdrender/internal/timeutil"
)

// defaultDebounce is the quiet window before a re-render. Editors tend to
// fire several events per save; 300ms coalesces them into one rebuild.
const defaultDebounce = 300 * time.Millisecond

// watchSession carries the state shared by the watch loop and its rebuilds.
type watchSession struct {
	watcher      *fsnotify.Watcher
	debounce     time.Duration
	singleFile   string // non-empty when watching one file
	baseInputDir string // non-empty when watching a directory
	outputDir    string
	stack        *renderStack
	quiet        bool
	verbose      bool
	env          *Environment
}

// runWatch renders once, then re-renders changed markdown files until the
// context is canceled. Render failures are reported but never stop the watch.
func runWatch(ctx context.Context, args []string, flags *renderFlags, stack *renderStack, env *Environment) error {
	debounce, err := resolveDebounce(flags.watch.debounce)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(args, stack.cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, stack.cfg)

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadDocument, err)
	}

	// Initial render so the output is current before watching starts.
	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	results := renderBatch(ctx, stack.pool, files, stack.params)
	printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	session := &watchSession{
		watcher:   watcher,
		debounce:  debounce,
		outputDir: outputDir,
		stack:     stack,
		quiet:     flags.common.quiet,
		verbose:   flags.common.verbose,
		env:       env,
	}

	if info.IsDir() {
		session.baseInputDir = inputPath
		if err := watchRecursive(watcher, inputPath); err != nil {
			return err
		}
	} else {
		// Watch the parent directory; editors often replace files on save,
		// which drops a watch placed on the file itself.
		session.singleFile = filepath.Clean(inputPath)
		if err := watcher.Add(filepath.Dir(inputPath)); err != nil {
			return fmt.Errorf("watching %s: %w", filepath.Dir(inputPath), err)
		}
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Watching %s (debounce %v)\n", inputPath, debounce)
	}

	return session.run(ctx)
}

// resolveDebounce parses the debounce flag, falling back to the default.
func resolveDebounce(value string) (time.Duration, error) {
	if value == "" {
		return defaultDebounce, nil
	}
	d, err := timeutil.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid debounce %q: %v", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("debounce must be positive, got %q", value)
	}
	return d, nil
}

// watchRecursive adds the directory and every subdirectory to the watcher.
// fsnotify watches a single level, so nested directories need their own entry.
func watchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// run is the watch event loop: collect changed paths, wait for the quiet
// window, then rebuild the pending set in one batch.
func (s *watchSession) run(ctx context.Context) error {
	pending := make(map[string]struct{})

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if !s.handleEvent(event, pending) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.debounce)
			timerC = timer.C

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(s.env.Stderr, "watch error: %v\n", err)

		case <-timerC:
			timerC = nil
			paths := drainPending(pending)
			s.rebuild(ctx, paths)
		}
	}
}

// handleEvent inspects one filesystem event and reports whether it grew the
// pending set.
func (s *watchSession) handleEvent(event fsnotify.Event, pending map[string]struct{}) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}

	// A new directory needs its own watch before events inside it arrive.
	if event.Op&fsnotify.Create != 0 && s.baseInputDir != "" {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watchRecursive(s.watcher, event.Name); err != nil {
				fmt.Fprintf(s.env.Stderr, "watch error: %v\n", err)
			}
			return false
		}
	}

	if validateMarkdownExtension(event.Name) != nil {
		return false
	}
	if s.singleFile != "" && filepath.Clean(event.Name) != s.singleFile {
		return false
	}

	pending[event.Name] = struct{}{}
	return true
}

// drainPending empties the pending set into a sorted slice.
func drainPending(pending map[string]struct{}) []string {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	for p := range pending {
		delete(pending, p)
	}
	sort.Strings(paths)
	return paths
}

// rebuild renders the changed files. Paths renamed away since the event are
// skipped; the rename target produced its own event.
func (s *watchSession) rebuild(ctx context.Context, paths []string) {
	files := make([]FileToRender, 0, len(paths))
	for _, p := range paths {
		if !fileutil.FileExists(p) {
			continue
		}
		files = append(files, FileToRender{
			InputPath:  p,
			OutputPath: resolveOutputPath(p, s.outputDir, s.baseInputDir),
		})
	}
	if len(files) == 0 {
		return
	}

	results := renderBatch(ctx, s.stack.pool, files, s.stack.params)
	printResultsWithWriter(results, s.quiet, s.verbose, s.env)
}
