package mdrender

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stage identifies a step of the render state machine. Stages advance in
// declaration order; Cached and Error are terminal short circuits.
type Stage int

// Render stages, strictly ordered.
const (
	StageIdle Stage = iota
	StageCacheCheck
	StageParsing
	StageSanitizing
	StageTransforming
	StageInserting
	StageEnhancing
	StageTheming
	StageComplete
	StageCached
	StageError
)

// String returns the lowercase protocol name for the stage.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCacheCheck:
		return "cache-check"
	case StageParsing:
		return "parsing"
	case StageSanitizing:
		return "sanitizing"
	case StageTransforming:
		return "transforming"
	case StageInserting:
		return "inserting"
	case StageEnhancing:
		return "enhancing"
	case StageTheming:
		return "theming"
	case StageComplete:
		return "complete"
	case StageCached:
		return "cached"
	case StageError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the stage ends a render.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageCached || s == StageError
}

// Progress is one progress notification. Ephemeral; broadcast to all
// subscribers, never persisted.
type Progress struct {
	Stage   Stage
	Percent int // 0..100, non-decreasing within one render
	Message string
}

// Section is a contiguous slice of a document bounded at structural markers.
// Concatenating Text fields of a split in order reproduces the source.
type Section struct {
	ID        string
	Heading   string // heading text without markers, "" when absent
	Level     int    // 1-6, 0 when the section has no heading
	StartLine int    // 1-based, inclusive
	EndLine   int    // 1-based, inclusive
	Text      string
}

// ConvertMeta summarizes a converted document.
type ConvertMeta struct {
	WordCount      int
	HeadingCount   int
	CodeBlockCount int
}

// ConvertResult is a converter's output: an HTML fragment without a document
// shell, plus document metadata.
type ConvertResult struct {
	HTML string
	Meta ConvertMeta
}

// Request carries everything one render call needs.
type Request struct {
	Container       Container         // required
	Text            string            // required
	Path            string            // logical document path, part of the cache key
	Theme           string            // "" selects the default theme
	Preferences     map[string]string // opaque render preferences, part of the cache key
	UseCache        bool
	UseParallel     bool
	UseLazySections bool
	ChunkSize       int // bytes per chunk for boundary-free documents, 0 = default
}

// Validate checks the fatal precondition class: a request failing here is
// rejected before any container mutation.
func (r Request) Validate() error {
	if r.Container == nil {
		return ErrNilContainer
	}
	if r.Text == "" {
		return ErrEmptyDocument
	}
	if r.ChunkSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, r.ChunkSize)
	}
	return nil
}

// VisibilityObserver notifies registered callbacks when a section becomes
// visible. Hosts plug in their IntersectionObserver equivalent; the default
// is a manual observer fed through Renderer.MarkVisible.
type VisibilityObserver interface {
	Observe(id string, fn func())
	Unobserve(id string)
}

// IdleRunner schedules non-critical work for idle time. The default runs
// work immediately on the calling goroutine.
type IdleRunner interface {
	RunWhenIdle(fn func())
}

// inlineIdleRunner executes work immediately. Deterministic output ordering
// makes it the right default for servers and tests.
type inlineIdleRunner struct{}

func (inlineIdleRunner) RunWhenIdle(fn func()) { fn() }

// Defaults for renderer construction.
const (
	// defaultTimeout bounds one render call when the caller's context has
	// no deadline of its own.
	defaultTimeout = 30 * time.Second

	// DefaultHydrationThreshold is the document size in bytes at or above
	// which rendering always goes section by section.
	DefaultHydrationThreshold = 64 * 1024

	// DefaultChunkSize bounds a single hydration step for documents with
	// no structural boundaries.
	DefaultChunkSize = 32 * 1024

	// defaultProgressInterval throttles non-terminal progress emissions.
	defaultProgressInterval = 100 * time.Millisecond
)

// Option configures a Renderer.
type Option func(*Renderer)

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	timeout            time.Duration
	workers            int
	progressInterval   time.Duration
	hydrationThreshold int
	assetPath          string
}

// WithTimeout sets the per-render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdrender: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithWorkers fixes the dispatcher worker count. Zero or negative derives
// the count from GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Renderer) {
		r.cfg.workers = n
	}
}

// WithProgressInterval sets the minimum interval between non-terminal
// progress emissions.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithProgressInterval(d time.Duration) Option {
	if d <= 0 {
		panic("mdrender: WithProgressInterval duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.progressInterval = d
	}
}

// WithHydrationThreshold sets the document size in bytes at or above which
// rendering always goes section by section. Zero or negative restores the
// default.
func WithHydrationThreshold(n int) Option {
	return func(r *Renderer) {
		r.cfg.hydrationThreshold = n
	}
}

// WithAssetPath points the renderer at a directory of custom themes and
// templates. Assets missing there fall back to the embedded set.
func WithAssetPath(path string) Option {
	return func(r *Renderer) {
		r.cfg.assetPath = path
	}
}

// WithConverter replaces the markdown converter.
func WithConverter(c Converter) Option {
	return func(r *Renderer) {
		r.converter = c
	}
}

// WithSanitizer replaces the HTML sanitizer.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Renderer) {
		r.sanitizer = s
	}
}

// WithHighlighter replaces the syntax highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(r *Renderer) {
		r.highlighter = h
	}
}

// WithDiagramRenderer replaces the diagram renderer.
func WithDiagramRenderer(d DiagramRenderer) Option {
	return func(r *Renderer) {
		r.diagrams = d
	}
}

// WithDispatcher replaces the parallel task dispatcher (e.g., by tests).
// The renderer closes only dispatchers it constructed itself.
func WithDispatcher(d Dispatcher) Option {
	return func(r *Renderer) {
		r.dispatcher = d
		r.ownDispatcher = false
	}
}

// WithCache attaches a result cache. The caller keeps ownership and closes
// it; renders only use it when Request.UseCache is set.
func WithCache(c Cache) Option {
	return func(r *Renderer) {
		r.cache = c
	}
}

// WithLogger sets the structured logger. A nil logger discards.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder. A nil recorder records nothing.
func WithMetrics(rec Recorder) Option {
	return func(r *Renderer) {
		r.metrics = rec
	}
}

// WithYield replaces the cooperative yield point invoked between hydration
// steps. The default yields the processor and honors cancellation.
func WithYield(fn func(ctx context.Context) error) Option {
	return func(r *Renderer) {
		r.yield = fn
	}
}

// WithIdleRunner replaces the idle-time scheduler for non-critical
// enhancement work.
func WithIdleRunner(runner IdleRunner) Option {
	return func(r *Renderer) {
		r.idle = runner
	}
}

// WithVisibilityObserver replaces the visibility feed for lazy hydration.
// With a custom observer installed, Renderer.MarkVisible becomes a no-op;
// the observer owns visibility reporting.
func WithVisibilityObserver(o VisibilityObserver) Option {
	return func(r *Renderer) {
		r.observer = o
	}
}
