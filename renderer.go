package mdrender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-mdrender/internal/assets"
	"github.com/alnah/go-mdrender/internal/hydrate"
	"github.com/alnah/go-mdrender/internal/pipeline"
	"github.com/alnah/go-mdrender/internal/section"
)

// Renderer orchestrates the staged render pipeline into a Container.
// One renderer serves one container at a time: starting a new Render
// supersedes the previous run, so the container only ever shows content
// from the newest call. Safe for concurrent use.
type Renderer struct {
	cfg           rendererConfig
	converter     Converter
	sanitizer     Sanitizer
	highlighter   Highlighter
	diagrams      DiagramRenderer
	transformer   *pipeline.PresentationTransformer
	dispatcher    Dispatcher
	ownDispatcher bool
	cache         Cache
	logger        *slog.Logger
	metrics       Recorder
	yield         func(ctx context.Context) error
	idle          IdleRunner
	observer      VisibilityObserver
	resolver      *assets.AssetResolver
	broker        *progressBroker
	initOnce      sync.Once

	mu         sync.Mutex
	generation uint64
	run        *runState
	closed     bool
}

// New creates a Renderer with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithCache).
func New(opts ...Option) *Renderer {
	r := &Renderer{
		cfg: rendererConfig{
			timeout:            defaultTimeout,
			progressInterval:   defaultProgressInterval,
			hydrationThreshold: DefaultHydrationThreshold,
		},
		transformer: pipeline.NewPresentationTransformer(),
		logger:      slog.New(slog.DiscardHandler),
		metrics:     NoopRecorder{},
		idle:        inlineIdleRunner{},
		broker:      newProgressBroker(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.metrics == nil {
		r.metrics = NoopRecorder{}
	}
	if r.cfg.hydrationThreshold <= 0 {
		r.cfg.hydrationThreshold = DefaultHydrationThreshold
	}

	// Create transform engines if not injected (e.g., by tests)
	if r.converter == nil {
		r.converter = newGoldmarkConverter()
	}
	if r.sanitizer == nil {
		r.sanitizer = pipeline.NewWhitelistSanitizer()
	}
	if r.highlighter == nil {
		r.highlighter = pipeline.NewChromaHighlighter()
	}
	if r.diagrams == nil {
		d2, err := pipeline.NewD2Renderer()
		if err != nil {
			r.logger.Warn("diagram renderer unavailable, diagram blocks stay as code",
				"error", err)
		} else {
			r.diagrams = d2
		}
	}

	if r.dispatcher == nil {
		workers := ResolvePoolSize(r.cfg.workers)
		r.dispatcher = newPoolDispatcher(workers, r.cfg.timeout, r.logger,
			r.converter, r.highlighter, r.diagrams)
		r.ownDispatcher = true
	}

	resolver, err := assets.NewAssetResolver(r.cfg.assetPath)
	if err != nil {
		r.logger.Warn("custom asset path rejected, using embedded assets only",
			"path", r.cfg.assetPath, "error", err)
		resolver, _ = assets.NewAssetResolver("")
	}
	r.resolver = resolver

	return r
}

// Initialize starts the dispatcher workers. Optional: without it (or when
// it fails) task submission degrades to synchronous in-process execution.
// The first parallel render initializes lazily.
func (r *Renderer) Initialize(ctx context.Context) error {
	var err error
	r.initOnce.Do(func() {
		err = r.dispatcher.Initialize(ctx)
	})
	return err
}

// OnProgress subscribes fn to progress notifications and returns its
// unsubscribe handle. Subscriptions span renders until unsubscribed.
func (r *Renderer) OnProgress(fn func(Progress)) func() {
	return r.broker.subscribe(fn)
}

// Cancel requests cooperative cancellation of the run active right now.
// A stage in flight finishes but performs no further container writes.
// Rendering again on the same renderer afterwards is always permitted.
func (r *Renderer) Cancel() {
	r.mu.Lock()
	run := r.run
	r.mu.Unlock()

	if run != nil {
		run.abort()
	}
}

// MarkVisible reports sections as visible, triggering their lazy
// hydration. A no-op outside lazy mode, for unknown ids, and when a custom
// visibility observer owns the feed.
func (r *Renderer) MarkVisible(ids ...string) {
	r.mu.Lock()
	run := r.run
	r.mu.Unlock()

	if run == nil || run.manual == nil {
		return
	}
	for _, id := range ids {
		run.manual.MarkVisible(id)
	}
}

// HydrateAll hydrates every section still pending in the active lazy run
// and waits for outstanding hydrations before returning. Programmatic
// full-document access (printing, export, search) uses this escape hatch.
func (r *Renderer) HydrateAll(ctx context.Context) error {
	r.mu.Lock()
	run := r.run
	r.mu.Unlock()

	if run == nil || run.scheduler == nil {
		return nil
	}
	return run.scheduler.HydrateAll(ctx)
}

// Close cancels the active run and releases the dispatcher if the renderer
// owns it. Injected dispatchers and caches stay open; their owners close
// them.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	run := r.run
	r.mu.Unlock()

	if run != nil {
		run.abort()
	}
	if r.ownDispatcher {
		return r.dispatcher.Close()
	}
	return nil
}

// Render runs the staged pipeline for req. Only the fatal precondition
// class rejects the call; transform failures surface as inline error blocks
// in the container, dispatch failures fall back to synchronous execution,
// and cache failures degrade to misses. In lazy mode Render returns once
// the skeleton is presented; hydration continues on visibility.
func (r *Renderer) Render(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRendererClosed
	}
	if r.run != nil {
		// Supersede: the container only ever shows the newest render.
		r.run.abort()
	}
	r.generation++
	run := &runState{
		generation: r.generation,
		emitter:    newProgressEmitter(r.broker, r.cfg.progressInterval),
		fills:      make(map[string]string),
	}
	// Lazy hydrations outlive this call, so they run on the run's own
	// context rather than the caller's.
	run.ctx, run.cancel = context.WithCancel(context.Background())
	r.run = run
	r.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	err := r.render(ctx, run, req)
	if err != nil {
		run.emitter.stage(StageError, err.Error())
	}
	return err
}

// render sequences the stage machine for one run.
func (r *Renderer) render(ctx context.Context, run *runState, req Request) error {
	start := time.Now()

	// Frontmatter is split before anything else: its delimiter would read
	// as a thematic break downstream, and it may carry the theme.
	fm, body, fmErr := pipeline.SplitFrontmatter(req.Text)
	if fmErr != nil {
		r.logger.Warn("ignoring malformed frontmatter", "path", req.Path, "error", fmErr)
	}

	theme := req.Theme
	if theme == "" && fm != nil {
		theme = fm.Theme
	}
	if theme == "" {
		theme = assets.DefaultThemeName
	}
	css, err := r.loadTheme(theme)
	if err != nil {
		return err
	}

	var key string
	if req.UseCache && r.cache != nil {
		run.emitter.stage(StageCacheCheck, "checking cache")
		key = r.generateKey(ctx, req, theme)
		if cached := r.cacheGet(ctx, key); cached != nil {
			r.metrics.IncCacheHit()
			if err := run.checkpoint(ctx); err != nil {
				return err
			}
			run.setHTML(req.Container, cached.HTML)
			run.applyTheme(req.Container, theme, css)
			run.reinitialize(req.Container)
			run.emitter.stage(StageCached, "served from cache")
			r.metrics.ObserveStageDuration(StageCached, time.Since(start))
			r.logger.Debug("cache hit", "path", req.Path, "key", key)
			return nil
		}
		r.metrics.IncCacheMiss()
	}
	if err := run.checkpoint(ctx); err != nil {
		return err
	}

	if req.UseParallel {
		r.initLazily(ctx)
	}

	// Documents at or above the threshold always hydrate section by
	// section, whatever the caller asked for.
	if len(body) >= r.cfg.hydrationThreshold || req.UseLazySections {
		return r.renderProgressive(ctx, run, req, body, theme, css, key)
	}
	return r.renderWhole(ctx, run, req, body, theme, css, key)
}

// renderWhole renders the document in one piece, through the dispatcher
// when parallelism is requested.
func (r *Renderer) renderWhole(ctx context.Context, run *runState, req Request,
	body, theme, css, key string) error {
	t0 := time.Now()
	run.emitter.stage(StageParsing, "parsing markdown")
	out, err := r.convert(ctx, req.UseParallel, body)
	if err != nil {
		return r.containedFailure(ctx, run, req.Container, theme, css, err)
	}
	if err := run.checkpoint(ctx); err != nil {
		return err
	}
	r.metrics.ObserveStageDuration(StageParsing, time.Since(t0))

	// The sanitizer is the last boundary before container insertion; it
	// never runs inside the dispatcher.
	t0 = time.Now()
	run.emitter.stage(StageSanitizing, "sanitizing")
	clean, err := r.sanitizer.Sanitize(ctx, out.HTML)
	if err != nil {
		return r.containedFailure(ctx, run, req.Container, theme, css, err)
	}
	if err := run.checkpoint(ctx); err != nil {
		return err
	}
	r.metrics.ObserveStageDuration(StageSanitizing, time.Since(t0))

	run.emitter.stage(StageTransforming, "applying presentation transforms")
	styled := r.transformer.Transform(ctx, clean)
	if err := run.checkpoint(ctx); err != nil {
		return err
	}

	run.emitter.stage(StageInserting, "inserting content")
	run.setHTML(req.Container, styled)

	t0 = time.Now()
	run.emitter.stage(StageEnhancing, "highlighting code and rendering diagrams")
	enhanced := r.enhanceCritical(ctx, req.UseParallel, styled)
	if err := run.checkpoint(ctx); err != nil {
		return err
	}
	run.setHTML(req.Container, enhanced)
	r.metrics.ObserveStageDuration(StageEnhancing, time.Since(t0))

	// Non-critical enhancement and the cache write ride on idle time so
	// they never delay the terminal notification.
	r.idle.RunWhenIdle(func() {
		if run.aborted() {
			return
		}
		final := pipeline.AddHeadingAnchors(pipeline.AddCopyAffordances(enhanced))
		run.setHTML(req.Container, final)
		r.writeThrough(key, req, theme, out.Meta, final)
	})

	run.emitter.stage(StageTheming, "applying theme")
	run.applyTheme(req.Container, theme, css)

	run.emitter.stage(StageComplete, "complete")
	return nil
}

// renderProgressive renders section by section: skeleton first, then
// hydration in document order (eager) or on visibility (lazy).
func (r *Renderer) renderProgressive(ctx context.Context, run *runState, req Request,
	body, theme, css, key string) error {
	run.emitter.stage(StageParsing, "splitting document")
	secs := section.Split(body)
	if len(secs) == 1 && len(body) >= r.cfg.hydrationThreshold {
		// No structural boundaries: fall back to size-based chunks so a
		// single hydration step stays bounded.
		chunkSize := req.ChunkSize
		if chunkSize == 0 {
			chunkSize = DefaultChunkSize
		}
		secs = section.Chunk(body, chunkSize)
	}

	fragments := section.BuildSkeleton(secs)
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.HTML
	}
	if err := run.checkpoint(ctx); err != nil {
		return err
	}
	run.setSkeleton(req.Container, strings.Join(parts, "\n"), toPublicSections(secs))
	// Theme the skeleton immediately so the first paint is already styled;
	// the theming stage later is a marker, not a second application.
	run.applyTheme(req.Container, theme, css)
	run.fragments = fragments

	// Per-section sanitize and transform run inside hydration; these are
	// document-level markers keeping the stage order observable.
	run.emitter.stage(StageSanitizing, "sanitizing sections")
	run.emitter.stage(StageTransforming, "transforming sections")

	run.emitter.stage(StageInserting, "hydrating sections")
	total := len(secs)
	run.finish = func() {
		run.finishOnce.Do(func() {
			if run.aborted() {
				return
			}
			run.emitter.stage(StageEnhancing, "enhancing document")
			r.idle.RunWhenIdle(func() {
				if run.aborted() {
					return
				}
				final := pipeline.AddHeadingAnchors(pipeline.AddCopyAffordances(run.assembled()))
				run.setHTML(req.Container, final)
				if run.failureCount() == 0 {
					r.writeThrough(key, req, theme, run.metaSnapshot(), final)
				}
			})
			run.emitter.stage(StageTheming, "applying theme")
			run.emitter.stage(StageComplete, "complete")
		})
	}

	sched, err := hydrate.NewScheduler(hydrate.Config{
		Sections: secs,
		Hydrate: func(ctx context.Context, sec section.Section) (string, error) {
			return r.renderSection(ctx, run, req.UseParallel, sec)
		},
		Fill: func(id, html string) error {
			if run.aborted() {
				return nil
			}
			run.recordFill(id, html)
			r.metrics.IncSectionHydrated()
			return req.Container.FillSection(id, html)
		},
		Fail: func(id string, cause error) {
			if run.aborted() {
				return
			}
			r.metrics.IncHydrationError()
			block := pipeline.ErrorBlock(cause.Error())
			run.recordFailure(id, block)
			if err := req.Container.FillSection(id, block); err != nil {
				r.logger.Warn("failed to place inline error block",
					"section", id, "error", err)
			}
		},
		OnSection: func(done, total int) {
			// A superseded run stays silent: its late hydrations must not
			// interleave progress with the run that replaced it.
			if run.aborted() {
				return
			}
			run.emitter.emit(StageInserting,
				interpolate(StageInserting, StageEnhancing, done, total),
				fmt.Sprintf("hydrated %d of %d sections", done, total))
			if done == total && run.finish != nil {
				run.finish()
			}
		},
		Yield:  run.yieldPoint(r.yield),
		Logger: r.logger,
	})
	if err != nil {
		return err
	}
	run.scheduler = sched

	if req.UseLazySections {
		observer := r.observer
		if observer == nil {
			run.manual = hydrate.NewManualObserver()
			observer = run.manual
		}
		sched.RunLazy(run.ctx, observer)
		r.logger.Debug("lazy hydration armed",
			"sections", total, "generation", run.generation)
		return nil
	}

	if err := sched.RunEager(ctx); err != nil {
		if errors.Is(err, ErrRenderCancelled) || run.aborted() {
			return ErrRenderCancelled
		}
		return err
	}
	return nil
}

// renderSection produces the final HTML for one section: convert, sanitize,
// transform, then critical enhancement.
func (r *Renderer) renderSection(ctx context.Context, run *runState,
	useParallel bool, sec section.Section) (string, error) {
	out, err := r.convert(ctx, useParallel, sec.Text)
	if err != nil {
		return "", err
	}
	clean, err := r.sanitizer.Sanitize(ctx, out.HTML)
	if err != nil {
		return "", err
	}
	styled := r.transformer.Transform(ctx, clean)
	enhanced := r.enhanceCritical(ctx, useParallel, styled)
	run.addMeta(out.Meta)
	return enhanced, nil
}

// convert parses markdown, through the dispatcher when requested. Dispatch
// failures fall back to synchronous conversion; only cancellation
// propagates.
func (r *Renderer) convert(ctx context.Context, useParallel bool, text string) (ConvertResult, error) {
	if useParallel {
		value, err := r.submit(ctx, Task{
			Type:     TaskParse,
			ID:       uuid.NewString(),
			Payload:  text,
			Priority: PriorityHigh,
		})
		switch {
		case err == nil:
			if out, ok := value.(ConvertResult); ok {
				return out, nil
			}
			r.logger.Warn("parse task returned unexpected type, converting inline",
				"type", fmt.Sprintf("%T", value))
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return ConvertResult{}, err
		default:
			r.logger.Warn("parse dispatch failed, converting inline", "error", err)
		}
	}
	return r.converter.Convert(ctx, text)
}

// enhanceCritical highlights code blocks and renders diagrams, splicing
// results back by block index so completion order never matters. Block
// failures are contained: plain code stays plain, failed diagrams show an
// inline error.
func (r *Renderer) enhanceCritical(ctx context.Context, useParallel bool, htmlContent string) string {
	code := pipeline.FindCodeBlocks(htmlContent)
	diagrams := pipeline.FindDiagramBlocks(htmlContent)
	if len(code) == 0 && len(diagrams) == 0 {
		return htmlContent
	}

	replacements := make(map[int]string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	highlightOne := func(b pipeline.CodeBlock) {
		highlighted, err := r.highlightBlock(ctx, useParallel, b)
		if err != nil {
			r.logger.Debug("highlight failed, leaving block plain",
				"lang", b.Lang, "error", err)
			return
		}
		mu.Lock()
		replacements[b.Index] = highlighted
		mu.Unlock()
	}
	diagramOne := func(b pipeline.CodeBlock) {
		svg, err := r.renderDiagramBlock(ctx, useParallel, b)
		var out string
		if err != nil {
			r.logger.Warn("diagram rendering failed", "error", err)
			out = pipeline.ErrorBlock("diagram rendering failed: " + err.Error())
		} else {
			out = pipeline.DiagramFigure(svg)
		}
		mu.Lock()
		replacements[b.Index] = out
		mu.Unlock()
	}

	if useParallel {
		for _, b := range code {
			wg.Add(1)
			go func(b pipeline.CodeBlock) {
				defer wg.Done()
				highlightOne(b)
			}(b)
		}
		for _, b := range diagrams {
			wg.Add(1)
			go func(b pipeline.CodeBlock) {
				defer wg.Done()
				diagramOne(b)
			}(b)
		}
		wg.Wait()
	} else {
		for _, b := range code {
			highlightOne(b)
		}
		for _, b := range diagrams {
			diagramOne(b)
		}
	}

	all := make([]pipeline.CodeBlock, 0, len(code)+len(diagrams))
	all = append(all, code...)
	all = append(all, diagrams...)
	return pipeline.ReplaceBlocks(htmlContent, all, replacements)
}

// highlightBlock runs one highlight task, through the dispatcher when
// requested.
func (r *Renderer) highlightBlock(ctx context.Context, useParallel bool, b pipeline.CodeBlock) (string, error) {
	if useParallel {
		value, err := r.submit(ctx, Task{
			Type:     TaskHighlight,
			ID:       uuid.NewString(),
			Payload:  HighlightJob{Code: b.Code, Lang: b.Lang},
			Priority: PriorityNormal,
		})
		if err == nil {
			if out, ok := value.(string); ok {
				return out, nil
			}
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		} else {
			r.logger.Debug("highlight dispatch failed, highlighting inline", "error", err)
		}
	}
	return r.highlighter.Highlight(ctx, b.Code, b.Lang)
}

// renderDiagramBlock runs one diagram task, through the dispatcher when
// requested.
func (r *Renderer) renderDiagramBlock(ctx context.Context, useParallel bool, b pipeline.CodeBlock) (string, error) {
	if useParallel {
		value, err := r.submit(ctx, Task{
			Type:     TaskRenderDiagram,
			ID:       uuid.NewString(),
			Payload:  b.Code,
			Priority: PriorityLow,
		})
		if err == nil {
			if out, ok := value.(string); ok {
				return out, nil
			}
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		} else {
			r.logger.Debug("diagram dispatch failed, rendering inline", "error", err)
		}
	}
	if r.diagrams == nil {
		return "", fmt.Errorf("%w: no diagram renderer configured", ErrDiagram)
	}
	return r.diagrams.RenderDiagram(ctx, b.Code)
}

// submit sends one task to the dispatcher with metrics bookkeeping.
func (r *Renderer) submit(ctx context.Context, task Task) (any, error) {
	r.metrics.IncTaskDispatched(task.Type)
	value, err := r.dispatcher.Submit(ctx, task)
	switch {
	case err == nil:
		r.metrics.IncTaskCompleted(task.Type)
	case errors.Is(err, ErrTaskTimeout):
		r.metrics.IncTaskTimeout(task.Type)
	}
	return value, err
}

// containedFailure handles the contained transform-failure class: the
// container shows a marked inline error, the render resolves without
// surfacing the cause. Cancellation is not contained.
func (r *Renderer) containedFailure(ctx context.Context, run *runState,
	c Container, theme, css string, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	if err := run.checkpoint(ctx); err != nil {
		return err
	}
	r.logger.Warn("render failed, showing inline error", "error", cause)
	run.setHTML(c, pipeline.ErrorBlock(cause.Error()))
	run.applyTheme(c, theme, css)
	run.emitter.stage(StageError, cause.Error())
	return nil
}

// initLazily starts dispatcher workers once; failure is logged and leaves
// the synchronous fallback in place.
func (r *Renderer) initLazily(ctx context.Context) {
	r.initOnce.Do(func() {
		if err := r.dispatcher.Initialize(ctx); err != nil {
			r.logger.Warn("dispatcher initialization failed, tasks run synchronously",
				"error", err)
		}
	})
}

// loadTheme resolves a theme stylesheet by name.
func (r *Renderer) loadTheme(name string) (string, error) {
	css, err := r.resolver.LoadTheme(name)
	if err != nil {
		if errors.Is(err, assets.ErrThemeNotFound) || errors.Is(err, assets.ErrInvalidAssetName) {
			return "", fmt.Errorf("%w: %q", ErrUnknownTheme, name)
		}
		return "", err
	}
	return css, nil
}

// generateKey derives the cache key for req; failures degrade to an
// uncached render.
func (r *Renderer) generateKey(ctx context.Context, req Request, theme string) string {
	key, err := r.cache.GenerateKey(ctx, KeyInput{
		Path:        req.Path,
		Content:     req.Text,
		Theme:       theme,
		Preferences: req.Preferences,
	})
	if err != nil {
		r.logger.Warn("cache key generation failed", "path", req.Path, "error", err)
		return ""
	}
	return key
}

// cacheGet looks a key up; every failure is a miss.
func (r *Renderer) cacheGet(ctx context.Context, key string) *CachedResult {
	if key == "" {
		return nil
	}
	result, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			r.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		}
		return nil
	}
	return result
}

// writeThrough stores a completed render, best effort. The write uses its
// own context so an expiring render deadline cannot strand a result that
// was already computed.
func (r *Renderer) writeThrough(key string, req Request, theme string, meta ConvertMeta, content string) {
	if key == "" || !req.UseCache || r.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.cache.Set(ctx, SetEntry{
		Key: key,
		Result: CachedResult{
			Key:       key,
			HTML:      content,
			Meta:      meta,
			CreatedAt: time.Now(),
		},
		Path:        req.Path,
		ContentHash: ContentHash(req.Text),
		Theme:       theme,
	})
	if err != nil {
		r.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// runState is the mutable state of one render call. Two concurrent calls
// never share one; a superseded run keeps its state so late hydrations can
// notice they are dead.
type runState struct {
	generation uint64
	cancelled  atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
	emitter    *progressEmitter
	scheduler  *hydrate.Scheduler
	manual     *hydrate.ManualObserver
	finish     func()
	finishOnce sync.Once

	mu        sync.Mutex
	fragments []section.Fragment
	fills     map[string]string
	meta      ConvertMeta
	failures  int
}

// abort cancels the run: the flag stops between-stage progress, the
// context stops lazy hydrations already scheduled.
func (s *runState) abort() {
	s.cancelled.Store(true)
	if s.cancel != nil {
		s.cancel()
	}
}

// aborted reports whether the run was cancelled or superseded.
func (s *runState) aborted() bool {
	return s.cancelled.Load()
}

// checkpoint is the between-stage cancellation gate.
func (s *runState) checkpoint(ctx context.Context) error {
	if s.cancelled.Load() {
		return ErrRenderCancelled
	}
	return ctx.Err()
}

// yieldPoint wraps the configured yield with the run's cancellation flag so
// eager hydration stops between sections even without a context error.
func (s *runState) yieldPoint(yield func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if s.cancelled.Load() {
			return ErrRenderCancelled
		}
		if yield != nil {
			return yield(ctx)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
		return nil
	}
}

// Guarded container writes: a cancelled run performs no further mutations.

func (s *runState) setHTML(c Container, html string) {
	if s.aborted() {
		return
	}
	c.SetHTML(html)
}

func (s *runState) setSkeleton(c Container, html string, sections []Section) {
	if s.aborted() {
		return
	}
	c.SetSkeleton(html, sections)
}

func (s *runState) applyTheme(c Container, name, css string) {
	if s.aborted() {
		return
	}
	c.ApplyTheme(name, css)
}

func (s *runState) reinitialize(c Container) {
	if s.aborted() {
		return
	}
	c.Reinitialize()
}

// recordFill remembers a hydrated section for final assembly.
func (s *runState) recordFill(id, html string) {
	s.mu.Lock()
	s.fills[id] = html
	s.mu.Unlock()
}

// recordFailure remembers an error block in place of a section.
func (s *runState) recordFailure(id, block string) {
	s.mu.Lock()
	s.fills[id] = block
	s.failures++
	s.mu.Unlock()
}

func (s *runState) failureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// addMeta accumulates per-section conversion metadata.
func (s *runState) addMeta(m ConvertMeta) {
	s.mu.Lock()
	s.meta.WordCount += m.WordCount
	s.meta.HeadingCount += m.HeadingCount
	s.meta.CodeBlockCount += m.CodeBlockCount
	s.mu.Unlock()
}

func (s *runState) metaSnapshot() ConvertMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// assembled rebuilds the document markup from skeleton fragments and
// recorded fills, mirroring the container's state after hydration.
func (s *runState) assembled() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]string, len(s.fragments))
	for i, f := range s.fragments {
		if html, ok := s.fills[f.ID]; ok {
			parts[i] = fmt.Sprintf(
				"<section class=\"mdr-section\" data-section-id=\"%s\">\n%s\n</section>",
				f.ID, html)
		} else {
			parts[i] = f.HTML
		}
	}
	return strings.Join(parts, "\n")
}

// toPublicSections converts internal sections to the public type crossing
// the Container boundary.
func toPublicSections(secs []section.Section) []Section {
	out := make([]Section, len(secs))
	for i, s := range secs {
		out[i] = Section{
			ID:        s.ID,
			Heading:   s.Heading,
			Level:     s.Level,
			StartLine: s.StartLine,
			EndLine:   s.EndLine,
			Text:      s.Text,
		}
	}
	return out
}
