package mdrender

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// Mock implementations for testing.

type mockConverter struct {
	mu    sync.Mutex
	calls int
	texts []string
	err   error
	// failOn makes conversion fail only for inputs containing the marker.
	failOn string
	// onCall fires after every call with the running call count.
	onCall func(n int)
}

func (m *mockConverter) Convert(ctx context.Context, content string) (ConvertResult, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.texts = append(m.texts, content)
	hook := m.onCall
	m.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if m.err != nil {
		return ConvertResult{}, m.err
	}
	if m.failOn != "" && strings.Contains(content, m.failOn) {
		return ConvertResult{}, errors.New("conversion exploded")
	}
	return ConvertResult{
		HTML: "<p>" + content + "</p>",
		Meta: ConvertMeta{WordCount: len(strings.Fields(content))},
	}, nil
}

func (m *mockConverter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockSanitizer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockSanitizer) Sanitize(ctx context.Context, htmlContent string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return htmlContent, nil
}

type mockHighlighter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockHighlighter) Highlight(ctx context.Context, code, lang string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return "<pre class=\"hl\">" + code + "</pre>", nil
}

// recordingContainer tracks every container operation without maintaining
// real markup. Content-level assertions use HTMLContainer instead.
type recordingContainer struct {
	mu          sync.Mutex
	skeletonSet int
	htmlSet     int
	reinit      int
	lastHTML    string
	sections    []Section
	theme       string
	css         string
	fills       map[string]string
	fillOrder   []string
	fillCh      chan string
}

func newRecordingContainer() *recordingContainer {
	return &recordingContainer{
		fills:  make(map[string]string),
		fillCh: make(chan string, 64),
	}
}

func (c *recordingContainer) SetSkeleton(html string, sections []Section) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skeletonSet++
	c.lastHTML = html
	c.sections = sections
}

func (c *recordingContainer) SetHTML(html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.htmlSet++
	c.lastHTML = html
}

func (c *recordingContainer) FillSection(id, html string) error {
	c.mu.Lock()
	c.fills[id] = html
	c.fillOrder = append(c.fillOrder, id)
	c.mu.Unlock()

	select {
	case c.fillCh <- id:
	default:
	}
	return nil
}

func (c *recordingContainer) ApplyTheme(name, css string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = name
	c.css = css
}

func (c *recordingContainer) Reinitialize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reinit++
}

func (c *recordingContainer) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHTML
}

func (c *recordingContainer) fillCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fills)
}

func (c *recordingContainer) fillFor(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	html, ok := c.fills[id]
	return html, ok
}

// fakeCache injects cache behavior per call.
type fakeCache struct {
	mu      sync.Mutex
	keyErr  error
	getErr  error
	result  *CachedResult
	gets    int
	sets    []SetEntry
	invs    []InvalidateRequest
	closed  bool
	keyFunc func(in KeyInput) string
}

func (f *fakeCache) GenerateKey(ctx context.Context, in KeyInput) (string, error) {
	if f.keyErr != nil {
		return "", f.keyErr
	}
	if f.keyFunc != nil {
		return f.keyFunc(in), nil
	}
	return "key-" + in.Theme + "-" + in.Path, nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (*CachedResult, error) {
	f.mu.Lock()
	f.gets++
	f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.result == nil {
		return nil, ErrCacheMiss
	}
	return f.result, nil
}

func (f *fakeCache) Set(ctx context.Context, e SetEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, e)
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, inv InvalidateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invs = append(f.invs, inv)
	return nil
}

func (f *fakeCache) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeCache) setEntries() []SetEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SetEntry(nil), f.sets...)
}

// fakeDispatcher records submissions and serves canned results.
type fakeDispatcher struct {
	mu          sync.Mutex
	initialized int
	tasks       []Task
	submitErr   error
	parseHTML   string
	closed      bool
}

func (f *fakeDispatcher) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized++
	return nil
}

func (f *fakeDispatcher) Submit(ctx context.Context, task Task) (any, error) {
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()

	if f.submitErr != nil {
		return nil, f.submitErr
	}
	switch task.Type {
	case TaskParse:
		text, _ := task.Payload.(string)
		html := f.parseHTML
		if html == "" {
			html = "<p>" + text + "</p>"
		}
		return ConvertResult{HTML: html}, nil
	case TaskHighlight:
		job, _ := task.Payload.(HighlightJob)
		return "<pre>" + job.Code + "</pre>", nil
	default:
		return "<svg/>", nil
	}
}

func (f *fakeDispatcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeDispatcher) submitted() []Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Task(nil), f.tasks...)
}

// progressRecorder captures every notification in order.
type progressRecorder struct {
	mu      sync.Mutex
	updates []Progress
}

func (p *progressRecorder) record(u Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *progressRecorder) all() []Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Progress(nil), p.updates...)
}

func (p *progressRecorder) last() (Progress, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.updates) == 0 {
		return Progress{}, false
	}
	return p.updates[len(p.updates)-1], true
}

func (p *progressRecorder) stages() []Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Stage, len(p.updates))
	for i, u := range p.updates {
		out[i] = u.Stage
	}
	return out
}

// newTestRenderer wires a renderer with deterministic mocks. Progress
// throttling is effectively disabled so stage sequences are observable.
func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *mockConverter) {
	t.Helper()
	conv := &mockConverter{}
	base := []Option{
		WithConverter(conv),
		WithSanitizer(&mockSanitizer{}),
		WithHighlighter(&mockHighlighter{}),
		WithProgressInterval(time.Nanosecond),
	}
	r := New(append(base, opts...)...)
	t.Cleanup(func() { r.Close() })
	return r, conv
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "valid request",
			req:     Request{Container: NewHTMLContainer(), Text: "# Hello"},
			wantErr: nil,
		},
		{
			name:    "nil container",
			req:     Request{Text: "# Hello"},
			wantErr: ErrNilContainer,
		},
		{
			name:    "empty text",
			req:     Request{Container: NewHTMLContainer()},
			wantErr: ErrEmptyDocument,
		},
		{
			name:    "negative chunk size",
			req:     Request{Container: NewHTMLContainer(), Text: "x", ChunkSize: -1},
			wantErr: ErrInvalidChunkSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRender_WholeDocument(t *testing.T) {
	r, conv := newTestRenderer(t)
	c := NewHTMLContainer()

	err := r.Render(context.Background(), Request{
		Container: c,
		Text:      "Hello world",
	})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}

	if conv.callCount() != 1 {
		t.Errorf("converter calls = %d, want 1", conv.callCount())
	}
	html := c.HTML()
	if !strings.Contains(html, "Hello world") {
		t.Errorf("container HTML missing content: %q", html)
	}
	if !strings.Contains(html, `class="mdr-document`) {
		t.Errorf("container HTML missing document wrapper: %q", html)
	}
	if !strings.Contains(html, "mdr-theme-github") {
		t.Errorf("container HTML missing default theme class: %q", html)
	}
	if !strings.Contains(html, "<style>") {
		t.Errorf("container HTML missing stylesheet: %q", html)
	}
}

func TestRender_StageSequence(t *testing.T) {
	r, _ := newTestRenderer(t)
	rec := &progressRecorder{}
	off := r.OnProgress(rec.record)
	defer off()

	err := r.Render(context.Background(), Request{
		Container: NewHTMLContainer(),
		Text:      "just text",
	})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}

	want := []Stage{
		StageParsing, StageSanitizing, StageTransforming,
		StageInserting, StageEnhancing, StageTheming, StageComplete,
	}
	got := rec.stages()
	if len(got) != len(want) {
		t.Fatalf("stage count = %d (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stage[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	last, _ := rec.last()
	if last.Percent != 100 {
		t.Errorf("final percent = %d, want 100", last.Percent)
	}
}

func TestRender_ProgressMonotone(t *testing.T) {
	r, _ := newTestRenderer(t, WithHydrationThreshold(16))
	rec := &progressRecorder{}
	off := r.OnProgress(rec.record)
	defer off()

	text := "# One\n\nalpha beta\n\n# Two\n\ngamma delta\n\n# Three\n\nepsilon\n"
	err := r.Render(context.Background(), Request{
		Container: NewHTMLContainer(),
		Text:      text,
	})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}

	updates := rec.all()
	if len(updates) == 0 {
		t.Fatal("no progress notifications received")
	}
	prev := -1
	for i, u := range updates {
		if u.Percent < prev {
			t.Errorf("progress went backwards at %d: %d after %d (%v)",
				i, u.Percent, prev, u.Stage)
		}
		prev = u.Percent
	}
	last := updates[len(updates)-1]
	if last.Stage != StageComplete || last.Percent != 100 {
		t.Errorf("final notification = %v/%d, want complete/100", last.Stage, last.Percent)
	}
}

func TestRender_UnknownTheme(t *testing.T) {
	r, conv := newTestRenderer(t)

	err := r.Render(context.Background(), Request{
		Container: NewHTMLContainer(),
		Text:      "# Hello",
		Theme:     "no-such-theme",
	})
	if !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("Render() error = %v, want %v", err, ErrUnknownTheme)
	}
	if conv.callCount() != 0 {
		t.Errorf("converter ran %d times before theme validation", conv.callCount())
	}
}

func TestRender_ThemeSelection(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		reqTheme  string
		wantTheme string
	}{
		{
			name:      "default theme",
			text:      "# Hello",
			wantTheme: "github",
		},
		{
			name:      "request theme",
			text:      "# Hello",
			reqTheme:  "dracula",
			wantTheme: "dracula",
		},
		{
			name:      "frontmatter theme",
			text:      "---\ntheme: dracula\n---\n\n# Hello",
			wantTheme: "dracula",
		},
		{
			name:      "request overrides frontmatter",
			text:      "---\ntheme: dracula\n---\n\n# Hello",
			reqTheme:  "github",
			wantTheme: "github",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer(t)
			c := newRecordingContainer()

			err := r.Render(context.Background(), Request{
				Container: c,
				Text:      tt.text,
				Theme:     tt.reqTheme,
			})
			if err != nil {
				t.Fatalf("Render() unexpected error: %v", err)
			}
			if c.theme != tt.wantTheme {
				t.Errorf("applied theme = %q, want %q", c.theme, tt.wantTheme)
			}
			if c.css == "" {
				t.Error("applied stylesheet is empty")
			}
		})
	}
}

func TestRender_ContainedFailureShowsErrorBlock(t *testing.T) {
	conv := &mockConverter{err: errors.New("parser exploded")}
	r, _ := newTestRenderer(t, WithConverter(conv))

	rec := &progressRecorder{}
	off := r.OnProgress(rec.record)
	defer off()

	c := NewHTMLContainer()
	err := r.Render(context.Background(), Request{Container: c, Text: "# Doc"})
	if err != nil {
		t.Fatalf("Render() error = %v, want nil for contained failure", err)
	}

	html := c.HTML()
	if !strings.Contains(html, `class="mdr-error"`) {
		t.Errorf("container missing inline error block: %q", html)
	}
	if !strings.Contains(html, "parser exploded") {
		t.Errorf("error block missing cause: %q", html)
	}
	last, ok := rec.last()
	if !ok || last.Stage != StageError {
		t.Errorf("final stage = %v, want %v", last.Stage, StageError)
	}
}

func TestRender_CancelledContextRejected(t *testing.T) {
	r, _ := newTestRenderer(t)
	c := newRecordingContainer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Render(ctx, Request{Container: c, Text: "# Doc"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Render() error = %v, want %v", err, context.Canceled)
	}
	if c.htmlSet != 0 || c.skeletonSet != 0 {
		t.Errorf("cancelled render mutated container: html=%d skeleton=%d",
			c.htmlSet, c.skeletonSet)
	}
}

func TestRender_AfterClose(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	err := r.Render(context.Background(), Request{
		Container: NewHTMLContainer(),
		Text:      "# Doc",
	})
	if !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Render() after Close error = %v, want %v", err, ErrRendererClosed)
	}
}

func TestRender_CacheHitSkipsPipeline(t *testing.T) {
	cached := &CachedResult{
		Key:       "key-github-doc.md",
		HTML:      "<p>cached content</p>",
		CreatedAt: time.Now(),
	}
	fc := &fakeCache{result: cached}
	r, conv := newTestRenderer(t, WithCache(fc))
	rec := &progressRecorder{}
	off := r.OnProgress(rec.record)
	defer off()

	c := newRecordingContainer()
	err := r.Render(context.Background(), Request{
		Container: c,
		Text:      "# Doc",
		Path:      "doc.md",
		UseCache:  true,
	})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}

	if conv.callCount() != 0 {
		t.Errorf("converter calls = %d, want 0 on cache hit", conv.callCount())
	}
	if c.lastHTML != cached.HTML {
		t.Errorf("container HTML = %q, want cached %q", c.lastHTML, cached.HTML)
	}
	if c.reinit != 1 {
		t.Errorf("Reinitialize calls = %d, want 1", c.reinit)
	}
	if c.theme != "github" {
		t.Errorf("theme on cache hit = %q, want github", c.theme)
	}

	stages := rec.stages()
	if len(stages) < 2 || stages[0] != StageCacheCheck {
		t.Fatalf("stages = %v, want cache-check first", stages)
	}
	last, _ := rec.last()
	if last.Stage != StageCached || last.Percent != 100 {
		t.Errorf("final notification = %v/%d, want cached/100", last.Stage, last.Percent)
	}
}

func TestRender_CacheMissWritesThrough(t *testing.T) {
	fc := &fakeCache{}
	r, _ := newTestRenderer(t, WithCache(fc))

	c := NewHTMLContainer()
	err := r.Render(context.Background(), Request{
		Container: c,
		Text:      "Hello cache",
		Path:      "doc.md",
		UseCache:  true,
	})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}

	sets := fc.setEntries()
	if len(sets) != 1 {
		t.Fatalf("cache writes = %d, want 1", len(sets))
	}
	entry := sets[0]
	if entry.Key == "" {
		t.Error("cache write has empty key")
	}
	if !strings.Contains(entry.Result.HTML, "Hello cache") {
		t.Errorf("cached HTML missing content: %q", entry.Result.HTML)
	}
	if entry.Theme != "github" {
		t.Errorf("cached theme = %q, want github", entry.Theme)
	}
	if entry.ContentHash != ContentHash("Hello cache") {
		t.Errorf("content hash = %q, want hash of source", entry.ContentHash)
	}
	if entry.Path != "doc.md" {
		t.Errorf("cached path = %q, want doc.md", entry.Path)
	}
}

func TestRender_CacheFailureDegradesToMiss(t *testing.T) {
	fc := &fakeCache{getErr: errors.New("backend down")}
	r, conv := newTestRenderer(t, WithCache(fc))

	c := NewHTMLContainer()
	err := r.Render(context.Background(), Request{
		Container: c,
		Text:      "still renders",
		UseCache:  true,
	})
	if err != nil {
		t.Fatalf("Render() error = %v, want nil when cache is down", err)
	}
	if conv.callCount() != 1 {
		t.Errorf("converter calls = %d, want 1", conv.callCount())
	}
	if !strings.Contains(c.HTML(), "still renders") {
		t.Errorf("container HTML missing content: %q", c.HTML())
	}
}

func TestRender_MemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()

	r, conv := newTestRenderer(t, WithCache(cache))

	req := Request{
		Container: NewHTMLContainer(),
		Text:      "round trip body",
		Path:      "notes/trip.md",
		UseCache:  true,
	}
	if err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("first Render() error: %v", err)
	}
	if conv.callCount() != 1 {
		t.Fatalf("converter calls after first render = %d, want 1", conv.callCount())
	}

	second := NewHTMLContainer()
	req.Container = second
	if err := r.Render(context.Background(), req); err != nil {
		t.Fatalf("second Render() error: %v", err)
	}
	if conv.callCount() != 1 {
		t.Errorf("converter calls after cached render = %d, want 1", conv.callCount())
	}
	if !strings.Contains(second.HTML(), "round trip body") {
		t.Errorf("cached render missing content: %q", second.HTML())
	}
}

func TestRender_ParallelUsesDispatcher(t *testing.T) {
	fd := &fakeDispatcher{parseHTML: "<p>from dispatcher</p>"}
	r, conv := newTestRenderer(t, WithDispatcher(fd))

	c := NewHTMLContainer()
	err := r.Render(context.Background(), Request{
		Container:   c,
		Text:        "# Doc",
		UseParallel: true,
	})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}

	if conv.callCount() != 0 {
		t.Errorf("inline converter calls = %d, want 0 when dispatched", conv.callCount())
	}
	if !strings.Contains(c.HTML(), "from dispatcher") {
		t.Errorf("container HTML = %q, want dispatcher output", c.HTML())
	}

	tasks := fd.submitted()
	if len(tasks) != 1 {
		t.Fatalf("submitted tasks = %d, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Type != TaskParse {
		t.Errorf("task type = %v, want %v", task.Type, TaskParse)
	}
	if task.Priority != PriorityHigh {
		t.Errorf("parse priority = %d, want %d", task.Priority, PriorityHigh)
	}
	if task.ID == "" {
		t.Error("task id is empty")
	}
}

func TestRender_DispatchFailureFallsBackInline(t *testing.T) {
	fd := &fakeDispatcher{submitErr: errors.New("queue full")}
	r, conv := newTestRenderer(t, WithDispatcher(fd))

	c := NewHTMLContainer()
	err := r.Render(context.Background(), Request{
		Container:   c,
		Text:        "fallback body",
		UseParallel: true,
	})
	if err != nil {
		t.Fatalf("Render() error = %v, want nil with inline fallback", err)
	}
	if conv.callCount() != 1 {
		t.Errorf("inline converter calls = %d, want 1", conv.callCount())
	}
	if !strings.Contains(c.HTML(), "fallback body") {
		t.Errorf("container HTML missing content: %q", c.HTML())
	}
}

func TestRender_ParallelFallbackMatchesSync(t *testing.T) {
	broken := &fakeDispatcher{submitErr: errors.New("workers gone")}

	sync1 := NewHTMLContainer()
	r1, _ := newTestRenderer(t)
	if err := r1.Render(context.Background(), Request{
		Container: sync1, Text: "same output either way",
	}); err != nil {
		t.Fatalf("sync Render() error: %v", err)
	}

	par := NewHTMLContainer()
	r2, _ := newTestRenderer(t, WithDispatcher(broken))
	if err := r2.Render(context.Background(), Request{
		Container: par, Text: "same output either way", UseParallel: true,
	}); err != nil {
		t.Fatalf("parallel Render() error: %v", err)
	}

	if sync1.HTML() != par.HTML() {
		t.Errorf("fallback output differs from sync output:\nsync: %q\npar:  %q",
			sync1.HTML(), par.HTML())
	}
}

func TestClose_LeavesInjectedDispatcherOpen(t *testing.T) {
	fd := &fakeDispatcher{}
	r := New(
		WithConverter(&mockConverter{}),
		WithSanitizer(&mockSanitizer{}),
		WithHighlighter(&mockHighlighter{}),
		WithDispatcher(fd),
	)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if fd.closed {
		t.Error("Close() closed an injected dispatcher; owner should close it")
	}
}

func TestMarkVisible_NoActiveRun(t *testing.T) {
	r, _ := newTestRenderer(t)
	// Must not panic without a run.
	r.MarkVisible("section-0")
}

func TestHydrateAll_NoActiveRun(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.HydrateAll(context.Background()); err != nil {
		t.Errorf("HydrateAll() without run error = %v, want nil", err)
	}
}

func TestOnProgress_Unsubscribe(t *testing.T) {
	r, _ := newTestRenderer(t)
	rec := &progressRecorder{}
	off := r.OnProgress(rec.record)
	off()

	err := r.Render(context.Background(), Request{
		Container: NewHTMLContainer(),
		Text:      "# Doc",
	})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("unsubscribed recorder received %d notifications", n)
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("WithTimeout(0) did not panic")
		}
	}()
	WithTimeout(0)
}

func TestWithProgressInterval_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("WithProgressInterval(-1) did not panic")
		}
	}()
	WithProgressInterval(-time.Second)
}

func TestStageString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stage Stage
		want  string
	}{
		{StageIdle, "idle"},
		{StageCacheCheck, "cache-check"},
		{StageParsing, "parsing"},
		{StageSanitizing, "sanitizing"},
		{StageTransforming, "transforming"},
		{StageInserting, "inserting"},
		{StageEnhancing, "enhancing"},
		{StageTheming, "theming"},
		{StageComplete, "complete"},
		{StageCached, "cached"},
		{StageError, "error"},
		{Stage(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestStageTerminal(t *testing.T) {
	t.Parallel()

	terminal := map[Stage]bool{
		StageComplete: true,
		StageCached:   true,
		StageError:    true,
	}
	for s := StageIdle; s <= StageError; s++ {
		if got := s.Terminal(); got != terminal[s] {
			t.Errorf("Stage %v Terminal() = %v, want %v", s, got, terminal[s])
		}
	}
}
