package main

// Notes:
// - discoverFiles/resolveOutputPath: table tests over a temp tree.
// - parsePreferences/mergeFlags: pure resolution logic.
// - renderBatch: fake pool and renderer, covering fan-out, failure
//   propagation, context cancellation, and nil-acquire.
// - openCache: memory and sqlite open for real; redis and nats need servers
//   and are covered by their store tests.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	mdrender "github.com/alnah/go-mdrender"
	"github.com/alnah/go-mdrender/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake pool and renderer
// ---------------------------------------------------------------------------

// fakeRenderer is a CLIRenderer with scriptable behavior.
type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	fail  error
	html  string
}

func (f *fakeRenderer) Render(_ context.Context, req mdrender.Request) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	html := f.html
	if html == "" {
		html = "<p>rendered</p>"
	}
	req.Container.SetHTML(html)
	return nil
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePool hands out the same renderer to every worker.
type fakePool struct {
	renderer CLIRenderer
	size     int
}

func (p *fakePool) Acquire() CLIRenderer  { return p.renderer }
func (p *fakePool) Release(_ CLIRenderer) {}
func (p *fakePool) Size() int             { return p.size }

// progressFakeRenderer broadcasts two stage emissions to the registered
// observer before rendering.
type progressFakeRenderer struct {
	fakeRenderer
	observer     func(mdrender.Progress)
	unsubscribed bool
}

func (f *progressFakeRenderer) OnProgress(fn func(mdrender.Progress)) func() {
	f.observer = fn
	return func() { f.unsubscribed = true }
}

func (f *progressFakeRenderer) Render(ctx context.Context, req mdrender.Request) error {
	if f.observer != nil {
		f.observer(mdrender.Progress{Stage: mdrender.StageParsing, Percent: 10})
		f.observer(mdrender.Progress{Stage: mdrender.StageComplete, Percent: 100})
	}
	return f.fakeRenderer.Render(ctx, req)
}

// writeTestFile creates a file with parents, failing the test on error.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Markdown discovery over files and directories
// ---------------------------------------------------------------------------

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	t.Run("single file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := filepath.Join(dir, "doc.md")
		writeTestFile(t, input, "# Doc")

		files, err := discoverFiles(input, "")
		if err != nil {
			t.Fatalf("discoverFiles: %v", err)
		}
		if len(files) != 1 {
			t.Fatalf("got %d files, want 1", len(files))
		}
		wantOut := filepath.Join(dir, "doc.html")
		if files[0].OutputPath != wantOut {
			t.Errorf("OutputPath = %q, want %q", files[0].OutputPath, wantOut)
		}
	})

	t.Run("single file with wrong extension", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := filepath.Join(dir, "doc.txt")
		writeTestFile(t, input, "not markdown")

		_, err := discoverFiles(input, "")
		if !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("err = %v, want ErrInvalidExtension", err)
		}
	})

	t.Run("directory walks nested markdown", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "a.md"), "# A")
		writeTestFile(t, filepath.Join(dir, "sub", "b.markdown"), "# B")
		writeTestFile(t, filepath.Join(dir, "sub", "notes.txt"), "skip me")

		out := filepath.Join(dir, "public")
		files, err := discoverFiles(dir, out)
		if err != nil {
			t.Fatalf("discoverFiles: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("got %d files, want 2", len(files))
		}

		// Nested files mirror the input tree under the output directory.
		wantNested := filepath.Join(out, "sub", "b.html")
		found := false
		for _, f := range files {
			if f.OutputPath == wantNested {
				found = true
			}
		}
		if !found {
			t.Errorf("missing mirrored output %q in %+v", wantNested, files)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()
		_, err := discoverFiles(filepath.Join(t.TempDir(), "nope"), "")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("err = %v, want ErrNotExist", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestResolveOutputPath - Output path resolution
// ---------------------------------------------------------------------------

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		inputPath    string
		outputDir    string
		baseInputDir string
		want         string
	}{
		{
			name:      "no output dir writes next to input",
			inputPath: filepath.Join("docs", "guide.md"),
			want:      filepath.Join("docs", "guide.html"),
		},
		{
			name:      "explicit html file",
			inputPath: "guide.md",
			outputDir: filepath.Join("out", "index.html"),
			want:      filepath.Join("out", "index.html"),
		},
		{
			name:      "flat output dir",
			inputPath: filepath.Join("docs", "guide.markdown"),
			outputDir: "public",
			want:      filepath.Join("public", "guide.html"),
		},
		{
			name:         "mirrors tree under output dir",
			inputPath:    filepath.Join("docs", "api", "v1.md"),
			outputDir:    "public",
			baseInputDir: "docs",
			want:         filepath.Join("public", "api", "v1.html"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := resolveOutputPath(tt.inputPath, tt.outputDir, tt.baseInputDir)
			if got != tt.want {
				t.Errorf("resolveOutputPath(%q, %q, %q) = %q, want %q",
					tt.inputPath, tt.outputDir, tt.baseInputDir, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestValidateWorkers - Worker count validation
// ---------------------------------------------------------------------------

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, false},
		{1, false},
		{mdrender.MaxPoolSize, false},
		{-1, true},
		{mdrender.MaxPoolSize + 1, true},
	}

	for _, tt := range tests {
		if err := validateWorkers(tt.n); (err != nil) != tt.wantErr {
			t.Errorf("validateWorkers(%d) err = %v, wantErr %v", tt.n, err, tt.wantErr)
		}
	}
}

// ---------------------------------------------------------------------------
// TestParsePreferences - key=value preference parsing
// ---------------------------------------------------------------------------

func TestParsePreferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "empty returns nil",
			pairs: nil,
			want:  nil,
		},
		{
			name:  "single pair",
			pairs: []string{"codeStyle=compact"},
			want:  map[string]string{"codeStyle": "compact"},
		},
		{
			name:  "empty value allowed",
			pairs: []string{"flag="},
			want:  map[string]string{"flag": ""},
		},
		{
			name:  "later value wins",
			pairs: []string{"k=a", "k=b"},
			want:  map[string]string{"k": "b"},
		},
		{
			name:    "missing separator",
			pairs:   []string{"nokey"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parsePreferences(tt.pairs)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPreference) {
					t.Errorf("err = %v, want ErrInvalidPreference", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBuildRenderParams_ThemePath - path-looking themes are rejected early
// ---------------------------------------------------------------------------

func TestBuildRenderParams_ThemePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		theme   string
		wantErr bool
	}{
		{name: "bare name", theme: "github"},
		{name: "hyphenated name", theme: "github-dark"},
		{name: "empty theme", theme: ""},
		{name: "relative path", theme: "./custom.css", wantErr: true},
		{name: "absolute path", theme: "/etc/themes/x.css", wantErr: true},
		{name: "windows path", theme: `C:\themes\x.css`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{Theme: tt.theme}
			params, err := buildRenderParams(&renderFlags{}, cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrThemeIsPath) {
					t.Errorf("err = %v, want ErrThemeIsPath", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if params.theme != tt.theme {
				t.Errorf("theme = %q, want %q", params.theme, tt.theme)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI flags override config values
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	t.Run("flags override config", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{Theme: "github", ChunkSize: 1024}
		cfg.Cache.Backend = "memory"

		flags := &renderFlags{}
		flags.theme.name = "dracula"
		flags.cache.backend = "sqlite"
		flags.cache.dsn = "/tmp/cache.db"
		flags.pipeline.chunkSize = 4096

		mergeFlags(flags, cfg)

		if cfg.Theme != "dracula" {
			t.Errorf("Theme = %q, want dracula", cfg.Theme)
		}
		if cfg.Cache.Backend != "sqlite" {
			t.Errorf("Cache.Backend = %q, want sqlite", cfg.Cache.Backend)
		}
		if cfg.Cache.DSN != "/tmp/cache.db" {
			t.Errorf("Cache.DSN = %q", cfg.Cache.DSN)
		}
		if cfg.ChunkSize != 4096 {
			t.Errorf("ChunkSize = %d, want 4096", cfg.ChunkSize)
		}
	})

	t.Run("empty flags keep config", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{Theme: "github-dark", HydrationThreshold: 9000}

		mergeFlags(&renderFlags{}, cfg)

		if cfg.Theme != "github-dark" {
			t.Errorf("Theme = %q, want github-dark", cfg.Theme)
		}
		if cfg.HydrationThreshold != 9000 {
			t.Errorf("HydrationThreshold = %d, want 9000", cfg.HydrationThreshold)
		}
	})
}

// ---------------------------------------------------------------------------
// TestResolveThreshold - Progressive mode forces a one-byte threshold
// ---------------------------------------------------------------------------

func TestResolveThreshold(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{HydrationThreshold: 50000}

	flags := &renderFlags{}
	if got := resolveThreshold(flags, cfg); got != 50000 {
		t.Errorf("resolveThreshold = %d, want 50000", got)
	}

	flags.pipeline.progressive = true
	if got := resolveThreshold(flags, cfg); got != 1 {
		t.Errorf("progressive resolveThreshold = %d, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestResolveInputPath - Input resolution from args and config
// ---------------------------------------------------------------------------

func TestResolveInputPath(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Input.DefaultDir = "docs"

	got, err := resolveInputPath([]string{"readme.md"}, cfg)
	if err != nil || got != "readme.md" {
		t.Errorf("args input = %q, %v", got, err)
	}

	got, err = resolveInputPath(nil, cfg)
	if err != nil || got != "docs" {
		t.Errorf("config input = %q, %v", got, err)
	}

	_, err = resolveInputPath(nil, &config.Config{})
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput", err)
	}
}

// ---------------------------------------------------------------------------
// TestOpenCache - Backend selection
// ---------------------------------------------------------------------------

func TestOpenCache(t *testing.T) {
	t.Parallel()

	t.Run("disabled returns nil", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.Backend = "memory"
		flags := &renderFlags{}
		flags.cache.disabled = true

		c, err := openCache(cfg, flags)
		if err != nil || c != nil {
			t.Errorf("openCache = %v, %v; want nil, nil", c, err)
		}
	})

	t.Run("no backend returns nil", func(t *testing.T) {
		t.Parallel()
		c, err := openCache(&config.Config{}, &renderFlags{})
		if err != nil || c != nil {
			t.Errorf("openCache = %v, %v; want nil, nil", c, err)
		}
	})

	t.Run("memory backend opens", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.Backend = "memory"
		cfg.Cache.TTL = "1h"

		c, err := openCache(cfg, &renderFlags{})
		if err != nil {
			t.Fatalf("openCache: %v", err)
		}
		if c == nil {
			t.Fatal("openCache returned nil cache")
		}
		_ = c.Close()
	})

	t.Run("sqlite backend needs dsn", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.Backend = "sqlite"

		_, err := openCache(cfg, &renderFlags{})
		if !errors.Is(err, ErrCacheDSNRequired) {
			t.Errorf("err = %v, want ErrCacheDSNRequired", err)
		}
	})

	t.Run("sqlite backend opens", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.Backend = "sqlite"
		cfg.Cache.DSN = filepath.Join(t.TempDir(), "cache.db")

		c, err := openCache(cfg, &renderFlags{})
		if err != nil {
			t.Fatalf("openCache: %v", err)
		}
		_ = c.Close()
	})

	t.Run("unknown backend errors", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.Backend = "memcached"

		_, err := openCache(cfg, &renderFlags{})
		if !errors.Is(err, config.ErrInvalidField) {
			t.Errorf("err = %v, want ErrInvalidField", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRenderBatch - Concurrent batch rendering
// ---------------------------------------------------------------------------

func TestRenderBatch(t *testing.T) {
	t.Parallel()

	newFiles := func(t *testing.T, n int) []FileToRender {
		t.Helper()
		dir := t.TempDir()
		files := make([]FileToRender, 0, n)
		for i := 0; i < n; i++ {
			name := string(rune('a'+i)) + ".md"
			in := filepath.Join(dir, name)
			writeTestFile(t, in, "# "+name)
			files = append(files, FileToRender{
				InputPath:  in,
				OutputPath: resolveOutputPath(in, "", ""),
			})
		}
		return files
	}

	t.Run("renders every file", func(t *testing.T) {
		t.Parallel()
		renderer := &fakeRenderer{}
		pool := &fakePool{renderer: renderer, size: 2}
		files := newFiles(t, 3)

		results := renderBatch(context.Background(), pool, files, &renderParams{})

		if len(results) != 3 {
			t.Fatalf("got %d results, want 3", len(results))
		}
		for _, r := range results {
			if r.Err != nil {
				t.Errorf("result %s: %v", r.InputPath, r.Err)
			}
		}
		if renderer.callCount() != 3 {
			t.Errorf("render calls = %d, want 3", renderer.callCount())
		}
		for _, r := range results {
			content, err := os.ReadFile(r.OutputPath)
			if err != nil {
				t.Fatalf("reading output: %v", err)
			}
			if !strings.Contains(string(content), "<p>rendered</p>") {
				t.Errorf("output %s missing rendered body", r.OutputPath)
			}
		}
	})

	t.Run("empty input returns nil", func(t *testing.T) {
		t.Parallel()
		results := renderBatch(context.Background(), &fakePool{size: 2}, nil, &renderParams{})
		if results != nil {
			t.Errorf("got %v, want nil", results)
		}
	})

	t.Run("render failure lands in the result", func(t *testing.T) {
		t.Parallel()
		renderErr := errors.New("boom")
		pool := &fakePool{renderer: &fakeRenderer{fail: renderErr}, size: 1}
		files := newFiles(t, 2)

		results := renderBatch(context.Background(), pool, files, &renderParams{})

		for _, r := range results {
			if !errors.Is(r.Err, renderErr) {
				t.Errorf("result %s err = %v, want boom", r.InputPath, r.Err)
			}
		}
	})

	t.Run("canceled context short-circuits", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		renderer := &fakeRenderer{}
		pool := &fakePool{renderer: renderer, size: 1}
		files := newFiles(t, 3)

		results := renderBatch(ctx, pool, files, &renderParams{})

		for _, r := range results {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("result %s err = %v, want context.Canceled", r.InputPath, r.Err)
			}
		}
		if renderer.callCount() != 0 {
			t.Errorf("render calls = %d, want 0 after cancel", renderer.callCount())
		}
	})

	t.Run("nil acquire marks jobs failed", func(t *testing.T) {
		t.Parallel()
		pool := &fakePool{renderer: nil, size: 1}
		files := newFiles(t, 2)

		results := renderBatch(context.Background(), pool, files, &renderParams{})

		for _, r := range results {
			if !errors.Is(r.Err, ErrRendererInit) {
				t.Errorf("result %s err = %v, want ErrRendererInit", r.InputPath, r.Err)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// TestRenderFile - Single file render and title derivation
// ---------------------------------------------------------------------------

func TestRenderFile(t *testing.T) {
	t.Parallel()

	t.Run("writes titled document", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		in := filepath.Join(dir, "guide.md")
		writeTestFile(t, in, "# Install Guide\n\nBody.")
		out := filepath.Join(dir, "guide.html")

		result := renderFile(context.Background(), &fakeRenderer{}, FileToRender{
			InputPath:  in,
			OutputPath: out,
		}, &renderParams{})

		if result.Err != nil {
			t.Fatalf("renderFile: %v", result.Err)
		}
		content, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if !strings.Contains(string(content), "<title>Install Guide</title>") {
			t.Errorf("output missing derived title, got %q", string(content))
		}
	})

	t.Run("explicit title wins", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		in := filepath.Join(dir, "guide.md")
		writeTestFile(t, in, "# Ignored Heading")
		out := filepath.Join(dir, "guide.html")

		result := renderFile(context.Background(), &fakeRenderer{}, FileToRender{
			InputPath:  in,
			OutputPath: out,
		}, &renderParams{title: "Handbook"})

		if result.Err != nil {
			t.Fatalf("renderFile: %v", result.Err)
		}
		content, _ := os.ReadFile(out)
		if !strings.Contains(string(content), "<title>Handbook</title>") {
			t.Errorf("output missing explicit title")
		}
	})

	t.Run("missing input reports read error", func(t *testing.T) {
		t.Parallel()
		result := renderFile(context.Background(), &fakeRenderer{}, FileToRender{
			InputPath:  filepath.Join(t.TempDir(), "gone.md"),
			OutputPath: filepath.Join(t.TempDir(), "gone.html"),
		}, &renderParams{})

		if !errors.Is(result.Err, ErrReadDocument) {
			t.Errorf("err = %v, want ErrReadDocument", result.Err)
		}
	})

	t.Run("progress observer sees stage emissions", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		in := filepath.Join(dir, "doc.md")
		writeTestFile(t, in, "# Doc")

		renderer := &progressFakeRenderer{}
		var stages []mdrender.Stage
		result := renderFile(context.Background(), renderer, FileToRender{
			InputPath:  in,
			OutputPath: filepath.Join(dir, "doc.html"),
		}, &renderParams{onProgress: func(p mdrender.Progress) {
			stages = append(stages, p.Stage)
		}})

		if result.Err != nil {
			t.Fatalf("renderFile: %v", result.Err)
		}
		if len(stages) != 2 || stages[1] != mdrender.StageComplete {
			t.Errorf("stages = %v, want parsing then complete", stages)
		}
		if !renderer.unsubscribed {
			t.Error("observer still subscribed after renderFile returned")
		}
	})

	t.Run("plain renderer ignores the observer", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		in := filepath.Join(dir, "doc.md")
		writeTestFile(t, in, "# Doc")

		result := renderFile(context.Background(), &fakeRenderer{}, FileToRender{
			InputPath:  in,
			OutputPath: filepath.Join(dir, "doc.html"),
		}, &renderParams{onProgress: func(mdrender.Progress) {}})

		if result.Err != nil {
			t.Fatalf("renderFile: %v", result.Err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestProgressPrinter - Stage line formatting
// ---------------------------------------------------------------------------

func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	emit := progressPrinter(&buf)
	emit(mdrender.Progress{Stage: mdrender.StageParsing, Percent: 10})
	emit(mdrender.Progress{Stage: mdrender.StageCached, Percent: 100, Message: "served from cache"})

	out := buf.String()
	if !strings.Contains(out, " 10% parsing") {
		t.Errorf("output missing parsing line, got %q", out)
	}
	if !strings.Contains(out, "100% cached: served from cache") {
		t.Errorf("output missing annotated cached line, got %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestPrintResults - Result reporting modes
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()

	results := []RenderResult{
		{InputPath: "a.md", OutputPath: "a.html"},
		{InputPath: "b.md", Err: errors.New("kaput")},
	}

	t.Run("default mode", func(t *testing.T) {
		t.Parallel()
		var stdout, stderr strings.Builder
		env := &Environment{Stdout: &stdout, Stderr: &stderr}

		failed := printResultsWithWriter(results, false, false, env)

		if failed != 1 {
			t.Errorf("failed = %d, want 1", failed)
		}
		if !strings.Contains(stdout.String(), "Created a.html") {
			t.Errorf("stdout missing created line: %q", stdout.String())
		}
		if !strings.Contains(stdout.String(), "1 succeeded, 1 failed") {
			t.Errorf("stdout missing summary: %q", stdout.String())
		}
		if !strings.Contains(stderr.String(), "FAILED b.md") {
			t.Errorf("stderr missing failure: %q", stderr.String())
		}
	})

	t.Run("quiet keeps only errors", func(t *testing.T) {
		t.Parallel()
		var stdout, stderr strings.Builder
		env := &Environment{Stdout: &stdout, Stderr: &stderr}

		printResultsWithWriter(results, true, false, env)

		if stdout.String() != "" {
			t.Errorf("quiet stdout should be empty, got %q", stdout.String())
		}
		if !strings.Contains(stderr.String(), "FAILED b.md") {
			t.Errorf("stderr missing failure: %q", stderr.String())
		}
	})

	t.Run("verbose shows timing arrow", func(t *testing.T) {
		t.Parallel()
		var stdout, stderr strings.Builder
		env := &Environment{Stdout: &stdout, Stderr: &stderr}

		printResultsWithWriter(results, false, true, env)

		if !strings.Contains(stdout.String(), "a.md -> a.html") {
			t.Errorf("verbose stdout missing arrow line: %q", stdout.String())
		}
	})
}

// ---------------------------------------------------------------------------
// TestCountResults - Summary tallies
// ---------------------------------------------------------------------------

func TestCountResults(t *testing.T) {
	t.Parallel()

	summary := countResults([]RenderResult{
		{},
		{Err: errors.New("x")},
		{},
	})

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2/1", summary)
	}
}
