package mdrender

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// Compile-time interface check.
var _ interface {
	Acquire() *Renderer
	Release(*Renderer)
	Size() int
	Close() error
} = (*RendererPool)(nil)

// lightOptions keeps pooled renderers free of real transform engines.
func lightOptions() []Option {
	return []Option{
		WithConverter(&mockConverter{}),
		WithSanitizer(&mockSanitizer{}),
		WithHighlighter(&mockHighlighter{}),
	}
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	auto := min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinPoolSize), MaxPoolSize)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit wins", 4, 4},
		{"explicit one stays sequential", 1, 1},
		{"explicit may exceed the auto cap", 16, 16},
		{"zero derives from GOMAXPROCS", 0, auto},
		{"negative derives from GOMAXPROCS", -3, auto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}

	// Whatever the host, the derived count stays inside the caps.
	if got := ResolvePoolSize(0); got < MinPoolSize || got > MaxPoolSize {
		t.Errorf("ResolvePoolSize(0) = %d, want within [%d, %d]", got, MinPoolSize, MaxPoolSize)
	}
}

func TestRendererPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(2, lightOptions()...)
	defer pool.Close()

	r1 := pool.Acquire()
	r2 := pool.Acquire()
	if r1 == nil || r2 == nil {
		t.Fatal("Acquire() returned nil")
	}
	if r1 == r2 {
		t.Error("both acquisitions returned the same renderer")
	}

	// A released renderer comes back before any new one is built.
	pool.Release(r1)
	if r3 := pool.Acquire(); r3 != r1 {
		t.Error("Acquire() after Release did not reuse the released renderer")
	} else {
		pool.Release(r3)
	}
	pool.Release(r2)
}

func TestRendererPool_Size(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int
		want int
	}{
		{"passthrough", 4, 4},
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := NewRendererPool(tt.size)
			defer pool.Close()

			if got := pool.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRendererPool_OptionsApplied(t *testing.T) {
	t.Parallel()

	conv := &mockConverter{}
	pool := NewRendererPool(1,
		WithConverter(conv),
		WithSanitizer(&mockSanitizer{}),
		WithHighlighter(&mockHighlighter{}),
	)
	defer pool.Close()

	r := pool.Acquire()
	defer pool.Release(r)

	c := NewHTMLContainer()
	if err := r.Render(context.Background(), Request{Container: c, Text: "pooled render"}); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if conv.callCount() != 1 {
		t.Errorf("injected converter calls = %d, want 1", conv.callCount())
	}
	if !strings.Contains(c.HTML(), "pooled render") {
		t.Errorf("pooled render missing content: %q", c.HTML())
	}
}

func TestRendererPool_ConcurrentRenders(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(4, lightOptions()...)
	defer pool.Close()

	// More goroutines than slots, each doing a real render, so acquisition
	// has to block and recycle. A hang here fails on the deadline.
	const goroutines = 16
	errs := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := pool.Acquire()
			defer pool.Release(r)
			errs <- r.Render(context.Background(), Request{
				Container: NewHTMLContainer(),
				Text:      "shared pool body",
			})
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pooled renders did not finish; acquisition deadlock")
	}

	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("pooled Render() error: %v", err)
		}
	}
}

func TestRendererPool_CloseLifecycle(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(2, lightOptions()...)
	r := pool.Acquire()

	if err := pool.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// A straggler releasing into a closed pool is dropped, not a panic.
	pool.Release(r)
	// Close is idempotent.
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
