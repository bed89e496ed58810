package hydrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alnah/go-mdrender/internal/section"
)

// Sentinel errors for scheduler construction and operation.
var (
	ErrNoHydrateFunc  = errors.New("hydrate function is required")
	ErrNoFillFunc     = errors.New("fill function is required")
	ErrUnknownSection = errors.New("unknown section")
)

// State tracks one placeholder's lifecycle. Hydrated and Failed are
// terminal; a cancelled attempt falls back to Skeleton so a later pass can
// retry.
type State int

const (
	StateSkeleton State = iota
	StateHydrating
	StateHydrated
	StateFailed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateSkeleton:
		return "skeleton"
	case StateHydrating:
		return "hydrating"
	case StateHydrated:
		return "hydrated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// HydrateFunc produces the final HTML for one section.
type HydrateFunc func(ctx context.Context, sec section.Section) (string, error)

// VisibilityObserver reports when placeholders scroll into view. Observe
// registers a callback fired at most once; Unobserve drops it.
type VisibilityObserver interface {
	Observe(id string, fn func())
	Unobserve(id string)
}

// Config assembles a Scheduler.
type Config struct {
	Sections []section.Section

	// Hydrate renders a section; Fill inserts the result into the
	// container; Fail replaces a placeholder with an inline error block.
	Hydrate HydrateFunc
	Fill    func(id, html string) error
	Fail    func(id string, err error)

	// OnSection observes completion counts after each section settles,
	// successful or not.
	OnSection func(done, total int)

	// Yield runs between eager hydration steps so long documents stay
	// responsive. The default checks for cancellation and yields the
	// processor.
	Yield func(ctx context.Context) error

	Logger *slog.Logger
}

// Scheduler drives sections from skeleton to hydrated. One scheduler serves
// one render; safe for concurrent use across lazy visibility callbacks and
// HydrateAll.
type Scheduler struct {
	order   []section.Section
	hydrate HydrateFunc
	fill    func(id, html string) error
	fail    func(id string, err error)
	onDone  func(done, total int)
	yield   func(ctx context.Context) error
	logger  *slog.Logger

	mu     sync.Mutex
	states map[string]State
	done   int

	wg sync.WaitGroup
}

// NewScheduler validates cfg and builds a scheduler with every section in
// the skeleton state.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Hydrate == nil {
		return nil, ErrNoHydrateFunc
	}
	if cfg.Fill == nil {
		return nil, ErrNoFillFunc
	}
	if cfg.Fail == nil {
		cfg.Fail = func(string, error) {}
	}
	if cfg.OnSection == nil {
		cfg.OnSection = func(int, int) {}
	}
	if cfg.Yield == nil {
		cfg.Yield = defaultYield
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	states := make(map[string]State, len(cfg.Sections))
	for _, sec := range cfg.Sections {
		states[sec.ID] = StateSkeleton
	}

	return &Scheduler{
		order:   cfg.Sections,
		hydrate: cfg.Hydrate,
		fill:    cfg.Fill,
		fail:    cfg.Fail,
		onDone:  cfg.OnSection,
		yield:   cfg.Yield,
		logger:  cfg.Logger,
		states:  states,
	}, nil
}

// defaultYield is the cooperative pause between eager steps.
func defaultYield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

// RunEager hydrates every section in document order, yielding between
// sections. Section failures are isolated; only cancellation stops the loop.
func (s *Scheduler) RunEager(ctx context.Context) error {
	for i, sec := range s.order {
		if i > 0 {
			if err := s.yield(ctx); err != nil {
				return err
			}
		}
		if err := s.hydrateOne(ctx, sec); err != nil {
			return err
		}
	}
	return nil
}

// RunLazy registers every pending section with the observer. Each section
// hydrates in its own goroutine on first visibility, then deregisters.
// Returns immediately; HydrateAll or Wait collects stragglers.
func (s *Scheduler) RunLazy(ctx context.Context, observer VisibilityObserver) {
	for _, sec := range s.order {
		sec := sec
		observer.Observe(sec.ID, func() {
			observer.Unobserve(sec.ID)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := s.hydrateOne(ctx, sec); err != nil {
					s.logger.Debug("lazy hydration stopped",
						"section", sec.ID,
						"error", err)
				}
			}()
		})
	}
}

// HydrateAll hydrates everything still pending in document order, then
// waits for hydrations already running elsewhere. Returns the context error
// if cancelled.
func (s *Scheduler) HydrateAll(ctx context.Context) error {
	for _, sec := range s.order {
		if err := s.hydrateOne(ctx, sec); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return ctx.Err()
}

// Wait blocks until lazily started hydrations settle.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// State reports a section's current state.
func (s *Scheduler) State(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSection, id)
	}
	return st, nil
}

// Progress reports settled and total section counts.
func (s *Scheduler) Progress() (done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done, len(s.order)
}

// hydrateOne moves a single section through its lifecycle. Re-invocation on
// a section past the skeleton state is a no-op. Only cancellation is
// returned as an error; render failures settle the section as failed.
func (s *Scheduler) hydrateOne(ctx context.Context, sec section.Section) error {
	s.mu.Lock()
	if s.states[sec.ID] != StateSkeleton {
		s.mu.Unlock()
		return nil
	}
	s.states[sec.ID] = StateHydrating
	s.mu.Unlock()

	html, err := s.hydrate(ctx, sec)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-flight: the placeholder is still intact, so
			// fall back to skeleton for a later retry.
			s.setState(sec.ID, StateSkeleton)
			return ctx.Err()
		}
		s.logger.Warn("section hydration failed",
			"section", sec.ID,
			"error", err)
		s.fail(sec.ID, err)
		s.settle(sec.ID, StateFailed)
		return nil
	}

	if err := s.fill(sec.ID, html); err != nil {
		s.logger.Warn("section insertion failed",
			"section", sec.ID,
			"error", err)
		s.fail(sec.ID, err)
		s.settle(sec.ID, StateFailed)
		return nil
	}

	s.settle(sec.ID, StateHydrated)
	return nil
}

// settle marks a terminal state and reports progress outside the lock.
func (s *Scheduler) settle(id string, st State) {
	s.mu.Lock()
	s.states[id] = st
	s.done++
	done, total := s.done, len(s.order)
	s.mu.Unlock()

	s.onDone(done, total)
}

func (s *Scheduler) setState(id string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = st
}
