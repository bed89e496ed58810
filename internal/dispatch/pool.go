package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Sentinel errors for task dispatch.
var (
	ErrTaskTimeout   = errors.New("task timed out")
	ErrTaskInFlight  = errors.New("task id already in flight")
	ErrMissingTaskID = errors.New("task id cannot be empty")
	ErrNoHandler     = errors.New("no handler registered for task type")
	ErrPoolClosed    = errors.New("dispatch pool is closed")
	ErrTaskPanicked  = errors.New("task handler panicked")
)

// DefaultTaskTimeout bounds a single task from submission to completion,
// queue wait included.
const DefaultTaskTimeout = 15 * time.Second

// Pool is a bounded set of workers executing typed, prioritized tasks.
// Worker count is fixed at construction. At most one in-flight attempt per
// task id; results delivered to workers for ids no longer pending are
// discarded. Until Initialize is called, Submit degrades to synchronous
// in-process execution with the same contract.
//
// Safe for concurrent submission from multiple goroutines.
type Pool struct {
	workers int
	timeout time.Duration
	logger  *slog.Logger

	mu          sync.Mutex
	handlers    map[Type]Handler
	queue       taskQueue
	pending     map[string]chan taskResult
	seq         uint64
	initialized bool
	closed      bool

	notify chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool with the given worker count and per-task timeout.
// Counts below one are coerced to one; non-positive timeouts use
// DefaultTaskTimeout. A nil logger discards.
func NewPool(workers int, timeout time.Duration, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pool{
		workers:  workers,
		timeout:  timeout,
		logger:   logger,
		handlers: make(map[Type]Handler),
		pending:  make(map[string]chan taskResult),
		notify:   make(chan struct{}, 1),
	}
}

// Register binds a handler to a task type, replacing any previous binding.
func (p *Pool) Register(t Type, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[t] = h
}

// Initialize starts the workers. Idempotent; returns ErrPoolClosed after
// Close. Tasks submitted before Initialize run synchronously in the
// submitter's goroutine.
func (p *Pool) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	if p.initialized {
		return nil
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.initialized = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx, i)
	}

	p.logger.Debug("dispatch pool initialized", "workers", p.workers, "timeout", p.timeout)
	return nil
}

// Submit executes the task and returns its result. Queued tasks run on pool
// workers ordered by priority; when the pool is not initialized the handler
// runs inline, same contract, different latency. A task not completing
// within the pool timeout fails with ErrTaskTimeout and its late result is
// discarded.
func (p *Pool) Submit(ctx context.Context, task Task) (any, error) {
	// Fast path: check context before queueing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if task.ID == "" {
		return nil, ErrMissingTaskID
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	handler, ok := p.handlers[task.Type]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, task.Type)
	}

	if !p.initialized {
		p.mu.Unlock()
		return p.runSync(ctx, task, handler)
	}

	if _, dup := p.pending[task.ID]; dup {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTaskInFlight, task.ID)
	}

	waiter := make(chan taskResult, 1)
	p.pending[task.ID] = waiter
	p.seq++
	p.queue.push(task, p.seq)
	p.mu.Unlock()

	p.wake()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case r := <-waiter:
		return r.value, r.err

	case <-timer.C:
		if p.abandon(task.ID) {
			return nil, fmt.Errorf("%w: %s task %s after %s", ErrTaskTimeout, task.Type, task.ID, p.timeout)
		}
		// The result landed while the timer fired; deliver it.
		r := <-waiter
		return r.value, r.err

	case <-ctx.Done():
		if p.abandon(task.ID) {
			return nil, ctx.Err()
		}
		r := <-waiter
		return r.value, r.err
	}
}

// Close stops the workers and fails all pending submissions with
// ErrPoolClosed. Safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	for id, waiter := range p.pending {
		delete(p.pending, id)
		waiter <- taskResult{err: ErrPoolClosed}
	}
	p.queue = nil
	p.mu.Unlock()

	return nil
}

// Size returns the fixed worker count.
func (p *Pool) Size() int {
	return p.workers
}

// runSync is the degraded path: the handler runs in the submitter's
// goroutine under the same timeout.
func (p *Pool) runSync(ctx context.Context, task Task, handler Handler) (any, error) {
	taskCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	value, err := p.invoke(taskCtx, task, handler)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s task %s after %s", ErrTaskTimeout, task.Type, task.ID, p.timeout)
	}
	return value, err
}

// abandon removes a pending task id, reporting whether it was still pending.
// A false return means the result was already delivered.
func (p *Pool) abandon(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[id]; !ok {
		return false
	}
	delete(p.pending, id)
	return true
}

// wake signals the workers without blocking; a full channel means a wakeup
// is already scheduled and the queue will be drained.
func (p *Pool) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// worker drains the queue on each wakeup and exits when the pool context is
// cancelled.
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.notify:
		}

		for {
			task, handler, ok := p.next()
			if !ok {
				break
			}
			p.execute(ctx, task, handler)
		}
	}
}

// next pops the highest-priority task still awaited by a submitter. Tasks
// abandoned while queued are skipped without executing.
func (p *Pool) next() (Task, Handler, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		task, ok := p.queue.pop()
		if !ok {
			return Task{}, nil, false
		}
		if _, awaited := p.pending[task.ID]; !awaited {
			p.logger.Debug("skipping abandoned task", "id", task.ID, "type", task.Type.String())
			continue
		}
		return task, p.handlers[task.Type], true
	}
}

// execute runs the handler and delivers its result to the submitter still
// waiting on the task id, discarding results for ids no longer pending.
func (p *Pool) execute(ctx context.Context, task Task, handler Handler) {
	taskCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	value, err := p.invoke(taskCtx, task, handler)
	p.deliver(task.ID, taskResult{value: value, err: err})
}

// invoke calls the handler, converting a panic into an error so one bad
// task cannot take down a worker.
func (p *Pool) invoke(ctx context.Context, task Task, handler Handler) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task handler panicked", "id", task.ID, "type", task.Type.String(), "panic", r)
			value = nil
			err = fmt.Errorf("%w: %s task %s: %v", ErrTaskPanicked, task.Type, task.ID, r)
		}
	}()
	return handler(ctx, task.Payload)
}

// deliver hands the result to the pending waiter, if any. The send is
// buffered and performed under the lock so delivery and the pending removal
// are atomic with respect to Submit's timeout path.
func (p *Pool) deliver(id string, r taskResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	waiter, ok := p.pending[id]
	if !ok {
		p.logger.Debug("discarding result for unknown task id", "id", id)
		return
	}
	delete(p.pending, id)
	waiter <- r
}
