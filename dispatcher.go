package mdrender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/go-mdrender/internal/dispatch"
)

// TaskType identifies the kind of work routed through a Dispatcher.
type TaskType int

// Task types and their payload contracts: TaskParse carries a markdown
// string and yields ConvertResult; TaskHighlight carries a HighlightJob and
// yields an HTML string; TaskRenderDiagram carries diagram source and
// yields an SVG string.
const (
	TaskParse TaskType = iota
	TaskHighlight
	TaskRenderDiagram
)

// String returns the lowercase protocol name for the task type.
func (t TaskType) String() string {
	return toDispatchType(t).String()
}

// Queue ordering priorities. Priority affects dequeue order only; a running
// task is never preempted.
const (
	PriorityLow    = dispatch.PriorityLow
	PriorityNormal = dispatch.PriorityNormal
	PriorityHigh   = dispatch.PriorityHigh
)

// Task is one unit of work for a Dispatcher. ID must be unique among
// in-flight tasks; results are correlated by id, never by completion order.
type Task struct {
	Type     TaskType
	ID       string
	Payload  any
	Priority int
}

// HighlightJob is the payload for TaskHighlight.
type HighlightJob struct {
	Code string
	Lang string
}

// Dispatcher runs CPU-heavy transform tasks off the orchestrating
// goroutine. Until Initialize succeeds, Submit degrades to synchronous
// in-process execution with the same result contract. Implementations must
// be safe for concurrent submission from multiple render calls.
type Dispatcher interface {
	Initialize(ctx context.Context) error
	Submit(ctx context.Context, task Task) (any, error)
	Close() error
}

// poolDispatcher is the default Dispatcher: a bounded worker pool with the
// transform handlers registered at construction.
type poolDispatcher struct {
	pool *dispatch.Pool
}

// newPoolDispatcher builds the default dispatcher around the given
// transform implementations.
func newPoolDispatcher(workers int, timeout time.Duration, logger *slog.Logger,
	conv Converter, hl Highlighter, diag DiagramRenderer) *poolDispatcher {
	pool := dispatch.NewPool(workers, timeout, logger)

	pool.Register(dispatch.TypeParse, func(ctx context.Context, payload any) (any, error) {
		text, ok := payload.(string)
		if !ok {
			return nil, fmt.Errorf("parse payload must be string, got %T", payload)
		}
		return conv.Convert(ctx, text)
	})

	pool.Register(dispatch.TypeHighlight, func(ctx context.Context, payload any) (any, error) {
		job, ok := payload.(HighlightJob)
		if !ok {
			return nil, fmt.Errorf("highlight payload must be HighlightJob, got %T", payload)
		}
		return hl.Highlight(ctx, job.Code, job.Lang)
	})

	pool.Register(dispatch.TypeRenderDiagram, func(ctx context.Context, payload any) (any, error) {
		source, ok := payload.(string)
		if !ok {
			return nil, fmt.Errorf("diagram payload must be string, got %T", payload)
		}
		if diag == nil {
			return nil, fmt.Errorf("%w: no diagram renderer configured", ErrDiagram)
		}
		return diag.RenderDiagram(ctx, source)
	})

	return &poolDispatcher{pool: pool}
}

// Initialize starts the workers. Before (or without) a successful call,
// Submit executes synchronously.
func (d *poolDispatcher) Initialize(ctx context.Context) error {
	return d.pool.Initialize(ctx)
}

// Submit runs one task and returns its result, correlated by task id.
func (d *poolDispatcher) Submit(ctx context.Context, task Task) (any, error) {
	return d.pool.Submit(ctx, dispatch.Task{
		Type:     toDispatchType(task.Type),
		ID:       task.ID,
		Payload:  task.Payload,
		Priority: task.Priority,
	})
}

// Close stops the workers and fails pending submissions.
func (d *poolDispatcher) Close() error {
	return d.pool.Close()
}

var _ Dispatcher = (*poolDispatcher)(nil)

// toDispatchType converts the public task type to the internal enum.
func toDispatchType(t TaskType) dispatch.Type {
	switch t {
	case TaskHighlight:
		return dispatch.TypeHighlight
	case TaskRenderDiagram:
		return dispatch.TypeRenderDiagram
	default:
		return dispatch.TypeParse
	}
}
