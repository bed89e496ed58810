package dispatch

import "context"

// Type identifies the kind of work a task carries.
type Type int

// Task types.
const (
	TypeParse Type = iota
	TypeHighlight
	TypeRenderDiagram
)

// String returns the lowercase protocol name for the task type.
func (t Type) String() string {
	switch t {
	case TypeParse:
		return "parse"
	case TypeHighlight:
		return "highlight"
	case TypeRenderDiagram:
		return "renderDiagram"
	default:
		return "unknown"
	}
}

// Queue ordering priorities. Priority affects dequeue order only; a running
// task is never preempted.
const (
	PriorityLow    = 0
	PriorityNormal = 5
	PriorityHigh   = 10
)

// Task is one unit of work submitted to the pool. ID must be unique among
// in-flight tasks; results are correlated by it and never by completion
// order.
type Task struct {
	Type     Type
	ID       string
	Payload  any
	Priority int
}

// Handler executes one task payload. The context is cancelled when the task
// times out or the pool shuts down; handlers should return promptly after
// cancellation.
type Handler func(ctx context.Context, payload any) (any, error)

// taskResult pairs a handler's return values for delivery to the submitter.
type taskResult struct {
	value any
	err   error
}
