// Package dispatch provides the bounded worker pool that offloads CPU-heavy
// transforms (parsing, highlighting, diagram layout) from the orchestrating
// goroutine.
//
// Tasks are typed, carry a unique id and a priority, and are answered
// exactly once; submitters correlate purely by id, never by completion
// order. Until the pool is initialized, submission degrades to synchronous
// in-process execution with an identical result contract.
package dispatch
