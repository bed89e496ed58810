// Package hydrate schedules the replacement of skeleton placeholders with
// rendered section content.
//
// A Scheduler tracks per-section states (skeleton, hydrating, hydrated,
// failed) and supports two modes: eager, which walks sections in document
// order with a cooperative yield between steps, and lazy, which hydrates
// each section on first visibility through a VisibilityObserver. Section
// failures settle as inline error blocks without blocking siblings.
package hydrate
