// Package pipeline implements the per-section rendering stages.
//
// This package handles conversion, sanitization, and enhancement:
//   - Markdown to HTML conversion via Goldmark
//   - HTML sanitization against an element and attribute whitelist
//   - Presentation transforms (code-block chrome, lazy images, table wrappers)
//   - Syntax highlighting via Chroma
//   - Diagram rendering via D2
//   - Copy affordances and heading anchors
//   - Document shell assembly and theme CSS injection
//
// Scheduling is handled separately by the hydrate and dispatch packages and
// the root mdrender package. This separation keeps the pipeline focused on
// content, while orchestration handles ordering, parallelism, and progress.
package pipeline
