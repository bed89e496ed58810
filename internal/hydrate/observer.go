package hydrate

import "sync"

// ManualObserver is a VisibilityObserver fed by explicit visibility marks.
// Hosts without a real viewport (CLIs, servers, tests) report visibility by
// calling MarkVisible.
type ManualObserver struct {
	mu        sync.Mutex
	callbacks map[string]func()
}

// NewManualObserver creates an empty observer.
func NewManualObserver() *ManualObserver {
	return &ManualObserver{callbacks: make(map[string]func())}
}

// Observe registers fn for id, replacing any previous registration.
func (o *ManualObserver) Observe(id string, fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callbacks[id] = fn
}

// Unobserve drops the registration for id.
func (o *ManualObserver) Unobserve(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.callbacks, id)
}

// MarkVisible fires the callback registered for id and reports whether one
// was present. The callback runs on the caller's goroutine, outside the
// observer lock, so it may re-enter Observe or Unobserve.
func (o *ManualObserver) MarkVisible(id string) bool {
	o.mu.Lock()
	fn, ok := o.callbacks[id]
	delete(o.callbacks, id)
	o.mu.Unlock()

	if !ok {
		return false
	}
	fn()
	return true
}

// Observed reports how many placeholders are still registered.
func (o *ManualObserver) Observed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.callbacks)
}

var _ VisibilityObserver = (*ManualObserver)(nil)
