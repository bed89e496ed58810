package mdrender

import (
	"sync"
	"time"
)

// stagePercent anchors each stage on the 0..100 scale. Progressive
// hydration interpolates between the inserting and enhancing anchors as
// sections settle.
var stagePercent = map[Stage]int{
	StageIdle:         0,
	StageCacheCheck:   2,
	StageParsing:      10,
	StageSanitizing:   25,
	StageTransforming: 35,
	StageInserting:    45,
	StageEnhancing:    80,
	StageTheming:      95,
	StageComplete:     100,
	StageCached:       100,
	StageError:        0,
}

// progressBroker is the subscriber registry. It outlives individual
// renders; subscriptions stay active across runs until unsubscribed.
type progressBroker struct {
	mu     sync.Mutex
	subs   map[int]func(Progress)
	nextID int
}

func newProgressBroker() *progressBroker {
	return &progressBroker{subs: make(map[int]func(Progress))}
}

// subscribe registers fn and returns its unsubscribe handle. Unsubscribing
// twice is harmless.
func (b *progressBroker) subscribe(fn func(Progress)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// publish delivers p to every subscriber. Callbacks run outside the broker
// lock so a subscriber may unsubscribe from within its callback.
func (b *progressBroker) publish(p Progress) {
	b.mu.Lock()
	fns := make([]func(Progress), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// progressEmitter owns one render's emission policy: percent never
// decreases, non-terminal emissions are throttled to one per interval, and
// terminal stages always go out immediately so every render reports 100.
type progressEmitter struct {
	broker   *progressBroker
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastEmit time.Time
	percent  int
}

func newProgressEmitter(broker *progressBroker, interval time.Duration) *progressEmitter {
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	return &progressEmitter{
		broker:   broker,
		interval: interval,
		now:      time.Now,
	}
}

// stage emits a stage transition at the stage's anchor percent.
func (e *progressEmitter) stage(s Stage, msg string) {
	e.emit(s, stagePercent[s], msg)
}

// emit publishes one notification, subject to the monotone floor and the
// throttle. Throttled percents still raise the floor so later emissions
// never report less work done.
func (e *progressEmitter) emit(s Stage, percent int, msg string) {
	e.mu.Lock()
	if percent < e.percent {
		percent = e.percent
	}
	if percent > 100 {
		percent = 100
	}
	e.percent = percent

	now := e.now()
	if !s.Terminal() && now.Sub(e.lastEmit) < e.interval && !e.lastEmit.IsZero() {
		e.mu.Unlock()
		return
	}
	e.lastEmit = now
	e.mu.Unlock()

	e.broker.publish(Progress{Stage: s, Percent: percent, Message: msg})
}

// interpolate maps done/total onto the span between two stage anchors.
func interpolate(from, to Stage, done, total int) int {
	if total <= 0 {
		return stagePercent[to]
	}
	lo, hi := stagePercent[from], stagePercent[to]
	return lo + (hi-lo)*done/total
}
