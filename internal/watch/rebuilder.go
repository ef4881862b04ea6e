// Package watch keeps a site up to date: it rebuilds on content and
// template changes and on a schedule, and serves the output directory.
package watch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDebounce is the quiet period after the last change before a
// rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build. trigger names what requested it.
type BuildFunc func(ctx context.Context, trigger string)

// Rebuilder serializes builds. Requests arriving while a build runs are
// coalesced into a single follow-up build.
type Rebuilder struct {
	build    BuildFunc
	debounce time.Duration
	reqs     chan struct{}
	trigger  atomic.Value

	mu    sync.Mutex
	timer *time.Timer
}

// NewRebuilder returns a rebuilder calling build. A debounce of zero uses
// DefaultDebounce.
func NewRebuilder(build BuildFunc, debounce time.Duration) *Rebuilder {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Rebuilder{
		build:    build,
		debounce: debounce,
		reqs:     make(chan struct{}, 1),
	}
}

// Trigger requests a rebuild once no further Trigger call arrives for the
// debounce period.
func (r *Rebuilder) Trigger(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() { r.Request(trigger) })
}

// Request asks for a rebuild without debouncing.
func (r *Rebuilder) Request(trigger string) {
	r.trigger.Store(trigger)
	select {
	case r.reqs <- struct{}{}:
	default:
	}
}

// Run processes requests until ctx is done.
func (r *Rebuilder) Run(ctx context.Context) {
	defer r.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.reqs:
			trigger, _ := r.trigger.Load().(string)
			r.build(ctx, trigger)
		}
	}
}

func (r *Rebuilder) stopTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
}
