// Package debounce coalesces bursts of triggers into a single call.
package debounce

import (
	"sync"
	"time"

	"github.com/roach88/staffdir/internal/clock"
)

// DefaultDelay is the quiet window used for filter edits and file events.
const DefaultDelay = 300 * time.Millisecond

// Debouncer calls fn once delay has passed without another Trigger.
// It is safe for concurrent use.
type Debouncer struct {
	delay time.Duration
	fn    func()
	clock clock.Clock

	mu      sync.Mutex
	timer   clock.Timer
	gen     uint64
	stopped bool
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the clock that schedules timers.
func WithClock(c clock.Clock) Option {
	return func(d *Debouncer) {
		d.clock = c
	}
}

// New creates a Debouncer. A non-positive delay uses DefaultDelay.
func New(delay time.Duration, fn func(), opts ...Option) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{delay: delay, fn: fn}
	for _, opt := range opts {
		opt(d)
	}
	d.clock = clock.OrSystem(d.clock)
	return d
}

// Delay returns the quiet window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger cancels any pending call and schedules a new one after the delay.
// Triggers after Stop are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that lost the race with Stop or a newer Trigger must not run.
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the pending call, if any. Later triggers still work.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop drops the pending call and disables the Debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
