package isolation

import (
	"sync"
	"time"
)

// timer is the part of *time.Timer the debouncer needs.
type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Debouncer coalesces bursts of signals into one call.
// It holds at most one pending timer: Idle -> Pending -> Idle.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	after   afterFunc
	pending timer
	stopped bool
}

// NewDebouncer returns a debouncer that calls fn once, delay after the first
// signal of a burst.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn, after: realAfterFunc}
}

// Signal arms the timer unless one is already pending.
// It reports whether a new timer was armed.
func (d *Debouncer) Signal() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.pending != nil {
		return false
	}
	d.pending = d.after(d.delay, d.fire)
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels any pending call and ignores later signals.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// fire returns to Idle before running fn, so signals raised during the call
// schedule a fresh one.
func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.pending == nil || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()

	d.fn()
}
