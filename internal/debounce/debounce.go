// Package debounce collapses bursts of calls into one delayed call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function once the delay has
// elapsed without a newer call. Each Trigger cancels and replaces the pending one.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	seq     uint64
	pending func()
}

// New creates a debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the configured delay.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn, superseding any call that has not fired yet.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// fire runs the pending function if no newer Trigger, Cancel or Flush happened.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.take()
	d.mu.Unlock()

	fn()
}

// Flush runs the pending function now, on the caller's goroutine.
// It reports whether anything was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	fn := d.take()
	d.mu.Unlock()

	fn()
	return true
}

// Cancel drops the pending function without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.take()
	}
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// take clears the pending call and invalidates its timer. Caller holds d.mu.
func (d *Debouncer) take() func() {
	fn := d.pending
	d.pending = nil
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return fn
}
