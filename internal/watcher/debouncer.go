// Package watcher reports changes to a single file, coalescing bursts of
// writes into one callback.
package watcher

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultDebounceDuration is the default debounce window.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces rapid events into a single callback invocation.
// When Trigger is called multiple times within the debounce duration,
// only the last callback is executed after the duration elapses.
type Debouncer struct {
	duration time.Duration
	clock    clock.WithDelayedExecution
	timer    clock.Timer
	mu       sync.Mutex
}

// NewDebouncer creates a new Debouncer with the specified duration.
// If duration is 0, DefaultDebounceDuration is used.
func NewDebouncer(duration time.Duration) *Debouncer {
	return NewDebouncerWithClock(duration, clock.RealClock{})
}

// NewDebouncerWithClock is NewDebouncer with an injected time source.
func NewDebouncerWithClock(duration time.Duration, clk clock.WithDelayedExecution) *Debouncer {
	if duration == 0 {
		duration = DefaultDebounceDuration
	}
	return &Debouncer{
		duration: duration,
		clock:    clk,
	}
}

// Trigger schedules the callback to be called after the debounce duration.
// A second Trigger inside the window replaces the pending callback.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.duration, callback)
}

// Cancel cancels any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
