package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration coalesces editor save bursts into one reload.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer runs the last triggered function once no trigger arrived for
// its duration.
type Debouncer struct {
	duration time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
}

// NewDebouncer returns a Debouncer. A non-positive duration selects
// DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn, replacing any pending function.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops any pending function.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
