package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped out by tests to capture scheduled callbacks.
var afterFunc = time.AfterFunc

// Debouncer coalesces bursts of Trigger calls into a single invocation of
// fn after a quiet period. A generation counter guards against a timer
// callback that fires after a later Trigger or a Stop already superseded it.
type Debouncer struct {
	mu         sync.Mutex
	delay      time.Duration
	timer      *time.Timer
	fn         func()
	generation int
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Ensure returns *d, creating the debouncer on first use. The caller holds
// whatever lock protects the slot.
func Ensure(d **Debouncer, delay time.Duration, fn func()) *Debouncer {
	if *d == nil {
		*d = New(delay, fn)
	}
	return *d
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.timer = afterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.generation == gen
		d.mu.Unlock()
		if current {
			d.fn()
		}
	})
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}
