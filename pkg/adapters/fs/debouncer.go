package fs

import (
	"sync"
	"time"

	"github.com/aretw0/emlapp/pkg/core"
)

// debouncer coalesces bursts of events per source. Only the last event of a
// burst is delivered, delay after the burst ends.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]core.Event
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]core.Event),
	}
}

func (d *debouncer) add(e core.Event, fn func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	key := e.Source
	d.pending[key] = e

	if t, ok := d.timers[key]; ok {
		// A timer that already fired is waiting for the lock and will pick
		// up the new pending event.
		if t.Stop() {
			t.Reset(d.delay)
		}
		return
	}

	d.wg.Add(1)
	d.timers[key] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		ev, ok := d.pending[key]
		delete(d.pending, key)
		delete(d.timers, key)
		d.mu.Unlock()

		if ok {
			fn(ev)
		}
	})
}

// stopAndWait drops pending events and waits up to timeout for callbacks
// that are already running.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.pending = make(map[string]core.Event)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}
