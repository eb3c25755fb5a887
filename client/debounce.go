package client

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid repeated triggers per key into one trailing
// call, so a double-clicked delete button issues a single request. The last
// function scheduled for a key wins.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// DefaultDebounce is the per-record coalescing window.
const DefaultDebounce = 300 * time.Millisecond

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Do schedules fn to run after the delay, replacing any pending call for
// the same key.
func (d *Debouncer) Do(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduleLocked(key, fn)
}

func (d *Debouncer) scheduleLocked(key string, fn func()) {
	if t, ok := d.timers[key]; ok {
		if t.Stop() {
			d.wg.Done()
		}
	}

	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		// A fire that lost the lock to a replacement must not remove the
		// replacement's entry, or the next Do cannot cancel it.
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

// Stop cancels all pending calls and waits for in-flight ones to finish.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
