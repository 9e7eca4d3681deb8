package session

import (
	"sync"
	"time"
)

// DefaultDebounce is also the shortest window a Debouncer will use.
const DefaultDebounce = 200 * time.Millisecond

// Debouncer accepts an edge only if at least window has passed since the
// last accepted edge. Rejected edges do not extend the window.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   time.Time
	seen   bool
}

// NewDebouncer returns a Debouncer. Windows shorter than DefaultDebounce
// are raised to it.
func NewDebouncer(window time.Duration, now func() time.Time) *Debouncer {
	if window < DefaultDebounce {
		window = DefaultDebounce
	}
	if now == nil {
		now = time.Now
	}
	return &Debouncer{window: window, now: now}
}

// Accept reports whether an edge arriving now should be acted on.
func (d *Debouncer) Accept() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.seen && now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	d.seen = true
	return true
}

// Window returns the effective accept window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}
