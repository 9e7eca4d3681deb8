package session_test

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/templogger/internal/metrics"
	"codeberg.org/mutker/templogger/internal/ringstore"
	"codeberg.org/mutker/templogger/internal/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fire runs the callback as the runtime would on expiry, unless stopped.
func (t *fakeTimer) Fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	t.mu.Unlock()

	t.f()
	return true
}

// FireLate runs the callback even if the timer was stopped, as when the
// timer expired just before Stop was called.
func (t *fakeTimer) FireLate() {
	t.f()
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

var _ session.Scheduler = (*fakeScheduler)(nil)

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) session.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Timers() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTimer(nil), s.timers...)
}

// Pending returns the timers neither stopped nor fired.
func (s *fakeScheduler) Pending() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.Timers() {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
		t.mu.Unlock()
	}
	return out
}

type recordingStore struct {
	mu      sync.Mutex
	records []ringstore.LogRecord
	clears  int
	err     error
}

func (s *recordingStore) Append(rec ringstore.LogRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.records = append(s.records, rec)
	return 1 + 3*len(s.records), nil
}

func (s *recordingStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.records = nil
	return nil
}

func (s *recordingStore) Records() []ringstore.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ringstore.LogRecord(nil), s.records...)
}

func (s *recordingStore) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

type recordingDisplay struct {
	mu    sync.Mutex
	lines []string
}

func (d *recordingDisplay) add(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, line)
}

func (d *recordingDisplay) Header()                        { d.add("header") }
func (d *recordingDisplay) Record(rec ringstore.LogRecord) { d.add("record") }
func (d *recordingDisplay) Suspended()                     { d.add("suspended") }

func (d *recordingDisplay) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

type recordingMetrics struct {
	mu        sync.Mutex
	snapshots []metrics.MetricsSnapshot
}

func (r *recordingMetrics) Record(_ context.Context, s *metrics.MetricsSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, *s)
	return nil
}

func (r *recordingMetrics) Close() error { return nil }

func (r *recordingMetrics) Snapshots() []metrics.MetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.MetricsSnapshot(nil), r.snapshots...)
}
