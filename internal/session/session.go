// Package session runs the logging state machine: a push button toggles
// between suspended and active, and while active a one-shot timer drives
// one sample per interval into the display and the ring store.
//
// All state is owned by the goroutine inside Run. Button edges and timer
// expiries only enqueue events, so ticks never overlap and a suspend
// processed by the loop is never followed by a tick body from the
// suspended session.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
	"codeberg.org/mutker/templogger/internal/logger"
	"codeberg.org/mutker/templogger/internal/metrics"
	"codeberg.org/mutker/templogger/internal/ringstore"
	"codeberg.org/mutker/templogger/internal/sampler"
	"github.com/google/uuid"
)

const eventQueueSize = 16

// Sampler takes one reading for a session that started at sessionStart.
type Sampler interface {
	Sample(sessionStart time.Time) (sampler.Sample, error)
}

// Store persists records.
type Store interface {
	Append(rec ringstore.LogRecord) (int, error)
	Clear() error
}

// Display renders the console view.
type Display interface {
	Header()
	Record(rec ringstore.LogRecord)
	Suspended()
}

type Config struct {
	Interval time.Duration
	Debounce time.Duration

	Sampler Sampler
	Store   Store
	Display Display

	// Optional.
	Metrics   metrics.MetricsCollector
	Logger    logger.Logger
	Scheduler Scheduler
	Now       func() time.Time
	NewID     func() string
}

type Machine struct {
	interval  time.Duration
	sampler   Sampler
	store     Store
	display   Display
	metrics   metrics.MetricsCollector
	log       logger.Logger
	sched     Scheduler
	now       func() time.Time
	newID     func() string
	debouncer *Debouncer

	events  chan event
	done    chan struct{}
	running atomic.Bool
	state   atomic.Int32

	// Owned by the loop.
	gen       uint64
	timer     Timer
	sessionID string
	start     time.Time
	slog      logger.Logger
}

func New(cfg Config) (*Machine, error) {
	errFactory := errors.New()

	if cfg.Interval <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidInterval, cfg.Interval.String())
	}
	if cfg.Sampler == nil || cfg.Store == nil || cfg.Display == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "sampler, store and display are required")
	}

	m := &Machine{
		interval: cfg.Interval,
		sampler:  cfg.Sampler,
		store:    cfg.Store,
		display:  cfg.Display,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
		sched:    cfg.Scheduler,
		now:      cfg.Now,
		newID:    cfg.NewID,
		events:   make(chan event, eventQueueSize),
		done:     make(chan struct{}),
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	if m.sched == nil {
		m.sched = realScheduler{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	m.slog = m.log
	m.debouncer = NewDebouncer(cfg.Debounce, m.now)

	return m, nil
}

// State returns the current state. Safe for concurrent use.
func (m *Machine) State() State {
	return State(m.state.Load())
}

// Toggle requests a flip between suspended and active. It never blocks;
// the request is dropped if the event queue is full.
func (m *Machine) Toggle() bool {
	select {
	case m.events <- event{kind: eventToggle}:
		return true
	default:
		m.log.ErrorWithCode(errors.New().New(errors.ErrEventQueue)).Msg("Toggle dropped")
		return false
	}
}

// Press handles a raw button edge, applying the debounce window before
// requesting a toggle.
func (m *Machine) Press() {
	if !m.debouncer.Accept() {
		m.log.Debug().Msg("Button edge ignored")
		return
	}
	m.Toggle()
}

// Clear zeroes the ring store from inside the loop and waits for the
// result.
func (m *Machine) Clear(ctx context.Context) error {
	errFactory := errors.New()
	reply := make(chan error, 1)

	select {
	case m.events <- event{kind: eventClear, reply: reply}:
	case <-m.done:
		return errFactory.New(errors.ErrLoopStopped)
	case <-ctx.Done():
		return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	}

	select {
	case err := <-reply:
		return err
	case <-m.done:
		return errFactory.New(errors.ErrLoopStopped)
	case <-ctx.Done():
		return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	}
}

// Run processes events until ctx is cancelled, returning nil, or until a
// tick fails, returning an ErrTickFailed error. Any armed tick is
// cancelled on return. Run may only be called once.
func (m *Machine) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New().WithMessage(errors.ErrMainLoop, "session loop already started")
	}
	defer close(m.done)
	defer m.disarm()

	m.log.Debug().Dur("interval", m.interval).Msg("Session loop started")

	for {
		select {
		case <-ctx.Done():
			m.log.Debug().Msg("Session loop stopped")
			return nil
		case ev := <-m.events:
			if err := m.handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (m *Machine) handle(ctx context.Context, ev event) error {
	switch ev.kind {
	case eventToggle:
		m.toggle()
	case eventTick:
		if ev.gen != m.gen || m.State() != Active {
			m.log.Debug().Msg("Stale tick dropped")
			return nil
		}
		m.timer = nil
		if err := m.tick(ctx); err != nil {
			return errors.New().Wrap(errors.ErrTickFailed, err)
		}
		m.arm(m.interval)
	case eventClear:
		err := m.store.Clear()
		if err == nil {
			m.log.Info().Msg("Log store cleared")
		}
		ev.reply <- err
	}
	return nil
}

func (m *Machine) toggle() {
	if m.State() == Suspended {
		m.sessionID = m.newID()
		m.start = m.now()
		m.slog = m.log.With("session_id", m.sessionID)
		m.state.Store(int32(Active))

		m.display.Header()
		m.slog.Info().Msg("Logging started")
		m.arm(0)
		return
	}

	m.disarm()
	m.state.Store(int32(Suspended))
	m.display.Suspended()
	m.slog.Info().Msg("Logging suspended")
}

// tick takes one sample, shows it and stores it.
func (m *Machine) tick(ctx context.Context) error {
	s, err := m.sampler.Sample(m.start)
	if err != nil {
		return err
	}

	m.display.Record(s.Record)

	cursor, err := m.store.Append(s.Record)
	if err != nil {
		return err
	}

	m.slog.Debug().
		Int("temperature", s.Record.Temperature).
		Bool("subzero", s.Record.Subzero).
		Float64("voltage", s.Voltage).
		Int("elapsed", s.Record.Elapsed).
		Int("cursor", cursor).
		Msg("Sample stored")

	if m.metrics != nil {
		snapshot := &metrics.MetricsSnapshot{
			Timestamp: s.Taken,
			SessionID: m.sessionID,
			Reading: metrics.ReadingMetrics{
				Voltage:        s.Voltage,
				TemperatureRaw: s.Raw,
				Temperature:    s.Record.Temperature,
				Subzero:        s.Record.Subzero,
			},
			Store: metrics.StoreMetrics{Cursor: cursor},
		}
		if err := m.metrics.Record(ctx, snapshot); err != nil {
			m.slog.Warn().Err(err).Msg("Failed to record tick metrics")
		}
	}

	return nil
}

// arm schedules the next tick after d under a new generation.
func (m *Machine) arm(d time.Duration) {
	m.gen++
	gen := m.gen
	m.timer = m.sched.AfterFunc(d, func() {
		select {
		case m.events <- event{kind: eventTick, gen: gen}:
		case <-m.done:
		}
	})
}

// disarm stops the pending timer and invalidates any tick already queued.
func (m *Machine) disarm() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}
