// Package sampler turns analog sensor voltages into log records.
package sampler

import (
	"math"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
	"codeberg.org/mutker/templogger/internal/ringstore"
	"codeberg.org/mutker/templogger/internal/timecodec"
)

// AnalogSource reads the sensor output voltage.
type AnalogSource interface {
	ReadVoltage() (float64, error)
}

// Calibration maps a voltage to °C as (v - V0) / Tc.
type Calibration struct {
	V0 float64 // sensor output at 0°C, volts
	Tc float64 // volts per °C
}

// Raw returns the uncalibrated, unclamped temperature for voltage.
func (c Calibration) Raw(voltage float64) float64 {
	return (voltage - c.V0) / c.Tc
}

// Classify converts voltage to a whole-degree temperature. Readings below
// zero are clamped to 0 and flagged as subzero.
func Classify(voltage float64, cal Calibration) (temperature int, subzero bool) {
	raw := cal.Raw(voltage)
	if raw >= 0 {
		return int(math.Floor(raw)), false
	}
	return 0, true
}

// Sample is one reading with the values that produced it.
type Sample struct {
	Record  ringstore.LogRecord
	Voltage float64
	Raw     float64
	Taken   time.Time
}

type Engine struct {
	src AnalogSource
	cal Calibration
	now func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(src AnalogSource, cal Calibration, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, errors.New().WithMessage(errors.ErrInvalidArgument, "nil analog source")
	}
	if cal.Tc == 0 || math.IsNaN(cal.Tc) || math.IsInf(cal.Tc, 0) {
		return nil, errors.New().WithData(errors.ErrInvalidCalibration, cal.Tc)
	}

	e := &Engine{src: src, cal: cal, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Sample reads the source once and stamps the reading with the wall clock
// time of day and the whole seconds elapsed since sessionStart.
func (e *Engine) Sample(sessionStart time.Time) (Sample, error) {
	v, err := e.src.ReadVoltage()
	if err != nil {
		return Sample{}, errors.New().Wrap(errors.ErrAnalogRead, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Sample{}, errors.New().WithData(errors.ErrAnalogRead, v)
	}

	now := e.now()
	elapsed := now.Sub(sessionStart)
	if elapsed < 0 {
		elapsed = 0
	}

	temp, subzero := Classify(v, e.cal)

	return Sample{
		Record: ringstore.LogRecord{
			TimeOfDay:   timecodec.SecondsOfDay(now),
			Elapsed:     int(elapsed / time.Second),
			Temperature: temp,
			Subzero:     subzero,
		},
		Voltage: v,
		Raw:     e.cal.Raw(v),
		Taken:   now,
	}, nil
}
