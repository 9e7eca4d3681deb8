package display_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/templogger/internal/display"
	"codeberg.org/mutker/templogger/internal/ringstore"
	"github.com/stretchr/testify/assert"
)

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	display.New(&buf).Header()
	assert.Equal(t, "Time\tSys Timer\tTemp\n", buf.String())
}

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	d := display.New(&buf)

	d.Record(ringstore.LogRecord{TimeOfDay: 45296, Elapsed: 65, Temperature: 21})
	assert.Equal(t, "12:34:56\t00:01:05\t21 C\n", buf.String())
}

func TestRecordSubzero(t *testing.T) {
	var buf bytes.Buffer
	d := display.New(&buf)

	d.Record(ringstore.LogRecord{TimeOfDay: 0, Elapsed: 0, Temperature: 0, Subzero: true})
	assert.Equal(t, "00:00:00\t00:00:00\tSubZero\n", buf.String())
}

func TestRecordSubzeroHighlightedOnTTY(t *testing.T) {
	var buf bytes.Buffer
	d := display.New(&buf, display.WithTTY(true))

	d.Record(ringstore.LogRecord{TimeOfDay: 1, Subzero: true})
	out := buf.String()
	assert.Contains(t, out, "SubZero")
	assert.Contains(t, out, "\x1b[")
	assert.NotEqual(t, "00:00:01\t00:00:00\tSubZero\n", out)
}

func TestSuspended(t *testing.T) {
	var buf bytes.Buffer
	display.New(&buf).Suspended()
	assert.Equal(t, "Logging suspended\n", buf.String())

	buf.Reset()
	display.New(&buf, display.WithTTY(true)).Suspended()
	assert.Equal(t, "\033[H\033[2JLogging suspended\n", buf.String())
}
