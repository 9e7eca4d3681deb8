// Package display prints the console view of the log.
package display

import (
	"fmt"
	"io"
	"os"

	"codeberg.org/mutker/templogger/internal/ringstore"
	"codeberg.org/mutker/templogger/internal/timecodec"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	HeaderLine     = "Time\tSys Timer\tTemp"
	SuspendedLine  = "Logging suspended"
	SubzeroMarker  = "SubZero"
	clearSequence  = "\033[H\033[2J"
	temperatureFmt = "%d C"
)

type Display struct {
	w       io.Writer
	tty     bool
	subzero *color.Color
}

type Option func(*Display)

// WithTTY overrides terminal detection.
func WithTTY(tty bool) Option {
	return func(d *Display) {
		d.tty = tty
	}
}

// New returns a Display writing to w. Colour and screen clearing are only
// used when w is a terminal.
func New(w io.Writer, opts ...Option) *Display {
	d := &Display{
		w:       w,
		tty:     isTerminal(w),
		subzero: color.New(color.FgCyan, color.Bold),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.tty {
		d.subzero.EnableColor()
	} else {
		d.subzero.DisableColor()
	}
	return d
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Header prints the column headings.
func (d *Display) Header() {
	fmt.Fprintln(d.w, HeaderLine)
}

// Record prints one log line: time of day, elapsed session time and
// temperature.
func (d *Display) Record(rec ringstore.LogRecord) {
	temp := fmt.Sprintf(temperatureFmt, rec.Temperature)
	if rec.Subzero {
		temp = d.subzero.Sprint(SubzeroMarker)
	}

	fmt.Fprintf(d.w, "%s\t%s\t%s\n",
		timecodec.FormatSeconds(rec.TimeOfDay),
		timecodec.FormatSeconds(rec.Elapsed),
		temp)
}

// Suspended clears the screen and prints the suspended banner.
func (d *Display) Suspended() {
	if d.tty {
		fmt.Fprint(d.w, clearSequence)
	}
	fmt.Fprintln(d.w, SuspendedLine)
}
