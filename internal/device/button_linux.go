//go:build linux

package device

import (
	"fmt"

	"codeberg.org/mutker/templogger/internal/errors"
	"github.com/warthog618/go-gpiocdev"
)

// Button watches a pulled-up push button for falling edges.
type Button struct {
	line *gpiocdev.Line
}

// NewButton requests offset on chip and calls onPress from the gpiocdev
// event goroutine for every press. onPress must not block.
func NewButton(chip string, offset int, onPress func()) (*Button, error) {
	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type == gpiocdev.LineEventFallingEdge {
			onPress()
		}
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(LineDebounce),
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrEdgeSource, err).WithData(fmt.Sprintf("%s line %d", chip, offset))
	}

	return &Button{line: line}, nil
}

// Close releases the line. Pending events are dropped.
func (b *Button) Close() error {
	if b.line == nil {
		return nil
	}
	if err := b.line.Close(); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err).WithData("close button line")
	}
	b.line = nil
	return nil
}
