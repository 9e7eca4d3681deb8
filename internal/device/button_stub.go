//go:build !linux

package device

import "codeberg.org/mutker/templogger/internal/errors"

// Button is not available on non-Linux platforms.
type Button struct{}

// NewButton returns an error on non-Linux platforms.
func NewButton(_ string, _ int, _ func()) (*Button, error) {
	return nil, errors.New().WithMessage(errors.ErrEdgeSource, "gpio: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (b *Button) Close() error {
	return nil
}
