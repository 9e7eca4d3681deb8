package device

import "time"

const (
	DefaultGPIOChip   = "gpiochip0"
	DefaultButtonLine = 23
	// Kernel glitch filter applied on the line. The accept window between
	// presses is enforced by the session debouncer.
	LineDebounce = 5 * time.Millisecond
)

