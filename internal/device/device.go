// Package device adapts the logger hardware to the interfaces used by the
// sampling and storage code: an MCP3008 ADC on SPI as the analog source,
// a 24Cxx EEPROM on I2C as the byte store and a GPIO push button as the
// edge source. In-memory doubles are provided for tests.
package device

import (
	"codeberg.org/mutker/templogger/internal/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Host holds the buses opened on the local board.
type Host struct {
	SPI spi.PortCloser
	I2C i2c.BusCloser
}

// OpenHost initializes periph drivers and opens the named SPI port and
// I2C bus. Empty names select the first available one.
func OpenHost(spiPort, i2cBus string) (*Host, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.New().Wrap(errors.ErrInitFailed, err).WithData("periph host")
	}

	p, err := spireg.Open(spiPort)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrDeviceFault, err).WithData("open spi port")
	}

	b, err := i2creg.Open(i2cBus)
	if err != nil {
		p.Close()
		return nil, errors.New().Wrap(errors.ErrDeviceFault, err).WithData("open i2c bus")
	}

	return &Host{SPI: p, I2C: b}, nil
}

// Close releases both buses.
func (h *Host) Close() error {
	var first error
	if h.I2C != nil {
		if err := h.I2C.Close(); err != nil {
			first = errors.New().Wrap(errors.ErrShutdownFailed, err).WithData("close i2c bus")
		}
	}
	if h.SPI != nil {
		if err := h.SPI.Close(); err != nil && first == nil {
			first = errors.New().Wrap(errors.ErrShutdownFailed, err).WithData("close spi port")
		}
	}
	return first
}
