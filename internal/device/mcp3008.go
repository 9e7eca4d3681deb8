package device

import (
	"fmt"

	"codeberg.org/mutker/templogger/internal/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// MCP3008 is rated at 1.35MHz with a 2.7V supply.
	MCP3008Frequency = 1350 * physic.KiloHertz
	mcp3008Channels  = 8
	mcp3008Counts    = 1024
)

// MCP3008 reads one single-ended channel of a 10-bit MCP3008 ADC.
type MCP3008 struct {
	conn    spi.Conn
	channel int
	vref    physic.ElectricPotential
}

// NewMCP3008 connects to the ADC on p.
func NewMCP3008(p spi.Port, channel int, vref physic.ElectricPotential) (*MCP3008, error) {
	if channel < 0 || channel >= mcp3008Channels {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("adc channel %d", channel))
	}
	if vref <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("adc vref %s", vref))
	}

	c, err := p.Connect(MCP3008Frequency, spi.Mode0, 8)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrDeviceFault, err).WithData("connect mcp3008")
	}

	return &MCP3008{conn: c, channel: channel, vref: vref}, nil
}

// Volts converts a float voltage to a physic value.
func Volts(v float64) physic.ElectricPotential {
	return physic.ElectricPotential(v * float64(physic.Volt))
}

// ReadCount returns the raw 10-bit conversion result.
func (m *MCP3008) ReadCount() (int, error) {
	// Start bit, single-ended mode with channel select, then clock out the result.
	w := []byte{0x01, byte(0x80 | m.channel<<4), 0x00}
	r := make([]byte, len(w))
	if err := m.conn.Tx(w, r); err != nil {
		return 0, errors.New().Wrap(errors.ErrDeviceFault, err).WithData("mcp3008 transfer")
	}

	return int(r[1]&0x03)<<8 | int(r[2]), nil
}

// ReadVoltage returns the channel voltage in volts.
func (m *MCP3008) ReadVoltage() (float64, error) {
	count, err := m.ReadCount()
	if err != nil {
		return 0, err
	}

	v := physic.ElectricPotential(int64(m.vref) * int64(count) / mcp3008Counts)
	return float64(v) / float64(physic.Volt), nil
}

func (m *MCP3008) String() string {
	return fmt.Sprintf("MCP3008{channel:%d, vref:%s}", m.channel, m.vref)
}
