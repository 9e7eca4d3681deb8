package device

import (
	"fmt"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
	"periph.io/x/conn/v3/i2c"
)

const (
	DefaultEEPROMAddr     = 0x50
	DefaultEEPROMPageSize = 32
	// Maximum self-timed write cycle of 24Cxx parts.
	DefaultWriteCycle = 5 * time.Millisecond
)

// EEPROM is a 24Cxx serial EEPROM with 16-bit memory addressing.
type EEPROM struct {
	d          *i2c.Dev
	pageSize   int
	writeCycle time.Duration
	sleep      func(time.Duration)
}

// NewEEPROM returns an EEPROM at addr on b.
func NewEEPROM(b i2c.Bus, addr uint16, pageSize int) (*EEPROM, error) {
	if pageSize <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("page size %d", pageSize))
	}

	return &EEPROM{
		d:          &i2c.Dev{Bus: b, Addr: addr},
		pageSize:   pageSize,
		writeCycle: DefaultWriteCycle,
		sleep:      time.Sleep,
	}, nil
}

func memAddr(addr int) []byte {
	return []byte{byte(addr >> 8), byte(addr)}
}

// ReadBlock performs a random read of len(buf) bytes starting at addr.
func (e *EEPROM) ReadBlock(addr int, buf []byte) error {
	if addr < 0 || addr > 0xFFFF {
		return errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("address %d", addr))
	}
	if err := e.d.Tx(memAddr(addr), buf); err != nil {
		return errors.New().Wrap(errors.ErrDeviceFault, err).WithData(fmt.Sprintf("eeprom read at %d", addr))
	}
	return nil
}

// WriteBlock writes data starting at addr, split so that no write crosses
// a page boundary, waiting out the write cycle after each page.
func (e *EEPROM) WriteBlock(addr int, data []byte) error {
	if addr < 0 || addr+len(data) > 0x10000 {
		return errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("address %d", addr))
	}

	for len(data) > 0 {
		n := e.pageSize - addr%e.pageSize
		if n > len(data) {
			n = len(data)
		}

		w := append(memAddr(addr), data[:n]...)
		if err := e.d.Tx(w, nil); err != nil {
			return errors.New().Wrap(errors.ErrDeviceFault, err).WithData(fmt.Sprintf("eeprom write at %d", addr))
		}
		e.sleep(e.writeCycle)

		addr += n
		data = data[n:]
	}

	return nil
}

// Clear writes zeros to the first n bytes.
func (e *EEPROM) Clear(n int) error {
	return e.WriteBlock(0, make([]byte, n))
}

func (e *EEPROM) String() string {
	return fmt.Sprintf("EEPROM{%s, page:%d}", e.d, e.pageSize)
}
