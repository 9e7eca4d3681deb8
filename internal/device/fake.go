package device

import (
	"fmt"
	"sync"

	"codeberg.org/mutker/templogger/internal/errors"
)

// MemoryStore is an in-memory byte store.
type MemoryStore struct {
	mu     sync.Mutex
	data   []byte
	writes int

	// WriteError, if set, is returned by WriteBlock and Clear.
	WriteError error
	// ReadError, if set, is returned by ReadBlock.
	ReadError error
}

// NewMemoryStore returns a zeroed store of size bytes.
func NewMemoryStore(size int) *MemoryStore {
	return &MemoryStore{data: make([]byte, size)}
}

func (m *MemoryStore) bounds(addr, n int) error {
	if addr < 0 || addr+n > len(m.data) {
		return errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("range [%d,%d) outside %d bytes", addr, addr+n, len(m.data)))
	}
	return nil
}

func (m *MemoryStore) ReadBlock(addr int, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReadError != nil {
		return m.ReadError
	}
	if err := m.bounds(addr, len(buf)); err != nil {
		return err
	}
	copy(buf, m.data[addr:])
	return nil
}

func (m *MemoryStore) WriteBlock(addr int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteError != nil {
		return m.WriteError
	}
	if err := m.bounds(addr, len(data)); err != nil {
		return err
	}
	copy(m.data[addr:], data)
	m.writes++
	return nil
}

func (m *MemoryStore) Clear(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteError != nil {
		return m.WriteError
	}
	if err := m.bounds(0, n); err != nil {
		return err
	}
	clear(m.data[:n])
	m.writes++
	return nil
}

// Bytes returns a copy of the store contents.
func (m *MemoryStore) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]byte(nil), m.data...)
}

// Poke sets a single byte, bypassing the write counter.
func (m *MemoryStore) Poke(addr int, b byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[addr] = b
}

// Writes returns the number of successful write operations.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

// FakeAnalog is a test double that returns scripted voltages.
type FakeAnalog struct {
	mu sync.Mutex

	// Voltages contains scripted readings. Each call to ReadVoltage
	// consumes the next one; the last is repeated once exhausted.
	Voltages []float64
	index    int
	reads    int

	// ReadError, if set, will be returned by ReadVoltage.
	ReadError error
}

// NewFakeAnalog creates a FakeAnalog with the given voltages.
func NewFakeAnalog(voltages ...float64) *FakeAnalog {
	return &FakeAnalog{Voltages: voltages}
}

func (f *FakeAnalog) ReadVoltage() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Voltages) == 0 {
		return 0, errors.New().WithMessage(errors.ErrAnalogRead, "no voltages configured")
	}

	v := f.Voltages[f.index]
	if f.index < len(f.Voltages)-1 {
		f.index++
	}
	return v, nil
}

// Reads returns how many times ReadVoltage was called.
func (f *FakeAnalog) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.reads
}

// SetError changes the error returned by subsequent reads.
func (f *FakeAnalog) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ReadError = err
}
