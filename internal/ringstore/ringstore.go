// Package ringstore keeps a bounded ring of log records in a small
// byte-addressable persistent store.
//
// Layout, in 4-byte slots: slot 0 holds the write cursor in its first
// byte, slots 1..CapacitySlots hold records as three consecutive
// big-endian fields (time of day, elapsed seconds, temperature). The
// cursor names the slot where the next record starts. No cursor is cached
// in memory; every append recovers it from the device.
package ringstore

import (
	"sync"

	"codeberg.org/mutker/templogger/internal/errors"
	"codeberg.org/mutker/templogger/internal/logger"
	"codeberg.org/mutker/templogger/internal/timecodec"
)

const (
	SlotWidth   = timecodec.FieldWidth
	RecordSlots = 3
	RecordSize  = RecordSlots * SlotWidth
	FirstSlot   = 1

	cursorAddr = 0
)

// ByteStore is a byte-addressable persistent store.
type ByteStore interface {
	ReadBlock(addr int, buf []byte) error
	WriteBlock(addr int, data []byte) error
	// Clear zeroes the first n bytes.
	Clear(n int) error
}

// LogRecord is one persisted reading. Subzero is not stored.
type LogRecord struct {
	TimeOfDay   int
	Elapsed     int
	Temperature int
	Subzero     bool
}

type Store struct {
	mu       sync.Mutex
	dev      ByteStore
	capacity int
	log      logger.Logger
}

// New returns a Store holding up to capacityRecords records on dev.
func New(dev ByteStore, capacityRecords int, log logger.Logger) (*Store, error) {
	if dev == nil {
		return nil, errors.New().WithMessage(errors.ErrInvalidArgument, "nil byte store")
	}
	if capacityRecords < 1 || capacityRecords*RecordSlots+1 > 0xFF {
		return nil, errors.New().WithData(errors.ErrInvalidCapacity, capacityRecords)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Store{dev: dev, capacity: capacityRecords, log: log}, nil
}

// Size returns the number of bytes the ring occupies for capacityRecords.
func Size(capacityRecords int) int {
	return (capacityRecords + 1) * RecordSlots * SlotWidth
}

func (s *Store) Size() int {
	return Size(s.capacity)
}

func (s *Store) Capacity() int {
	return s.capacity
}

// CapacitySlots is the number of data slots.
func (s *Store) CapacitySlots() int {
	return s.capacity * RecordSlots
}

// MaxCursor is the last slot a record may start at.
func (s *Store) MaxCursor() int {
	return s.CapacitySlots() - 2
}

// Append writes rec at the cursor and advances the cursor by one record.
// It returns the cursor value persisted after the write.
func (s *Store) Append(rec LogRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor, err := s.readCursor()
	if err != nil {
		return 0, err
	}
	cursor = s.normalize(cursor)

	block := make([]byte, 0, RecordSize)
	for _, v := range []int{rec.TimeOfDay, rec.Elapsed, rec.Temperature} {
		field, err := timecodec.EncodeInt(v)
		if err != nil {
			return 0, err
		}
		block = append(block, field[:]...)
	}

	if err := s.dev.WriteBlock(cursor*SlotWidth, block); err != nil {
		return 0, errors.New().Wrap(errors.ErrStoreIO, err).WithData("write record")
	}

	next := cursor + RecordSlots
	if err := s.dev.WriteBlock(cursorAddr, []byte{byte(next)}); err != nil {
		return 0, errors.New().Wrap(errors.ErrStoreIO, err).WithData("write cursor")
	}

	return next, nil
}

// normalize maps an out-of-range cursor back to the first slot.
func (s *Store) normalize(cursor int) int {
	if cursor >= FirstSlot && cursor <= s.MaxCursor() {
		return cursor
	}

	switch cursor {
	case 0:
		s.log.Debug().Msg("Empty log store, starting at first slot")
	case s.CapacitySlots() + 1:
		s.log.Debug().Msg("Log store full, wrapping to first slot")
	default:
		s.log.ErrorWithCode(errors.New().WithData(errors.ErrCorruptCursor, cursor)).
			Msg("Recovered corrupt cursor")
	}

	return FirstSlot
}

func (s *Store) readCursor() (int, error) {
	var b [1]byte
	if err := s.dev.ReadBlock(cursorAddr, b[:]); err != nil {
		return 0, errors.New().Wrap(errors.ErrStoreIO, err).WithData("read cursor")
	}
	return int(b[0]), nil
}

// Cursor returns the raw persisted cursor byte.
func (s *Store) Cursor() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readCursor()
}

// Clear zeroes the whole ring, cursor included.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dev.Clear(s.Size()); err != nil {
		return errors.New().Wrap(errors.ErrStoreIO, err).WithData("clear")
	}
	return nil
}

// Records reads back every stored record, oldest first. Slots below a
// valid cursor were written this lap and are returned as stored, even when
// all three fields are zero. Slots at or past the cursor only hold data
// from a previous lap, so they count as written only when some field is
// non-zero. A full ring (cursor past the last slot) returns every slot.
func (s *Store) Records() ([]LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor, err := s.readCursor()
	if err != nil {
		return nil, err
	}
	full := cursor == s.CapacitySlots()+1
	if cursor < FirstSlot || cursor > s.MaxCursor() {
		// Blank, full or corrupt: no slot is known to be this lap's.
		cursor = FirstSlot
	}

	buf := make([]byte, s.CapacitySlots()*SlotWidth)
	if err := s.dev.ReadBlock(FirstSlot*SlotWidth, buf); err != nil {
		return nil, errors.New().Wrap(errors.ErrStoreIO, err).WithData("read records")
	}

	all := make([]LogRecord, 0, s.capacity)
	for slot := FirstSlot; slot <= s.MaxCursor(); slot += RecordSlots {
		off := (slot - FirstSlot) * SlotWidth
		rec := LogRecord{
			TimeOfDay:   int(timecodec.DecodeBE32(buf[off:])),
			Elapsed:     int(timecodec.DecodeBE32(buf[off+SlotWidth:])),
			Temperature: int(timecodec.DecodeBE32(buf[off+2*SlotWidth:])),
		}
		all = append(all, rec)
	}

	// Records from the cursor onwards belong to the previous lap.
	split := (cursor - FirstSlot) / RecordSlots
	ordered := make([]LogRecord, 0, len(all))
	for i := range all {
		idx := (split + i) % len(all)
		rec := all[idx]
		thisLap := idx < split
		if !full && !thisLap && rec == (LogRecord{}) {
			continue
		}
		ordered = append(ordered, rec)
	}

	return ordered, nil
}
