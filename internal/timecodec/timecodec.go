// Package timecodec converts between clock times and second counts and
// encodes the 32-bit big-endian fields stored in the log.
package timecodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
)

// FieldWidth is the size in bytes of one encoded field.
const FieldWidth = 4

// TimeToSeconds returns 3600h + 60m + s. Inputs are not range checked, so
// out-of-range components still produce a number.
func TimeToSeconds(h, m, s int) int {
	return h*3600 + m*60 + s
}

// SecondsToTime splits total into hours, minutes and seconds. Hours wrap
// at 24.
func SecondsToTime(total int) (h, m, s int) {
	return (total / 3600) % 24, (total / 60) % 60, total % 60
}

// SecondsOfDay returns the wall clock time of t as seconds since local
// midnight.
func SecondsOfDay(t time.Time) int {
	return TimeToSeconds(t.Hour(), t.Minute(), t.Second())
}

// FormatHHMMSS renders a zero padded hh:mm:ss string.
func FormatHHMMSS(h, m, s int) string {
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatSeconds is FormatHHMMSS applied to SecondsToTime(total).
func FormatSeconds(total int) string {
	return FormatHHMMSS(SecondsToTime(total))
}

// EncodeBE32 returns n as four bytes, most significant first.
func EncodeBE32(n uint32) [FieldWidth]byte {
	var b [FieldWidth]byte
	binary.BigEndian.PutUint32(b[:], n)
	return b
}

// DecodeBE32 reads the first four bytes of b as a big-endian integer.
// Callers must pass at least four bytes.
func DecodeBE32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b[:FieldWidth])
}

// EncodeInt encodes n, which must lie in [0, 2^32-1].
func EncodeInt(n int) ([FieldWidth]byte, error) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return [FieldWidth]byte{}, errors.New().WithData(errors.ErrValueRange, n)
	}
	return EncodeBE32(uint32(n)), nil
}
