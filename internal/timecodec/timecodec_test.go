package timecodec_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
	"codeberg.org/mutker/templogger/internal/timecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToSeconds(t *testing.T) {
	assert.Equal(t, 45296, timecodec.TimeToSeconds(12, 34, 56))
	assert.Equal(t, 0, timecodec.TimeToSeconds(0, 0, 0))
	assert.Equal(t, 86399, timecodec.TimeToSeconds(23, 59, 59))
	// Components are not validated.
	assert.Equal(t, 3600+60*61, timecodec.TimeToSeconds(1, 61, 0))
}

func TestSecondsToTime(t *testing.T) {
	h, m, s := timecodec.SecondsToTime(3725)
	assert.Equal(t, []int{1, 2, 5}, []int{h, m, s})

	h, m, s = timecodec.SecondsToTime(90000)
	assert.Equal(t, []int{1, 0, 0}, []int{h, m, s}, "hours wrap at 24")
}

func TestRoundTrip(t *testing.T) {
	for _, total := range []int{0, 1, 59, 60, 3599, 3600, 45296, 86399} {
		h, m, s := timecodec.SecondsToTime(total)
		assert.Equal(t, total, timecodec.TimeToSeconds(h, m, s), "total %d", total)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "01:02:05", timecodec.FormatHHMMSS(1, 2, 5))
	assert.Equal(t, "00:00:07", timecodec.FormatSeconds(7))
	assert.Equal(t, "23:59:59", timecodec.FormatSeconds(86399))
}

func TestSecondsOfDay(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 34, 56, 999, time.Local)
	assert.Equal(t, 45296, timecodec.SecondsOfDay(at))
}

func TestBE32(t *testing.T) {
	b := timecodec.EncodeBE32(0x01020304)
	assert.Equal(t, [4]byte{1, 2, 3, 4}, b)
	assert.Equal(t, uint32(0x01020304), timecodec.DecodeBE32(b[:]))

	for _, n := range []uint32{0, 1, 255, 256, 86399, 0xFFFFFFFF} {
		enc := timecodec.EncodeBE32(n)
		assert.Equal(t, n, timecodec.DecodeBE32(enc[:]))
	}
}

func TestEncodeInt(t *testing.T) {
	b, err := timecodec.EncodeInt(300)
	require.NoError(t, err)
	assert.Equal(t, [4]byte{0, 0, 1, 44}, b)

	_, err = timecodec.EncodeInt(-1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrValueRange))

	var over int64 = 1 << 32
	if int64(int(over)) == over {
		_, err = timecodec.EncodeInt(int(over))
		assert.True(t, errors.HasCode(err, errors.ErrValueRange))
	}
}
