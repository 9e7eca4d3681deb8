package device

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/templogger/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore(16)

	require.NoError(t, m.WriteBlock(4, []byte{1, 2, 3}))
	buf := make([]byte, 4)
	require.NoError(t, m.ReadBlock(3, buf))
	assert.Equal(t, []byte{0, 1, 2, 3}, buf)
	assert.Equal(t, 1, m.Writes())

	require.NoError(t, m.Clear(16))
	assert.Equal(t, make([]byte, 16), m.Bytes())

	err := m.WriteBlock(15, []byte{1, 2})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	m.WriteError = fmt.Errorf("stuck")
	assert.EqualError(t, m.WriteBlock(0, []byte{1}), "stuck")
}

func TestFakeAnalog(t *testing.T) {
	f := NewFakeAnalog(0.5, 0.3)

	v, err := f.ReadVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)

	for i := 0; i < 2; i++ {
		v, err = f.ReadVoltage()
		require.NoError(t, err)
		assert.InDelta(t, 0.3, v, 1e-9, "last voltage repeats")
	}
	assert.Equal(t, 3, f.Reads())

	f.SetError(fmt.Errorf("open circuit"))
	_, err = f.ReadVoltage()
	assert.EqualError(t, err, "open circuit")

	_, err = NewFakeAnalog().ReadVoltage()
	assert.True(t, errors.HasCode(err, errors.ErrAnalogRead))
}
