package main

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/templogger/internal/device"
	"codeberg.org/mutker/templogger/internal/display"
	"codeberg.org/mutker/templogger/internal/logger"
	"codeberg.org/mutker/templogger/internal/ringstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	store, err := ringstore.New(device.NewMemoryStore(ringstore.Size(2)), 2, logger.Nop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.Append(ringstore.LogRecord{TimeOfDay: 3600 + i, Elapsed: 5 * i, Temperature: 20 + i})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, dump(store, display.New(&buf)))
	assert.Equal(t, "Time\tSys Timer\tTemp\n"+
		"01:00:01\t00:00:05\t21 C\n"+
		"01:00:02\t00:00:10\t22 C\n", buf.String())
}
