package logger_test

import (
	"bytes"
	"fmt"
	"testing"

	"codeberg.org/mutker/templogger/internal/errors"
	"codeberg.org/mutker/templogger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DebugLevel,
		"info":    logger.InfoLevel,
		"warning": logger.WarnLevel,
		"warn":    logger.WarnLevel,
		"error":   logger.ErrorLevel,
	}
	for name, want := range tests {
		got, err := logger.ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestWithAddsField(t *testing.T) {
	logger.SetLogLevel(logger.DebugLevel)
	defer logger.SetLogLevel(logger.WarnLevel)

	var buf bytes.Buffer
	log := logger.New(&buf).With("session_id", "abc")
	log.Info().Int("cursor", 4).Msg("record stored")

	out := buf.String()
	assert.Contains(t, out, `"session_id":"abc"`)
	assert.Contains(t, out, `"cursor":4`)
	assert.Contains(t, out, `"message":"record stored"`)
}

func TestErrorWithCode(t *testing.T) {
	logger.SetLogLevel(logger.DebugLevel)
	defer logger.SetLogLevel(logger.WarnLevel)

	var buf bytes.Buffer
	log := logger.New(&buf)
	err := errors.New().Wrap(errors.ErrStoreIO, fmt.Errorf("nack"))
	log.ErrorWithCode(err).Msg("append failed")

	assert.Contains(t, buf.String(), `"error_code":"store_io_failed"`)
	assert.Contains(t, buf.String(), `"error":"nack"`)
}

func TestGlobalLevelFilters(t *testing.T) {
	logger.SetLogLevel(logger.WarnLevel)

	var buf bytes.Buffer
	log := logger.New(&buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNopDiscards(t *testing.T) {
	log := logger.Nop()
	assert.NotPanics(t, func() {
		log.Error().Msg("nothing")
		log.With("k", "v").Debug().Msg("nothing")
	})
}
