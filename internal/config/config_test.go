package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/templogger/internal/config"
	"codeberg.org/mutker/templogger/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templogger.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
interval = 2.5
tc = 0.02
v0 = 0.4
capacity_records = 10
debounce_ms = 250
log_level = "debug"

[device]
spi_port = "/dev/spidev0.0"
adc_channel = 3
i2c_bus = "1"
eeprom_addr = 0x51
button_line = 17

[metrics]
enabled = true
db_path = "/tmp/metrics.db"
batch_size = 5
`)
	t.Setenv("TEMPLOGGER_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.InDelta(t, 2.5, cfg.Interval, 1e-9)
	assert.Equal(t, 2500*time.Millisecond, cfg.IntervalDuration())
	assert.InDelta(t, 0.02, cfg.Tc, 1e-9)
	assert.InDelta(t, 0.4, cfg.V0, 1e-9)
	assert.Equal(t, 10, cfg.CapacityRecords)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce())
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "/dev/spidev0.0", cfg.Device.SPIPort)
	assert.Equal(t, 3, cfg.Device.ADCChannel)
	assert.Equal(t, "1", cfg.Device.I2CBus)
	assert.Equal(t, 0x51, cfg.Device.EEPROMAddr)
	assert.Equal(t, 17, cfg.Device.ButtonLine)
	assert.Equal(t, "gpiochip0", cfg.Device.GPIOChip)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/tmp/metrics.db", cfg.Metrics.DBPath)
	assert.Equal(t, 5, cfg.Metrics.BatchSize)
	assert.Equal(t, 30, cfg.Metrics.BatchTimeout)
}

func TestLoadDefaults(t *testing.T) {
	// Ensure no config file is used
	t.Setenv("TEMPLOGGER_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.InDelta(t, config.DefaultInterval, cfg.Interval, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.IntervalDuration())
	assert.InDelta(t, 0.01, cfg.Tc, 1e-9)
	assert.InDelta(t, 0.5, cfg.V0, 1e-9)
	assert.Equal(t, 19, cfg.CapacityRecords)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce())
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, 0x50, cfg.Device.EEPROMAddr)
	assert.Equal(t, 32, cfg.Device.EEPROMPageSize)
	assert.InDelta(t, 3.3, cfg.Device.ADCVref, 1e-9)
	assert.Equal(t, 23, cfg.Device.ButtonLine)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, config.DefaultMetricsDBPath, cfg.Metrics.DBPath)
	assert.False(t, cfg.Clear)
	assert.False(t, cfg.Dump)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("TEMPLOGGER_CONFIG", "")
	t.Setenv("TEMPLOGGER_INTERVAL", "1")
	t.Setenv("TEMPLOGGER_DEVICE_BUTTON_LINE", "5")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.IntervalDuration())
	assert.Equal(t, 5, cfg.Device.ButtonLine)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(config.WithConfigFile(filepath.Join(t.TempDir(), "absent.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"zero interval", "interval = 0", errors.ErrInvalidInterval},
		{"negative interval", "interval = -1", errors.ErrInvalidInterval},
		{"zero tc", "tc = 0.0", errors.ErrInvalidCalibration},
		{"zero capacity", "capacity_records = 0", errors.ErrInvalidCapacity},
		{"capacity beyond cursor byte", "capacity_records = 85", errors.ErrInvalidCapacity},
		{"bad log level", `log_level = "loud"`, errors.ErrInvalidLogLevel},
		{"negative debounce", "debounce_ms = -1", errors.ErrInvalidConfig},
		{"debounce disabled", "debounce_ms = 0", errors.ErrInvalidConfig},
		{"debounce below minimum", "debounce_ms = 199", errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := config.Load(config.WithConfigFile(path))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestFlags(t *testing.T) {
	path := writeConfig(t, `log_level = "info"`)

	flags, err := config.ParseFlags("templogger", []string{"--config", path, "--log-level", "error", "--clear"})
	require.NoError(t, err)

	cfg, err := config.Load(config.WithFlags(flags))
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelError, cfg.LogLevel)
	assert.True(t, cfg.Clear)
	assert.False(t, cfg.Dump)
}

func TestFlagsLogLevelUnsetKeepsFile(t *testing.T) {
	path := writeConfig(t, `log_level = "info"`)

	flags, err := config.ParseFlags("templogger", []string{"-c", path, "--dump"})
	require.NoError(t, err)

	cfg, err := config.Load(config.WithFlags(flags))
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelInfo, cfg.LogLevel)
	assert.True(t, cfg.Dump)
}

func TestParseFlagsErrors(t *testing.T) {
	_, err := config.ParseFlags("templogger", []string{"--interval", "3"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = config.ParseFlags("templogger", []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestLoadRejectsShortDebounceFromEnvironment(t *testing.T) {
	t.Setenv("TEMPLOGGER_CONFIG", "")
	t.Setenv("TEMPLOGGER_DEBOUNCE_MS", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestLoadAcceptsMinimumDebounce(t *testing.T) {
	t.Setenv("TEMPLOGGER_CONFIG", "")
	t.Setenv("TEMPLOGGER_DEBOUNCE_MS", "200")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce())
}
