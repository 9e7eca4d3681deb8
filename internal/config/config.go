package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigPath      = "/etc/templogger.toml"
	DefaultEnvPrefix       = "TEMPLOGGER"
	DefaultInterval        = 5.0
	DefaultTc              = 0.01
	DefaultV0              = 0.5
	DefaultCapacityRecords = 19
	DefaultDebounceMS      = 200
	MinDebounceMS          = 200
	DefaultLogLevel        = LogLevelWarning
	DefaultMetricsDBPath   = "/var/lib/templogger/metrics.db"

	// The cursor is persisted as a single byte and must be able to hold
	// the one-past-the-end value 3*capacity + 1.
	MaxCapacityRecords = 84
)

type DeviceConfig struct {
	SPIPort        string  `mapstructure:"spi_port"`
	ADCChannel     int     `mapstructure:"adc_channel"`
	ADCVref        float64 `mapstructure:"adc_vref"`
	I2CBus         string  `mapstructure:"i2c_bus"`
	EEPROMAddr     int     `mapstructure:"eeprom_addr"`
	EEPROMPageSize int     `mapstructure:"eeprom_page_size"`
	GPIOChip       string  `mapstructure:"gpio_chip"`
	ButtonLine     int     `mapstructure:"button_line"`
}

type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

type Config struct {
	Interval        float64       `mapstructure:"interval"`
	Tc              float64       `mapstructure:"tc"`
	V0              float64       `mapstructure:"v0"`
	CapacityRecords int           `mapstructure:"capacity_records"`
	DebounceMS      int           `mapstructure:"debounce_ms"`
	LogLevel        LogLevel      `mapstructure:"log_level"`
	Device          DeviceConfig  `mapstructure:"device"`
	Metrics         MetricsConfig `mapstructure:"metrics"`

	// Operational flags, never read from file or environment.
	Clear bool `mapstructure:"-"`
	Dump  bool `mapstructure:"-"`
}

// Flags holds the operational command line flags.
type Flags struct {
	ConfigPath string
	LogLevel   string
	Clear      bool
	Dump       bool

	set *pflag.FlagSet
}

// ParseFlags parses args (without the program name). pflag.ErrHelp is
// returned unwrapped so callers can exit cleanly.
func ParseFlags(name string, args []string) (*Flags, error) {
	f := &Flags{}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Path to configuration file")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warning, error)")
	fs.BoolVar(&f.Clear, "clear", false, "Zero the stored log before starting")
	fs.BoolVar(&f.Dump, "dump", false, "Print stored records and exit")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, err
		}
		return nil, errors.New().Wrap(errors.ErrInvalidArgument, err)
	}
	f.set = fs

	return f, nil
}

// Load reads configuration from defaults, the TOML file, the environment
// and flags, in increasing order of precedence, and validates the result.
func Load(opts ...Option) (*Config, error) {
	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errors.New().Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.flags != nil && o.flags.set != nil {
		if err := v.BindPFlag("log_level", o.flags.set.Lookup("log-level")); err != nil {
			return nil, errors.New().Wrap(errors.ErrBindFlags, err)
		}
	}

	if err := readConfigFile(v, o); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New().Wrap(errors.ErrInvalidConfig, err)
	}

	if o.flags != nil {
		cfg.Clear = o.flags.Clear
		cfg.Dump = o.flags.Dump
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("tc", DefaultTc)
	v.SetDefault("v0", DefaultV0)
	v.SetDefault("capacity_records", DefaultCapacityRecords)
	v.SetDefault("debounce_ms", DefaultDebounceMS)
	v.SetDefault("log_level", string(DefaultLogLevel))

	v.SetDefault("device.spi_port", "")
	v.SetDefault("device.adc_channel", 0)
	v.SetDefault("device.adc_vref", 3.3)
	v.SetDefault("device.i2c_bus", "")
	v.SetDefault("device.eeprom_addr", 0x50)
	v.SetDefault("device.eeprom_page_size", 32)
	v.SetDefault("device.gpio_chip", "gpiochip0")
	v.SetDefault("device.button_line", 23)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.db_path", DefaultMetricsDBPath)
	v.SetDefault("metrics.batch_size", 10)
	v.SetDefault("metrics.batch_timeout", 30)
}

// readConfigFile resolves the file path from the --config flag, then
// <PREFIX>_CONFIG, then the default location. Only an explicitly named
// file is required to exist.
func readConfigFile(v *viper.Viper, o *options) error {
	path := o.configPath
	if o.flags != nil && o.flags.ConfigPath != "" {
		path = o.flags.ConfigPath
	}

	explicit := path != ""
	if !explicit {
		if env, ok := os.LookupEnv(o.envPrefix + "_CONFIG"); ok {
			if env == "" {
				return nil
			}
			path, explicit = env, true
		} else {
			path = DefaultConfigPath
		}
	}

	if !explicit {
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errors.New().Wrap(errors.ErrReadConfig, err).WithData(path)
	}

	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Interval <= 0 || math.IsNaN(c.Interval) || math.IsInf(c.Interval, 0) {
		return errors.New().WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Tc == 0 || math.IsNaN(c.Tc) || math.IsNaN(c.V0) {
		return errors.New().WithData(errors.ErrInvalidCalibration, c.Tc)
	}
	if c.CapacityRecords < 1 || c.CapacityRecords > MaxCapacityRecords {
		return errors.New().WithData(errors.ErrInvalidCapacity, c.CapacityRecords)
	}
	if c.DebounceMS < MinDebounceMS {
		return errors.New().WithData(errors.ErrInvalidConfig, fmt.Sprintf("debounce_ms %d below %d", c.DebounceMS, MinDebounceMS))
	}
	if !c.LogLevel.IsValid() {
		return errors.New().WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Device.ADCChannel < 0 || c.Device.ADCChannel > 7 {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "device.adc_channel must be 0-7")
	}
	if c.Device.ADCVref <= 0 {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "device.adc_vref must be positive")
	}
	if c.Device.EEPROMPageSize <= 0 {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "device.eeprom_page_size must be positive")
	}
	if c.Metrics.Enabled && (c.Metrics.BatchSize <= 0 || c.Metrics.BatchTimeout <= 0) {
		return errors.New().WithMessage(errors.ErrInvalidConfig, "metrics batch settings must be positive")
	}

	return nil
}

// IntervalDuration returns the sampling interval as a time.Duration.
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// Debounce returns the debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
