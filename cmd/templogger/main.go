package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/templogger/internal/config"
	"codeberg.org/mutker/templogger/internal/device"
	"codeberg.org/mutker/templogger/internal/display"
	"codeberg.org/mutker/templogger/internal/errors"
	"codeberg.org/mutker/templogger/internal/logger"
	"codeberg.org/mutker/templogger/internal/metrics"
	"codeberg.org/mutker/templogger/internal/pid"
	"codeberg.org/mutker/templogger/internal/ringstore"
	"codeberg.org/mutker/templogger/internal/sampler"
	"codeberg.org/mutker/templogger/internal/session"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags, err := config.ParseFlags("templogger", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse flags: %v\n", err)
		return 2
	}

	cfg, err := config.Load(config.WithFlags(flags))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	level, err := logger.ParseLevel(cfg.LogLevel.String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.Error().Err(err).Str("pid_file", pid.Path()).Msg("failed to acquire PID file")
		return 1
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	hw, err := device.OpenHost(cfg.Device.SPIPort, cfg.Device.I2CBus)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize hardware")
		return 1
	}
	defer closeWithLog(hw.Close, "failed to release buses")

	eeprom, err := device.NewEEPROM(hw.I2C, uint16(cfg.Device.EEPROMAddr), cfg.Device.EEPROMPageSize)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize EEPROM")
		return 1
	}

	store, err := ringstore.New(eeprom, cfg.CapacityRecords, logger.Default().With("component", "ringstore"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize log store")
		return 1
	}

	out := display.New(os.Stdout)

	if cfg.Dump {
		if err := dump(store, out); err != nil {
			logger.Error().Err(err).Msg("failed to read stored records")
			return 1
		}
		return 0
	}

	if cfg.Clear {
		if err := store.Clear(); err != nil {
			logger.Error().Err(err).Msg("failed to clear log store")
			return 1
		}
		logger.Info().Int("bytes", store.Size()).Msg("Log store cleared")
	}

	adc, err := device.NewMCP3008(hw.SPI, cfg.Device.ADCChannel, device.Volts(cfg.Device.ADCVref))
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize ADC")
		return 1
	}

	engine, err := sampler.New(adc, sampler.Calibration{V0: cfg.V0, Tc: cfg.Tc})
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize sampler")
		return 1
	}

	collector, err := metrics.NewService(metrics.Config{
		DBPath:          cfg.Metrics.DBPath,
		BatchSize:       cfg.Metrics.BatchSize,
		BatchTimeout:    cfg.Metrics.BatchTimeout,
		BackupOnMigrate: true,
		Enabled:         cfg.Metrics.Enabled,
	}, logger.Default().With("component", "metrics"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize metrics")
		return 1
	}
	defer closeWithLog(collector.Close, "failed to close metrics")

	machine, err := session.New(session.Config{
		Interval: cfg.IntervalDuration(),
		Debounce: cfg.Debounce(),
		Sampler:  engine,
		Store:    store,
		Display:  out,
		Metrics:  collector,
		Logger:   logger.Default().With("component", "session"),
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize session")
		return 1
	}

	button, err := device.NewButton(cfg.Device.GPIOChip, cfg.Device.ButtonLine, machine.Press)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize button")
		return 1
	}
	defer closeWithLog(button.Close, "failed to release button")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel, machine)

	logger.Info().
		Str("device", fmt.Sprint(adc)).
		Str("store", fmt.Sprint(eeprom)).
		Int("capacity_records", store.Capacity()).
		Dur("interval", cfg.IntervalDuration()).
		Msg("Waiting for button press to start logging")

	if err := machine.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger.Info().Msg("Exiting...")
	return 0
}

// handleSignals cancels ctx on SIGINT or SIGTERM. SIGUSR1 toggles logging
// like a button press without the debounce window.
func handleSignals(ctx context.Context, cancel context.CancelFunc, machine *session.Machine) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if sig == syscall.SIGUSR1 {
				machine.Toggle()
				continue
			}
			logger.Info().Msg("Received termination signal.")
			cancel()
			return
		}
	}
}

func dump(store *ringstore.Store, out *display.Display) error {
	records, err := store.Records()
	if err != nil {
		return err
	}

	out.Header()
	for _, rec := range records {
		out.Record(rec)
	}
	return nil
}

func closeWithLog(closer func() error, msg string) {
	if err := closer(); err != nil {
		logger.Error().Err(err).Msg(msg)
	}
}
