package logger

import (
	"io"
	"os"
	"syscall"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
	"github.com/rs/zerolog"
)

var log = zerologLogger{zl: zerolog.New(os.Stdout).With().Timestamp().Logger()}

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

type zerologLogger struct {
	zl zerolog.Logger
}

// Init initializes the logger based on the given configuration
func Init(level LogLevel, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = zerologLogger{zl: zerolog.New(output).With().Timestamp().Logger()}

	SetLogLevel(level)
}

// New returns a Logger writing JSON lines to w. It does not touch the
// global level, which still applies.
func New(w io.Writer) Logger {
	return zerologLogger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return zerologLogger{zl: zerolog.Nop()}
}

// Default returns the process-wide logger configured by Init.
func Default() Logger {
	return log
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// ParseLevel maps a configured level name to a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch name {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warning", "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return WarnLevel, errors.New().WithData(errors.ErrInvalidLogLevel, name)
	}
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

func (l zerologLogger) Debug() *LogEvent {
	return &LogEvent{l.zl.Debug()}
}

func (l zerologLogger) Info() *LogEvent {
	return &LogEvent{l.zl.Info()}
}

func (l zerologLogger) Warn() *LogEvent {
	return &LogEvent{l.zl.Warn()}
}

func (l zerologLogger) Error() *LogEvent {
	return &LogEvent{l.zl.Error()}
}

func (l zerologLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{l.zl.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

func (l zerologLogger) With(key, value string) Logger {
	return zerologLogger{zl: l.zl.With().Str(key, value).Logger()}
}

// Debug logs a debug message
func Debug() *LogEvent {
	return log.Debug()
}

// Info logs an info message
func Info() *LogEvent {
	return log.Info()
}

// Warn logs a warning message
func Warn() *LogEvent {
	return log.Warn()
}

// Error logs an error message
func Error() *LogEvent {
	return log.Error()
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return log.ErrorWithCode(err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.zl.Fatal()}
}
