package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig      ErrorCode = "invalid_configuration"
	ErrReadConfig         ErrorCode = "read_config_failed"
	ErrBindFlags          ErrorCode = "bind_flags_failed"
	ErrInvalidInterval    ErrorCode = "invalid_interval"
	ErrInvalidCalibration ErrorCode = "invalid_calibration"
	ErrInvalidCapacity    ErrorCode = "invalid_capacity"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Device errors
	ErrDeviceFault ErrorCode = "device_fault"
	ErrAnalogRead  ErrorCode = "analog_read_failed"
	ErrStoreIO     ErrorCode = "store_io_failed"
	ErrEdgeSource  ErrorCode = "edge_source_failed"

	// Log store errors
	ErrCorruptCursor ErrorCode = "corrupt_cursor"
	ErrValueRange    ErrorCode = "value_out_of_range"

	// Session errors
	ErrTickFailed  ErrorCode = "tick_failed"
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrEventQueue  ErrorCode = "event_queue_full"
	ErrLoopStopped ErrorCode = "loop_stopped"

	// Operation errors
	ErrTimeout ErrorCode = "operation_timeout"

	// Metrics errors
	ErrInitMetrics    ErrorCode = "init_metrics_failed"
	ErrCollectMetrics ErrorCode = "collect_metrics_failed"
	ErrCloseMetrics   ErrorCode = "close_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrAlreadyRunning:     "Another instance is already running",
	ErrInvalidConfig:      "Invalid configuration",
	ErrReadConfig:         "Failed to read configuration",
	ErrBindFlags:          "Failed to bind flags",
	ErrInvalidInterval:    "Invalid interval value",
	ErrInvalidCalibration: "Invalid sensor calibration",
	ErrInvalidCapacity:    "Invalid log capacity",
	ErrInvalidLogLevel:    "Invalid log level",
	ErrInitFailed:         "Initialization failed",
	ErrShutdownFailed:     "Shutdown failed",
	ErrDeviceFault:        "Device fault",
	ErrAnalogRead:         "Failed to read analog source",
	ErrStoreIO:            "Failed to access log store",
	ErrEdgeSource:         "Failed to register button edge handler",
	ErrCorruptCursor:      "Log cursor out of range",
	ErrValueRange:         "Value does not fit in a store slot",
	ErrTickFailed:         "Sampling tick failed",
	ErrMainLoop:           "Error in main loop",
	ErrEventQueue:         "Session event queue is full",
	ErrLoopStopped:        "Session loop is not running",
	ErrTimeout:            "Operation timed out",
	ErrInitMetrics:        "Failed to initialize metrics",
	ErrCollectMetrics:     "Failed to collect metrics data",
	ErrCloseMetrics:       "Failed to close metrics connection",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}

// IsDeviceFault reports whether err carries one of the device fault codes.
func IsDeviceFault(err error) bool {
	for err != nil {
		if e, ok := err.(Error); ok {
			switch e.Code() {
			case ErrDeviceFault, ErrAnalogRead, ErrStoreIO:
				return true
			}
		}
		err = Unwrap(err)
	}

	return false
}
