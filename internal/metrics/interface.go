package metrics

import (
	"context"
	"time"
)

// MetricsCollector defines the core domain interface
type MetricsCollector interface {
	Record(ctx context.Context, snapshot *MetricsSnapshot) error
	Close() error
}

// Repository defines the interface for metrics data storage
type MetricsRepository interface {
	Record(snapshot *MetricsSnapshot) error
	Close() error
}

// MetricsSnapshot is the state of one sampling tick.
type MetricsSnapshot struct {
	Timestamp time.Time
	SessionID string
	Reading   ReadingMetrics
	Store     StoreMetrics
}

// Domain value objects
type ReadingMetrics struct {
	Voltage        float64
	TemperatureRaw float64
	Temperature    int
	Subzero        bool
}

type StoreMetrics struct {
	Cursor int
}
