package metrics

import (
	"path/filepath"

	"codeberg.org/mutker/templogger/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/templogger/metrics.db"
	defaultBatchSize    = 10
	defaultBatchTimeout = 30
)

type Config struct {
	DBPath          string
	BatchSize       int
	BatchTimeout    int // seconds
	BackupOnMigrate bool
	Enabled         bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:          defaultDBPath,
		BatchSize:       defaultBatchSize,
		BatchTimeout:    defaultBatchTimeout,
		BackupOnMigrate: true,
		Enabled:         false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate when metrics is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize <= 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize    int
			BatchTimeout int
		}{c.BatchSize, c.BatchTimeout})
	}
	return nil
}

// backupDir keeps schema backups next to the database.
func (c Config) backupDir() string {
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
