package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/templogger/internal/errors"
	"codeberg.org/mutker/templogger/internal/logger"
)

// ownedTables are dropped, children first, when the schema is recreated.
var ownedTables = []string{"ticks", "schema_versions"}

// staleTicks summarizes tick history left behind by another schema version.
type staleTicks struct {
	Rows     int
	Sessions int
	Oldest   int64
	Newest   int64
}

type migrationFailure struct {
	Phase string
	Path  string `json:",omitempty"`
	Table string `json:",omitempty"`
	Error string
}

func migrationError(code errors.ErrorCode, phase string, err error) errors.Error {
	return errors.New().WithData(code, migrationFailure{Phase: phase, Error: err.Error()})
}

// inspectTicks reports what an outdated ticks table still holds. A schema
// without a ticks table holds nothing worth keeping.
func inspectTicks(db *sql.DB) (staleTicks, error) {
	var st staleTicks

	exists, err := TableExists(db, "ticks")
	if err != nil || !exists {
		return st, err
	}

	var oldest, newest sql.NullInt64
	err = db.QueryRow(`
        SELECT COUNT(*), COUNT(DISTINCT session_id), MIN(timestamp), MAX(timestamp)
        FROM ticks
    `).Scan(&st.Rows, &st.Sessions, &oldest, &newest)
	if err != nil {
		// Older layouts may lack session_id; fall back to a plain count.
		if cerr := db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&st.Rows); cerr != nil {
			return st, migrationError(ErrSchemaValidationFailed, "count_ticks", cerr)
		}
		return st, nil
	}
	st.Oldest = oldest.Int64
	st.Newest = newest.Int64

	return st, nil
}

// backupTicks copies the whole database aside before stale tick history is
// dropped. The file is named after the schema version it was written with.
func backupTicks(db *sql.DB, dir string, version int, st staleTicks, log logger.Logger) (string, error) {
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return "", errors.New().WithData(ErrSchemaMigrationFailed, migrationFailure{
			Phase: "create_backup_dir",
			Path:  dir,
			Error: err.Error(),
		})
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	path := filepath.Join(dir, fmt.Sprintf("ticks_v%d_%s.db", version, stamp))

	// VACUUM INTO takes a literal; it cannot run inside a transaction.
	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return "", errors.New().WithData(ErrSchemaMigrationFailed, migrationFailure{
			Phase: "vacuum_into",
			Path:  path,
			Error: err.Error(),
		})
	}

	ev := log.Info().
		Str("path", path).
		Int("schema_version", version).
		Int("ticks", st.Rows).
		Int("sessions", st.Sessions)
	if st.Rows > 0 && st.Newest > 0 {
		ev = ev.Str("oldest", time.Unix(st.Oldest, 0).UTC().Format(time.RFC3339)).
			Str("newest", time.Unix(st.Newest, 0).UTC().Format(time.RFC3339))
	}
	ev.Msg("Saved tick history before schema reset")

	return path, nil
}

// ValidateAndUpdateSchema makes sure the tick schema matches SchemaVersion.
// A fresh database is initialized. On a version mismatch the old tick rows
// are counted, copied to backupDir when there are any and backupDir is set,
// and the schema is recreated empty.
func ValidateAndUpdateSchema(db *sql.DB, backupDir string, log logger.Logger) error {
	version, err := GetSchemaVersion(db)
	if err != nil {
		return errors.New().Wrap(ErrSchemaValidationFailed, err)
	}

	switch version {
	case SchemaVersion:
		log.Debug().Int("schema_version", version).Msg("Tick schema is current")
		return nil
	case 0:
		log.Debug().Msg("No tick schema found, creating one")
		return InitSchema(db, log)
	}

	st, err := inspectTicks(db)
	if err != nil {
		return err
	}

	log.Warn().
		Int("found", version).
		Int("want", SchemaVersion).
		Int("ticks", st.Rows).
		Msg("Tick schema version mismatch, recreating")

	switch {
	case st.Rows == 0:
		log.Debug().Msg("Outdated schema holds no ticks, skipping backup")
	case backupDir == "":
		log.Warn().Int("ticks", st.Rows).Msg("Discarding tick history without backup")
	default:
		if _, err := backupTicks(db, backupDir, version, st, log); err != nil {
			return err
		}
	}

	if err := dropOwnedTables(db, log); err != nil {
		return err
	}
	return InitSchema(db, log)
}

func dropOwnedTables(db *sql.DB, log logger.Logger) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.New().Wrap(ErrTransactionFailed, err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Debug().Err(err).Msg("Failed to roll back tick schema reset")
		}
	}()

	if _, err := tx.Exec("DROP INDEX IF EXISTS ticks_session"); err != nil {
		return migrationError(ErrSchemaMigrationFailed, "drop_index", err)
	}
	for _, table := range ownedTables {
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return errors.New().WithData(ErrSchemaMigrationFailed, migrationFailure{
				Phase: "drop_table",
				Table: table,
				Error: err.Error(),
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return migrationError(ErrSchemaMigrationFailed, "commit_reset", err)
	}
	return nil
}
