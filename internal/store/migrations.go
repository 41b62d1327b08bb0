package store

import (
	"database/sql"
	"fmt"
)

// migrations holds one step per schema version, applied in order.
// Version n is migrations[n-1].
var migrations = []func(*sql.Tx) error{
	migrateV1,
}

// migrate brings the schema up to the latest version. Each pending
// step commits together with its version bump, so a failed migration
// leaves the database on the last good version.
func (db *DB) migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means a fresh database.
		version = 0
	}

	for next := version + 1; next <= len(migrations); next++ {
		if err := db.apply(next, migrations[next-1]); err != nil {
			return fmt.Errorf("migration v%d: %w", next, err)
		}
	}

	return nil
}

func (db *DB) apply(version int, step func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := step(tx); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return err
	}

	return tx.Commit()
}

// migrateV1 creates the initial tables and indexes.
func migrateV1(tx *sql.Tx) error {
	statements := []string{
		// Cache entries are keyed by (source, day) and superseded in
		// place; nothing ever deletes them by age.
		`CREATE TABLE IF NOT EXISTS cache_entries (
			source     TEXT NOT NULL,
			day        TEXT NOT NULL,
			tier       TEXT NOT NULL,
			fetched_at TEXT NOT NULL,
			payload    TEXT NOT NULL,
			PRIMARY KEY (source, day)
		)`,

		// One row per calendar day of physiological samples; feeds the
		// baseline window.
		`CREATE TABLE IF NOT EXISTS vitals_history (
			day         TEXT PRIMARY KEY,
			hrv         REAL NOT NULL,
			resting_hr  REAL NOT NULL,
			sleep_hours REAL NOT NULL,
			efficiency  REAL NOT NULL,
			deep_ratio  REAL NOT NULL,
			rem_ratio   REAL NOT NULL,
			updated_at  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS baselines (
			metric       TEXT PRIMARY KEY,
			value        REAL NOT NULL,
			trend_delta  REAL NOT NULL,
			sample_count INTEGER NOT NULL,
			is_default   BOOLEAN NOT NULL,
			window_days  INTEGER NOT NULL,
			computed_at  TEXT NOT NULL
		)`,

		// One row per scored day, upserted so retried triggers stay
		// idempotent.
		`CREATE TABLE IF NOT EXISTS score_history (
			day             TEXT PRIMARY KEY,
			sleep_score     REAL NOT NULL,
			readiness_score REAL NOT NULL,
			zone            TEXT NOT NULL,
			staleness       TEXT NOT NULL,
			computed_at     TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_cache_entries_fetched ON cache_entries(source, fetched_at)`,
		`CREATE INDEX IF NOT EXISTS idx_vitals_history_day ON vitals_history(day)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	return nil
}
