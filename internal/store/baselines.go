package store

import (
	"fmt"
	"time"
)

// SaveBaselines writes a full baseline set in one transaction so a
// partial failure never leaves metrics from two different computations
// mixed together.
func (db *DB) SaveBaselines(rows []BaselineRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		_, err := tx.Exec(
			`INSERT INTO baselines (metric, value, trend_delta, sample_count, is_default, window_days, computed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(metric) DO UPDATE SET
			   value = excluded.value,
			   trend_delta = excluded.trend_delta,
			   sample_count = excluded.sample_count,
			   is_default = excluded.is_default,
			   window_days = excluded.window_days,
			   computed_at = excluded.computed_at`,
			r.Metric, r.Value, r.TrendDelta, r.SampleCount, r.IsDefault, r.WindowDays,
			r.ComputedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("saving baseline %q: %w", r.Metric, err)
		}
	}

	return tx.Commit()
}

// GetBaselines returns all stored baselines keyed by metric name.
func (db *DB) GetBaselines() (map[string]BaselineRow, error) {
	rows, err := db.conn.Query(
		`SELECT metric, value, trend_delta, sample_count, is_default, window_days, computed_at
		 FROM baselines`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	baselines := make(map[string]BaselineRow)
	for rows.Next() {
		var b BaselineRow
		var computedAt string
		if err := rows.Scan(&b.Metric, &b.Value, &b.TrendDelta, &b.SampleCount,
			&b.IsDefault, &b.WindowDays, &computedAt); err != nil {
			return nil, err
		}
		b.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
		baselines[b.Metric] = b
	}
	return baselines, rows.Err()
}
