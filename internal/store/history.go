package store

import (
	"database/sql"
	"time"
)

// UpsertVitals inserts or refreshes one day of physiological samples.
// Re-fetching a day replaces its row, so a fresher fetch of the same
// day always supersedes the old one.
func (db *DB) UpsertVitals(v *VitalsRow) error {
	_, err := db.conn.Exec(
		`INSERT INTO vitals_history (day, hrv, resting_hr, sleep_hours, efficiency, deep_ratio, rem_ratio, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(day) DO UPDATE SET
		   hrv = excluded.hrv,
		   resting_hr = excluded.resting_hr,
		   sleep_hours = excluded.sleep_hours,
		   efficiency = excluded.efficiency,
		   deep_ratio = excluded.deep_ratio,
		   rem_ratio = excluded.rem_ratio,
		   updated_at = excluded.updated_at`,
		v.Day, v.HRV, v.RestingHR, v.SleepHours, v.Efficiency, v.DeepRatio, v.REMRatio,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetVitalsSince returns all vitals rows with day >= since, oldest
// first. Day keys are YYYY-MM-DD so string comparison orders by date.
func (db *DB) GetVitalsSince(since string) ([]VitalsRow, error) {
	rows, err := db.conn.Query(
		`SELECT day, hrv, resting_hr, sleep_hours, efficiency, deep_ratio, rem_ratio
		 FROM vitals_history WHERE day >= ? ORDER BY day ASC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var vitals []VitalsRow
	for rows.Next() {
		var v VitalsRow
		if err := rows.Scan(&v.Day, &v.HRV, &v.RestingHR, &v.SleepHours,
			&v.Efficiency, &v.DeepRatio, &v.REMRatio); err != nil {
			return nil, err
		}
		vitals = append(vitals, v)
	}
	return vitals, rows.Err()
}

// UpsertScore records one scored day. Upserting keeps retried pipeline
// triggers idempotent: re-running the same day rewrites the same row.
func (db *DB) UpsertScore(s *ScoreRow) error {
	_, err := db.conn.Exec(
		`INSERT INTO score_history (day, sleep_score, readiness_score, zone, staleness, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(day) DO UPDATE SET
		   sleep_score = excluded.sleep_score,
		   readiness_score = excluded.readiness_score,
		   zone = excluded.zone,
		   staleness = excluded.staleness,
		   computed_at = excluded.computed_at`,
		s.Day, s.SleepScore, s.ReadinessScore, s.Zone, s.Staleness,
		s.ComputedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetRecentScores returns up to n score rows, newest first.
func (db *DB) GetRecentScores(n int) ([]ScoreRow, error) {
	rows, err := db.conn.Query(
		`SELECT day, sleep_score, readiness_score, zone, staleness, computed_at
		 FROM score_history ORDER BY day DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectScores(rows)
}

// GetScoresBefore returns up to n score rows strictly before the given
// day, newest first. The trend classifier uses these so today's row
// never feeds its own trend.
func (db *DB) GetScoresBefore(day string, n int) ([]ScoreRow, error) {
	rows, err := db.conn.Query(
		`SELECT day, sleep_score, readiness_score, zone, staleness, computed_at
		 FROM score_history WHERE day < ? ORDER BY day DESC LIMIT ?`,
		day, n,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectScores(rows)
}

func collectScores(rows *sql.Rows) ([]ScoreRow, error) {
	var scores []ScoreRow
	for rows.Next() {
		var s ScoreRow
		var computedAt string
		if err := rows.Scan(&s.Day, &s.SleepScore, &s.ReadinessScore,
			&s.Zone, &s.Staleness, &computedAt); err != nil {
			return nil, err
		}
		s.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
