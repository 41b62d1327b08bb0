// Package store provides SQLite database access for pulsewatch's
// durable state: cache entries, vitals history, baselines, and score
// history.
package store

import (
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/health"
)

// CacheEntry wraps a normalized source payload with its retrieval
// metadata. Entries are keyed by (source, day), overwritten by fresher
// fetches of the same key, and never deleted for being old: age is
// judged by callers, not purged here.
type CacheEntry struct {
	Source    health.Source `json:"source"`
	Day       string        `json:"day"`
	Tier      health.Tier   `json:"tier"`
	FetchedAt time.Time     `json:"fetched_at"`
	Payload   []byte        `json:"payload"`
}

// Age returns how long ago the entry was fetched.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// AgeDays returns the entry age in whole days.
func (e *CacheEntry) AgeDays(now time.Time) int {
	return int(e.Age(now).Hours() / 24)
}

// VitalsRow is one calendar day of physiological samples in the
// history table.
type VitalsRow struct {
	Day        string  `json:"day"`
	HRV        float64 `json:"hrv"`
	RestingHR  float64 `json:"resting_hr"`
	SleepHours float64 `json:"sleep_hours"`
	Efficiency float64 `json:"efficiency"`
	DeepRatio  float64 `json:"deep_ratio"`
	REMRatio   float64 `json:"rem_ratio"`
}

// BaselineRow is one persisted per-metric baseline.
type BaselineRow struct {
	Metric      string    `json:"metric"`
	Value       float64   `json:"value"`
	TrendDelta  float64   `json:"trend_delta"`
	SampleCount int       `json:"sample_count"`
	IsDefault   bool      `json:"is_default"`
	WindowDays  int       `json:"window_days"`
	ComputedAt  time.Time `json:"computed_at"`
}

// ScoreRow is one scored day in the score history.
type ScoreRow struct {
	Day            string    `json:"day"`
	SleepScore     float64   `json:"sleep_score"`
	ReadinessScore float64   `json:"readiness_score"`
	Zone           string    `json:"zone"`
	Staleness      string    `json:"staleness"`
	ComputedAt     time.Time `json:"computed_at"`
}
