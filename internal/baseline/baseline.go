// Package baseline maintains the personalized statistical baselines
// that scoring measures against. A baseline is the mean of a metric
// over a trailing window, plus a trend delta comparing the recent few
// days to that mean. Until enough history accumulates, a configured
// population default stands in and the row is flagged as such.
package baseline

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/store"
)

// Metric names as persisted in the baselines table.
const (
	MetricHRV        = "hrv"
	MetricRestingHR  = "resting_hr"
	MetricSleepHours = "sleep_hours"
)

// metrics maps each baseline to its sample extractor and its
// population default. A zero sample means the day had no reading for
// that metric and is skipped.
var metrics = []struct {
	name     string
	sample   func(store.VitalsRow) float64
	fallback func(config.Baselines) float64
}{
	{MetricHRV, func(v store.VitalsRow) float64 { return v.HRV },
		func(c config.Baselines) float64 { return c.DefaultHRV }},
	{MetricRestingHR, func(v store.VitalsRow) float64 { return v.RestingHR },
		func(c config.Baselines) float64 { return c.DefaultRHR }},
	{MetricSleepHours, func(v store.VitalsRow) float64 { return v.SleepHours },
		func(c config.Baselines) float64 { return c.DefaultSleepHours }},
}

// Compute derives the full baseline set from vitals history. It is
// pure and deterministic: the same history, config, and clock always
// produce identical rows, regardless of input order. It never fails;
// thin history degrades to the configured population defaults.
func Compute(history []store.VitalsRow, cfg config.Baselines, now time.Time) []store.BaselineRow {
	sorted := make([]store.VitalsRow, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Day < sorted[j].Day })

	windowStart := now.AddDate(0, 0, -cfg.WindowDays).Format("2006-01-02")
	trendStart := now.AddDate(0, 0, -cfg.TrendDays).Format("2006-01-02")

	rows := make([]store.BaselineRow, 0, len(metrics))
	for _, m := range metrics {
		var window, recent []float64
		for _, v := range sorted {
			if v.Day < windowStart {
				continue
			}
			s := m.sample(v)
			if s <= 0 {
				continue
			}
			window = append(window, s)
			if v.Day >= trendStart {
				recent = append(recent, s)
			}
		}

		row := store.BaselineRow{
			Metric:      m.name,
			SampleCount: len(window),
			WindowDays:  cfg.WindowDays,
			ComputedAt:  now,
		}
		if len(window) < cfg.MinSamples {
			row.Value = round1(m.fallback(cfg))
			row.IsDefault = true
		} else {
			row.Value = round1(mean(window))
			if len(recent) > 0 {
				row.TrendDelta = round1(mean(recent) - mean(window))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Recompute loads the trailing window of vitals, computes the baseline
// set, and persists it atomically. Degraded metrics are logged, not
// errors: running with defaults is normal for the first two weeks.
func Recompute(db *store.DB, cfg config.Baselines, logger *slog.Logger) ([]store.BaselineRow, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -cfg.WindowDays).Format("2006-01-02")

	history, err := db.GetVitalsSince(since)
	if err != nil {
		return nil, fmt.Errorf("loading vitals history: %w", err)
	}

	rows := Compute(history, cfg, now)
	if err := db.SaveBaselines(rows); err != nil {
		return nil, fmt.Errorf("saving baselines: %w", err)
	}

	for _, r := range rows {
		if r.IsDefault {
			logger.Warn("baseline using population default",
				"metric", r.Metric, "samples", r.SampleCount, "needed", cfg.MinSamples)
		} else {
			logger.Debug("baseline recomputed",
				"metric", r.Metric, "value", r.Value, "trend", r.TrendDelta, "samples", r.SampleCount)
		}
	}
	return rows, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
