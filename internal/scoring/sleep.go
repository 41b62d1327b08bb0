package scoring

import (
	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
)

// SleepBreakdown carries the per-component points of a sleep score
// together with the inputs each component was scored from.
type SleepBreakdown struct {
	Hours         float64 `json:"hours"`
	EfficiencyPct float64 `json:"efficiency_pct"`
	DeepPct       float64 `json:"deep_pct"`
	REMPct        float64 `json:"rem_pct"`

	DurationPoints   float64 `json:"duration_points"`
	EfficiencyPoints float64 `json:"efficiency_points"`
	DeepPoints       float64 `json:"deep_points"`
	REMPoints        float64 `json:"rem_points"`

	// Total is the 0-100 sleep score.
	Total float64 `json:"total"`
}

// ComputeSleep calculates the 0-100 sleep score for one daily record.
//
// Scoring breakdown (with the default weights):
//   - Duration:   0-40 points, full credit between optimal_min_hours
//     and optimal_max_hours, linear falloff outside
//   - Efficiency: 0-30 points, time asleep over time in bed
//   - Deep sleep: 0-15 points, full credit inside the deep band
//   - REM sleep:  0-15 points, full credit inside the REM band
//
// Each component clamps to its own weight before summing.
func ComputeSleep(rec health.DailyRecord, cfg config.Scoring) SleepBreakdown {
	w, s := cfg.Weights, cfg.Sleep

	b := SleepBreakdown{
		Hours:         rec.SleepHours(),
		EfficiencyPct: rec.SleepEfficiency * 100,
		DeepPct:       rec.DeepRatio * 100,
		REMPct:        rec.REMRatio * 100,
	}

	// Duration: full credit inside the optimal range, decaying to zero
	// over falloff_hours outside it.
	b.DurationPoints = w.Duration * rangeCredit(b.Hours, s.OptimalMinHours, s.OptimalMaxHours, s.FalloffHours)

	// Efficiency: the ratio scales the weight directly.
	b.EfficiencyPoints = clamp(rec.SleepEfficiency*w.Efficiency, 0, w.Efficiency)

	// Sleep stages: each percentage is scored against its band with a
	// linear falloff measured in percentage points.
	b.DeepPoints = w.Deep * rangeCredit(b.DeepPct, s.DeepBandMin, s.DeepBandMax, s.BandFalloffPct)
	b.REMPoints = w.REM * rangeCredit(b.REMPct, s.REMBandMin, s.REMBandMax, s.BandFalloffPct)

	b.Total = clamp(b.DurationPoints+b.EfficiencyPoints+b.DeepPoints+b.REMPoints, 0, 100)
	return b
}
