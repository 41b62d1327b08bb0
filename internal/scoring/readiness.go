package scoring

import (
	"math"

	"github.com/blackwell-systems/pulsewatch/internal/config"
)

// ReadinessInputs collects everything the readiness score consumes.
// The pipeline substitutes baseline values for missing vitals before
// calling, so a zero field here means a genuine zero, not absence.
type ReadinessInputs struct {
	HRV         float64
	RestingHR   float64
	HRVBaseline float64
	RHRBaseline float64

	// SleepScore is today's 0-100 sleep score (or the configured
	// fallback when no sleep data was available).
	SleepScore float64

	// ActiveMinutes is the trailing 7-day sum of activity minutes.
	ActiveMinutes float64
}

// ReadinessBreakdown carries the per-component points of a readiness
// score together with the deviations each component was scored from.
type ReadinessBreakdown struct {
	HRV           float64 `json:"hrv"`
	HRVBaseline   float64 `json:"hrv_baseline"`
	HRVChangePct  float64 `json:"hrv_change_pct"`
	RestingHR     float64 `json:"resting_hr"`
	RHRBaseline   float64 `json:"rhr_baseline"`
	RHRDelta      float64 `json:"rhr_delta"`
	SleepScore    float64 `json:"sleep_score"`
	ActiveMinutes float64 `json:"active_minutes"`
	LoadRatio     float64 `json:"load_ratio"`

	HRVPoints   float64 `json:"hrv_points"`
	RHRPoints   float64 `json:"rhr_points"`
	SleepPoints float64 `json:"sleep_points"`
	LoadPoints  float64 `json:"load_points"`

	// Total is the 0-100 readiness score.
	Total float64 `json:"total"`
}

// ComputeReadiness calculates the 0-100 readiness score from today's
// vitals, the personal baselines, and the trailing training load.
//
// Scoring breakdown (with the default weights):
//   - HRV vs baseline: 0-35 points, midpoint at baseline, full credit
//     at +hrv_sensitivity_pct percent above it
//   - RHR vs baseline: 0-25 points, inverse slope since a lower
//     resting heart rate signals better recovery
//   - Sleep score:     0-25 points, today's sleep score scaled down
//   - Training load:   0-15 points, full on target, with overload
//     penalized the same as underload
//
// Each component clamps to its own weight before summing.
func ComputeReadiness(in ReadinessInputs, cfg config.Scoring) ReadinessBreakdown {
	w, r := cfg.Weights, cfg.Readiness

	b := ReadinessBreakdown{
		HRV:           in.HRV,
		HRVBaseline:   in.HRVBaseline,
		RestingHR:     in.RestingHR,
		RHRBaseline:   in.RHRBaseline,
		SleepScore:    in.SleepScore,
		ActiveMinutes: in.ActiveMinutes,
	}

	// HRV: percent deviation from baseline, scored symmetrically around
	// the half-weight midpoint. A zero baseline scores neutral.
	if in.HRVBaseline > 0 {
		b.HRVChangePct = (in.HRV - in.HRVBaseline) / in.HRVBaseline * 100
	}
	half := w.HRV / 2
	b.HRVPoints = clamp(half+half*b.HRVChangePct/r.HRVSensitivityPct, 0, w.HRV)

	// Resting HR: absolute bpm deviation, inverted so below baseline
	// earns above the midpoint.
	b.RHRDelta = in.RestingHR - in.RHRBaseline
	half = w.RHR / 2
	b.RHRPoints = clamp(half-half*b.RHRDelta/r.RHRToleranceBPM, 0, w.RHR)

	// Sleep: the sleep score scaled into its weight.
	b.SleepPoints = clamp(in.SleepScore/100*w.Sleep, 0, w.Sleep)

	// Training load: distance of the weekly minutes ratio from 1.0.
	// Doing nothing and doing double both land at zero points.
	if r.LoadTargetMinutes > 0 {
		b.LoadRatio = in.ActiveMinutes / r.LoadTargetMinutes
	}
	b.LoadPoints = clamp(w.Load*(1-math.Abs(b.LoadRatio-1)), 0, w.Load)

	b.Total = clamp(b.HRVPoints+b.RHRPoints+b.SleepPoints+b.LoadPoints, 0, 100)
	return b
}
