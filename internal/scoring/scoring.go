// Package scoring turns normalized daily records and baselines into
// sleep and readiness scores. Every function here is pure: scores
// depend only on the arguments and the scoring configuration, so the
// same inputs always produce the same breakdown.
package scoring

// clamp limits v to the [lo, hi] interval.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rangeCredit returns a linear credit weight from 1.0 (value inside
// [lo, hi]) to 0.0 (value at least falloff units outside it).
func rangeCredit(value, lo, hi, falloff float64) float64 {
	var dist float64
	switch {
	case value < lo:
		dist = lo - value
	case value > hi:
		dist = value - hi
	default:
		return 1.0
	}
	if falloff <= 0 || dist >= falloff {
		return 0.0
	}
	return 1.0 - dist/falloff
}
