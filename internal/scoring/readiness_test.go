package scoring

import (
	"math"
	"testing"
)

// neutralInputs sits every component at a known point: vitals on
// baseline, perfect sleep, training load on target.
func neutralInputs() ReadinessInputs {
	return ReadinessInputs{
		HRV:           60,
		RestingHR:     55,
		HRVBaseline:   60,
		RHRBaseline:   55,
		SleepScore:    100,
		ActiveMinutes: 150,
	}
}

func TestComputeReadiness_AtBaseline(t *testing.T) {
	b := ComputeReadiness(neutralInputs(), defaultScoring())

	// 17.5 (HRV at baseline, midpoint) + 12.5 (RHR at baseline, midpoint)
	// + 25 (sleep 100) + 15 (load on target) = 70
	wantPoints(t, "hrv", b.HRVPoints, 17.5)
	wantPoints(t, "rhr", b.RHRPoints, 12.5)
	wantPoints(t, "sleep", b.SleepPoints, 25)
	wantPoints(t, "load", b.LoadPoints, 15)
	wantPoints(t, "total", b.Total, 70)

	if z := ZoneFor(b.Total, defaultScoring().Zones); z != ZoneYellow {
		t.Errorf("expected yellow zone at 70, got %q", z)
	}
}

func TestComputeReadiness_LowRecoveryDay(t *testing.T) {
	in := ReadinessInputs{
		HRV:           50,
		RestingHR:     60,
		HRVBaseline:   65,
		RHRBaseline:   55,
		SleepScore:    70,
		ActiveMinutes: 150,
	}
	b := ComputeReadiness(in, defaultScoring())

	// 0 (HRV 23% under baseline, clamped) + 0 (RHR 5bpm over, slope exhausted)
	// + 17.5 (sleep 70 scaled to 25) + 15 (load on target) = 32.5
	wantPoints(t, "hrv", b.HRVPoints, 0)
	wantPoints(t, "rhr", b.RHRPoints, 0)
	wantPoints(t, "sleep", b.SleepPoints, 17.5)
	wantPoints(t, "load", b.LoadPoints, 15)
	wantPoints(t, "total", b.Total, 32.5)

	wantPoints(t, "rhr delta", b.RHRDelta, 5)
	wantPoints(t, "load ratio", b.LoadRatio, 1)

	if z := ZoneFor(b.Total, defaultScoring().Zones); z != ZoneRed {
		t.Errorf("expected red zone at 32.5, got %q", z)
	}
}

func TestComputeReadiness_BestCase(t *testing.T) {
	in := ReadinessInputs{
		HRV:           66, // +10% over baseline
		RestingHR:     50, // 5bpm under baseline
		HRVBaseline:   60,
		RHRBaseline:   55,
		SleepScore:    100,
		ActiveMinutes: 150,
	}
	b := ComputeReadiness(in, defaultScoring())

	// 35 + 25 + 25 + 15 = 100
	wantPoints(t, "total", b.Total, 100)

	if z := ZoneFor(b.Total, defaultScoring().Zones); z != ZoneGreen {
		t.Errorf("expected green zone at 100, got %q", z)
	}
}

func TestComputeReadiness_HRVSlope(t *testing.T) {
	tests := []struct {
		name string
		hrv  float64
		want float64
	}{
		{"+20% clamps at full", 72, 35},
		{"+10% earns full", 66, 35},
		{"+5% above midpoint", 63, 26.25},
		{"baseline is midpoint", 60, 17.5},
		{"-5% below midpoint", 57, 8.75},
		{"-10% hits zero", 54, 0},
		{"-20% clamps at zero", 48, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := neutralInputs()
			in.HRV = tc.hrv
			b := ComputeReadiness(in, defaultScoring())
			wantPoints(t, "hrv", b.HRVPoints, tc.want)
		})
	}
}

func TestComputeReadiness_RHRSlope(t *testing.T) {
	tests := []struct {
		name string
		rhr  float64
		want float64
	}{
		{"10 under clamps at full", 45, 25},
		{"5 under earns full", 50, 25},
		{"2.5 under above midpoint", 52.5, 18.75},
		{"baseline is midpoint", 55, 12.5},
		{"2.5 over below midpoint", 57.5, 6.25},
		{"5 over hits zero", 60, 0},
		{"10 over clamps at zero", 65, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := neutralInputs()
			in.RestingHR = tc.rhr
			b := ComputeReadiness(in, defaultScoring())
			wantPoints(t, "rhr", b.RHRPoints, tc.want)
		})
	}
}

func TestComputeReadiness_LoadCurve(t *testing.T) {
	// Doing double the target is scored as badly as doing nothing.
	tests := []struct {
		minutes float64
		want    float64
	}{
		{0, 0},
		{75, 7.5},
		{150, 15},
		{225, 7.5},
		{300, 0},
		{450, 0},
	}

	for _, tc := range tests {
		in := neutralInputs()
		in.ActiveMinutes = tc.minutes
		b := ComputeReadiness(in, defaultScoring())
		if math.Abs(b.LoadPoints-tc.want) > 0.01 {
			t.Errorf("load points for %.0f minutes = %.2f, want %.2f", tc.minutes, b.LoadPoints, tc.want)
		}
	}
}

func TestComputeReadiness_ZeroBaselineScoresNeutral(t *testing.T) {
	in := neutralInputs()
	in.HRVBaseline = 0
	b := ComputeReadiness(in, defaultScoring())

	wantPoints(t, "hrv change pct", b.HRVChangePct, 0)
	wantPoints(t, "hrv", b.HRVPoints, 17.5)
}
