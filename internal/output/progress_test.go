package output

import (
	"strings"
	"testing"
)

func TestScoreBar_FillProportion(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tests := []struct {
		name   string
		score  float64
		width  int
		filled int
	}{
		{"zero", 0, 10, 0},
		{"half", 50, 10, 5},
		{"full", 100, 10, 10},
		{"over full clamps", 120, 10, 10},
		{"negative clamps", -5, 10, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bar := ScoreBar(tc.score, tc.width)
			if got := strings.Count(bar, "█"); got != tc.filled {
				t.Errorf("ScoreBar(%v, %d) filled = %d, want %d", tc.score, tc.width, got, tc.filled)
			}
			if got := strings.Count(bar, "░"); got != tc.width-tc.filled {
				t.Errorf("ScoreBar(%v, %d) empty = %d, want %d", tc.score, tc.width, got, tc.width-tc.filled)
			}
		})
	}
}

func TestScoreBar_DefaultWidth(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	bar := ScoreBar(50, 0)
	glyphs := strings.Count(bar, "█") + strings.Count(bar, "░")
	if glyphs != 20 {
		t.Errorf("expected 20 bar glyphs for default width, got %d", glyphs)
	}
}

func TestScoreBar_Label(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	bar := ScoreBar(72.4, 10)
	if !strings.Contains(bar, "72/100") {
		t.Errorf("expected score label in %q", bar)
	}
}

func TestMeter(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tests := []struct {
		name   string
		done   int
		target int
		want   string
	}{
		{"in progress", 2, 3, "▰▰▱ 2/3"},
		{"met", 3, 3, "▰▰▰ 3/3"},
		{"over target keeps glyph count", 5, 3, "▰▰▰ 5/3"},
		{"nothing done", 0, 2, "▱▱ 0/2"},
		{"negative clamps", -1, 2, "▱▱ -1/2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Meter(tc.done, tc.target); got != tc.want {
				t.Errorf("Meter(%d, %d) = %q, want %q", tc.done, tc.target, got, tc.want)
			}
		})
	}
}

func TestMeter_ZeroTarget(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := Meter(1, 0); got != "" {
		t.Errorf("Meter with no target = %q, want empty", got)
	}
}

func TestTrendArrow(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tests := []struct {
		name  string
		delta float64
		want  string
	}{
		{"zero is a dash", 0, "─"},
		{"positive points up", 2.5, "▲ +2.5"},
		{"negative points down", -1.2, "▼ -1.2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TrendArrow(tc.delta, true)
			if !strings.Contains(got, tc.want) {
				t.Errorf("TrendArrow(%v, true) = %q, want substring %q", tc.delta, got, tc.want)
			}
		})
	}
}

func TestTrendArrow_DirectionIndependentOfPolarity(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	// A rising resting heart rate is bad news but still points up.
	got := TrendArrow(3.0, false)
	if !strings.Contains(got, "▲ +3.0") {
		t.Errorf("TrendArrow(3.0, false) = %q, want up arrow", got)
	}
}

func TestTrendArrowPercent(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	got := TrendArrowPercent(8.0, true)
	if !strings.Contains(got, "▲ +8%") {
		t.Errorf("TrendArrowPercent(8.0, true) = %q, want up arrow with percent", got)
	}

	got = TrendArrowPercent(-12.3, true)
	if !strings.Contains(got, "▼ -12%") {
		t.Errorf("TrendArrowPercent(-12.3, true) = %q, want down arrow with percent", got)
	}
}

func TestSection(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	s := Section("Readiness")
	if !strings.Contains(s, "Readiness") {
		t.Error("expected section title in output")
	}
	if !strings.Contains(s, "─") {
		t.Error("expected horizontal rule in output")
	}
}
