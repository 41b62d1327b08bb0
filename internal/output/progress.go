package output

import (
	"fmt"
	"strings"
)

// ScoreBar renders a 0-100 score as a filled bar with the score label.
// Example: "████████████████░░░░ 80/100". Colors follow the default
// recovery bands: green from 85, yellow from 70, orange from 55, red
// below that.
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((score / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var styled string
	switch {
	case score >= 85:
		styled = StyleSuccess.Render(bar)
	case score >= 70:
		styled = StylePrimary.Render(bar)
	case score >= 55:
		styled = StyleWarning.Render(bar)
	default:
		styled = StyleError.Render(bar)
	}

	return fmt.Sprintf("%s %s", styled, StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// Meter renders progress toward a small integer target, one glyph per
// unit. Example: "▰▰▱ 2/3". Only a met target gets color; being short
// of a weekly target mid-week is the normal state, not a problem.
func Meter(done, target int) string {
	if target <= 0 {
		return ""
	}
	filled := done
	if filled < 0 {
		filled = 0
	}
	if filled > target {
		filled = target
	}

	glyphs := strings.Repeat("▰", filled) + strings.Repeat("▱", target-filled)
	label := StyleMuted.Render(fmt.Sprintf("%d/%d", done, target))
	if done >= target {
		return fmt.Sprintf("%s %s", StyleSuccess.Render(glyphs), label)
	}
	return fmt.Sprintf("%s %s", glyphs, label)
}

// TrendArrow returns a styled arrow for a delta in absolute units.
// Direction follows the sign; color follows whether the move helps,
// which for metrics like resting heart rate means down is good.
func TrendArrow(delta float64, higherIsBetter bool) string {
	return trendArrow(delta, higherIsBetter, "%.1f")
}

// TrendArrowPercent is TrendArrow for percentage deltas.
func TrendArrowPercent(delta float64, higherIsBetter bool) string {
	return trendArrow(delta, higherIsBetter, "%.0f%%")
}

func trendArrow(delta float64, higherIsBetter bool, format string) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	rising := delta > 0
	arrow := "▼ " + fmt.Sprintf(format, delta)
	if rising {
		arrow = "▲ +" + fmt.Sprintf(format, delta)
	}

	if rising == higherIsBetter {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
