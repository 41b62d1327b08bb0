package pipeline

import (
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/recommend"
	"github.com/blackwell-systems/pulsewatch/internal/scoring"
	"github.com/blackwell-systems/pulsewatch/internal/store"
)

// SourceStatus describes how one logical source resolved during a run.
type SourceStatus struct {
	Source health.Source `json:"source"`

	// OK is true when some tier produced data, even stale cache.
	OK bool `json:"ok"`

	// Tier is the fallback tier that produced the data.
	Tier health.Tier `json:"tier,omitempty"`

	// AgeDays is how old cache-served data is; zero for fresh tiers.
	AgeDays int `json:"age_days"`

	// Reason joins the per-tier errors when the whole chain failed.
	Reason string `json:"reason,omitempty"`
}

// Trend classifies today's readiness against recent score history.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Report is the aggregated output of one pipeline run and the sole
// contract between the core and any renderer. A run always produces a
// renderable report; degraded inputs surface as nil slots, the NoData
// flag, and accumulated warnings rather than errors.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`

	// Day is the calendar day the run scored.
	Day string `json:"day"`

	// NoData is true when every source chain was exhausted.
	NoData bool `json:"no_data"`

	// Sources lists per-source provenance in acquisition order.
	Sources []SourceStatus `json:"sources"`

	// Today is the scored daily record with its activities attached,
	// nil when no metrics data was available.
	Today *health.DailyRecord `json:"today,omitempty"`

	// BodyComp is the latest body composition reading, nil when the
	// spreadsheet source produced nothing.
	BodyComp *health.BodyComp `json:"body_comp,omitempty"`

	// Baselines holds the per-metric baselines used for scoring.
	Baselines map[string]store.BaselineRow `json:"baselines,omitempty"`

	Sleep     *scoring.SleepBreakdown     `json:"sleep,omitempty"`
	Readiness *scoring.ReadinessBreakdown `json:"readiness,omitempty"`
	Zone      scoring.Zone                `json:"zone,omitempty"`
	Trend     Trend                       `json:"trend,omitempty"`

	// Tally is the trailing 7-day training tally behind the
	// recommendation and the load component.
	Tally recommend.Tally `json:"tally"`

	Recommendation *recommend.Recommendation `json:"recommendation,omitempty"`

	// Staleness is the worst tier across successful sources.
	Staleness health.Tier `json:"staleness,omitempty"`

	// Warnings records every degradation of the run: stale cache ages,
	// missing sources, substituted baselines.
	Warnings []string `json:"warnings,omitempty"`
}

// classifyTrend compares the current readiness score to the mean of
// the most recent stored scores. Fewer than three prior days is not
// enough signal, so the trend reads stable.
func classifyTrend(current float64, recent []store.ScoreRow) Trend {
	if len(recent) < 3 {
		return TrendStable
	}
	sum := 0.0
	for _, s := range recent[:3] {
		sum += s.ReadinessScore
	}
	avg := sum / 3

	switch {
	case current > avg+5:
		return TrendImproving
	case current < avg-5:
		return TrendDeclining
	default:
		return TrendStable
	}
}
