// Package pipeline orchestrates one full pulsewatch run: acquisition
// across all sources, history and baseline updates, scoring, and the
// day's recommendation, aggregated into a single Report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/acquire"
	"github.com/blackwell-systems/pulsewatch/internal/baseline"
	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/recommend"
	"github.com/blackwell-systems/pulsewatch/internal/scoring"
	"github.com/blackwell-systems/pulsewatch/internal/source"
	"github.com/blackwell-systems/pulsewatch/internal/store"
)

// Options adjust a single pipeline run.
type Options struct {
	// ForceFresh disables the fresh-cache shortcut so every chain
	// attempts its live tier.
	ForceFresh bool
}

// Pipeline wires the coordinator, store, and scoring for full runs.
type Pipeline struct {
	db     *store.DB
	cfg    *config.Config
	coord  *acquire.Coordinator
	reqs   []acquire.Request
	logger *slog.Logger
}

// New builds a pipeline with the default per-source fallback chains.
func New(db *store.DB, cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		db:     db,
		cfg:    cfg,
		coord:  acquire.New(db, cfg, logger),
		reqs:   DefaultRequests(db, cfg, logger),
		logger: logger,
	}
}

// DefaultRequests builds the per-source fallback chains: oura tries
// live then the export drop then cache; strava and sheets have no
// export mechanism and fall straight back to cache.
func DefaultRequests(db *store.DB, cfg *config.Config, logger *slog.Logger) []acquire.Request {
	client := &http.Client{Timeout: cfg.Fetch.Timeout()}

	return []acquire.Request{
		{
			Source: health.SourceOura,
			Chain: []acquire.Tier{
				acquire.LiveTier(source.NewOura(cfg, client, logger)),
				acquire.ExportTier(source.NewExport(cfg, logger)),
				acquire.CacheTier(db, health.SourceOura),
			},
		},
		{
			Source: health.SourceStrava,
			Chain: []acquire.Tier{
				acquire.LiveTier(source.NewStrava(cfg, client, logger)),
				acquire.CacheTier(db, health.SourceStrava),
			},
		},
		{
			Source: health.SourceSheets,
			Chain: []acquire.Tier{
				acquire.LiveTier(source.NewSheets(cfg, client, logger)),
				acquire.CacheTier(db, health.SourceSheets),
			},
		},
	}
}

// Run executes one full pipeline pass. It always returns a renderable
// report for data-plane outcomes, including every source failing; the
// error is non-nil only when the store itself breaks.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	now := time.Now()
	report := &Report{
		GeneratedAt: now,
		Day:         now.Format("2006-01-02"),
	}

	results := p.coord.AcquireAll(ctx, p.reqs, opts.ForceFresh)

	var tiers []health.Tier
	for _, src := range health.Sources {
		res, ok := results[src]
		if !ok {
			continue
		}
		status := SourceStatus{Source: src}
		if res.OK() {
			status.OK = true
			status.Tier = res.Tier
			status.AgeDays = res.AgeDays
			tiers = append(tiers, res.Tier)
			if res.Tier == health.TierCache {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s data is %d day(s) old, served from cache", src, res.AgeDays))
			}
		} else {
			status.Reason = res.Reason()
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("no %s data available: %s", src, status.Reason))
		}
		report.Sources = append(report.Sources, status)
	}

	if len(tiers) == 0 {
		// Nothing came back from any source. Still render: stored
		// baselines and the warnings explain the situation.
		report.NoData = true
		baselines, err := p.db.GetBaselines()
		if err != nil {
			return nil, fmt.Errorf("loading baselines: %w", err)
		}
		report.Baselines = baselines
		return report, nil
	}
	report.Staleness = health.WorstTier(tiers)

	// Fold the metrics payload into the vitals history and pick
	// today's record.
	var activities []health.ActivityEntry
	if res := results[health.SourceStrava]; res != nil && res.OK() {
		activities = res.Payload.Activities
	}

	if res := results[health.SourceOura]; res != nil && res.OK() {
		for i := range res.Payload.Days {
			d := &res.Payload.Days[i]
			if err := p.db.UpsertVitals(&store.VitalsRow{
				Day:        d.Day,
				HRV:        d.HRV,
				RestingHR:  d.RestingHR,
				SleepHours: d.SleepHours(),
				Efficiency: d.SleepEfficiency,
				DeepRatio:  d.DeepRatio,
				REMRatio:   d.REMRatio,
			}); err != nil {
				return nil, fmt.Errorf("saving vitals history: %w", err)
			}
		}
		if latest := res.Payload.LatestDay(); latest != nil {
			rec := *latest
			rec.Activities = activitiesOn(activities, rec.Day)
			report.Today = &rec
		}
	}

	if res := results[health.SourceSheets]; res != nil && res.OK() {
		report.BodyComp = res.Payload.BodyComp
	}

	// Baselines recompute from the full stored history, not just this
	// run's payload, and are idempotent at any cadence.
	baselineRows, err := baseline.Recompute(p.db, p.cfg.Baselines, p.logger)
	if err != nil {
		return nil, fmt.Errorf("recomputing baselines: %w", err)
	}
	report.Baselines = make(map[string]store.BaselineRow, len(baselineRows))
	for _, row := range baselineRows {
		report.Baselines[row.Metric] = row
		if row.IsDefault {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s baseline is a population default (%d of %d samples)",
					row.Metric, row.SampleCount, p.cfg.Baselines.MinSamples))
		}
	}

	if err := p.score(report, activities, now); err != nil {
		return nil, err
	}

	if err := p.db.UpsertScore(&store.ScoreRow{
		Day:            report.Day,
		SleepScore:     report.Readiness.SleepScore,
		ReadinessScore: report.Readiness.Total,
		Zone:           string(report.Zone),
		Staleness:      string(report.Staleness),
		ComputedAt:     now,
	}); err != nil {
		return nil, fmt.Errorf("saving score history: %w", err)
	}

	return report, nil
}

// score fills the report's sleep, readiness, zone, trend, tally, and
// recommendation slots. Missing inputs degrade to configured fallbacks
// with a warning; only the score history read can error.
func (p *Pipeline) score(report *Report, activities []health.ActivityEntry, now time.Time) error {
	scCfg := p.cfg.Scoring

	sleepScore := scCfg.Readiness.FallbackSleepScore
	if report.Today != nil && report.Today.SleepDuration > 0 {
		b := scoring.ComputeSleep(*report.Today, scCfg)
		report.Sleep = &b
		sleepScore = b.Total
	} else {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("no sleep data for today, assuming sleep score %.0f", sleepScore))
	}

	hrvBase := report.Baselines[baseline.MetricHRV].Value
	rhrBase := report.Baselines[baseline.MetricRestingHR].Value

	hrv, rhr := hrvBase, rhrBase
	if report.Today != nil && report.Today.HRV > 0 {
		hrv = report.Today.HRV
	} else {
		report.Warnings = append(report.Warnings, "no HRV reading, scoring at baseline")
	}
	if report.Today != nil && report.Today.RestingHR > 0 {
		rhr = report.Today.RestingHR
	} else {
		report.Warnings = append(report.Warnings, "no resting HR reading, scoring at baseline")
	}

	report.Tally = recommend.WeeklyTally(activities, now)

	b := scoring.ComputeReadiness(scoring.ReadinessInputs{
		HRV:           hrv,
		RestingHR:     rhr,
		HRVBaseline:   hrvBase,
		RHRBaseline:   rhrBase,
		SleepScore:    sleepScore,
		ActiveMinutes: float64(report.Tally.TotalMinutes),
	}, scCfg)
	report.Readiness = &b
	report.Zone = scoring.ZoneFor(b.Total, scCfg.Zones)

	recent, err := p.db.GetScoresBefore(report.Day, 3)
	if err != nil {
		return fmt.Errorf("loading score history: %w", err)
	}
	report.Trend = classifyTrend(b.Total, recent)

	rec := recommend.Build(report.Zone, report.Tally, p.cfg.Targets)
	report.Recommendation = &rec
	return nil
}

// activitiesOn returns the activities that started on the given day.
func activitiesOn(activities []health.ActivityEntry, day string) []health.ActivityEntry {
	var out []health.ActivityEntry
	for _, a := range activities {
		if a.Day() == day {
			out = append(out, a)
		}
	}
	return out
}
