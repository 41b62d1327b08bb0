// Package recommend turns a recovery zone and the weekly training
// tally into the day's training call with concrete action items.
package recommend

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/scoring"
)

// Tally is the trailing 7-day training tally. TotalMinutes counts
// every category, including activities outside the weekly targets,
// and feeds the readiness load component.
type Tally struct {
	Runs         int `json:"runs"`
	Lifts        int `json:"lifts"`
	RunMinutes   int `json:"run_minutes"`
	TotalMinutes int `json:"total_minutes"`
}

// WeeklyTally counts runs, lifts, and activity minutes over the seven
// days ending at now. The tally is recomputed from the activity
// entries every run, never maintained incrementally, so reprocessing a
// day cannot drift the counts.
func WeeklyTally(activities []health.ActivityEntry, now time.Time) Tally {
	cutoff := now.AddDate(0, 0, -7)

	var t Tally
	for _, a := range activities {
		if a.StartTime.Before(cutoff) {
			continue
		}
		t.TotalMinutes += a.Minutes()
		switch a.Category {
		case health.CategoryRun:
			t.Runs++
			t.RunMinutes += a.Minutes()
		case health.CategoryLift:
			t.Lifts++
		}
	}
	return t
}

// Target categories an action item can reference.
const (
	TargetRuns       = "runs"
	TargetLifts      = "lifts"
	TargetRunMinutes = "run_minutes"
	TargetRecovery   = "recovery"
)

// Item is one action item. Target names the tally category the item
// was diffed from and Remaining carries the measurable gap.
type Item struct {
	Text      string `json:"text"`
	Target    string `json:"target"`
	Remaining int    `json:"remaining,omitempty"`
}

// Recommendation is the training call for the day: the recovery zone,
// its headline directive, and the ordered action items.
type Recommendation struct {
	Zone      scoring.Zone `json:"zone"`
	Directive string       `json:"directive"`
	Items     []Item       `json:"items,omitempty"`
}

// Build diffs the weekly tally against the configured targets and
// returns the day's recommendation. A red zone overrides the diff
// entirely: whatever the week still owes, the only advice is to reduce
// intensity. All targets met yields zero items.
func Build(zone scoring.Zone, tally Tally, targets config.Targets) Recommendation {
	rec := Recommendation{Zone: zone, Directive: zone.Directive()}

	if zone == scoring.ZoneRed {
		rec.Items = []Item{{
			Text:   "Reduce intensity today - rest or very light activity only",
			Target: TargetRecovery,
		}}
		return rec
	}

	runsNeeded := targets.WeeklyRuns - tally.Runs
	liftsNeeded := targets.WeeklyLifts - tally.Lifts
	minutesNeeded := targets.WeeklyRunMinutes - tally.RunMinutes

	if runsNeeded > 0 {
		text := fmt.Sprintf("Need %d more run(s) this week", runsNeeded)
		if minutesNeeded > 0 {
			text = fmt.Sprintf("%s (%d+ min each)", text, minutesNeeded/runsNeeded)
		}
		rec.Items = append(rec.Items, Item{
			Text:      text,
			Target:    TargetRuns,
			Remaining: runsNeeded,
		})
	}
	if liftsNeeded > 0 {
		rec.Items = append(rec.Items, Item{
			Text:      fmt.Sprintf("Need %d more lift session(s) this week", liftsNeeded),
			Target:    TargetLifts,
			Remaining: liftsNeeded,
		})
	}
	// Remaining minutes only surface once the run count is met; until
	// then the per-run hint above already carries them.
	if runsNeeded <= 0 && minutesNeeded > 0 {
		rec.Items = append(rec.Items, Item{
			Text:      fmt.Sprintf("Need %d more running minutes this week", minutesNeeded),
			Target:    TargetRunMinutes,
			Remaining: minutesNeeded,
		})
	}

	return rec
}
