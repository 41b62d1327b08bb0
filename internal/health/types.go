// Package health defines the normalized domain types shared by every
// stage of the pipeline: daily physiological records, activity entries,
// body composition readings, and the source/tier provenance tags.
package health

import "time"

// Source identifies a logical external data source.
type Source string

const (
	// SourceOura is the primary metrics provider (sleep, HRV, resting HR).
	SourceOura Source = "oura"

	// SourceStrava is the activity provider.
	SourceStrava Source = "strava"

	// SourceSheets is the spreadsheet provider (body composition).
	SourceSheets Source = "sheets"
)

// Sources lists all logical sources in acquisition order.
var Sources = []Source{SourceOura, SourceStrava, SourceSheets}

// ActivityCategory classifies an activity entry.
type ActivityCategory string

const (
	CategoryRun   ActivityCategory = "run"
	CategoryLift  ActivityCategory = "lift"
	CategoryOther ActivityCategory = "other"
)

// DailyRecord is the normalized physiological snapshot for one calendar
// day. Fetchers produce these; nothing downstream ever sees a raw API
// shape. A record is immutable once fetched for a day, but a fresher
// fetch of the same day supersedes it.
type DailyRecord struct {
	// Day is the calendar day in YYYY-MM-DD form, the record's unique key.
	Day string `json:"day"`

	// SleepDuration is total time asleep.
	SleepDuration time.Duration `json:"sleep_duration"`

	// SleepEfficiency is time asleep over time in bed, 0-1.
	SleepEfficiency float64 `json:"sleep_efficiency"`

	// DeepRatio is deep sleep over total sleep, 0-1.
	DeepRatio float64 `json:"deep_ratio"`

	// REMRatio is REM sleep over total sleep, 0-1.
	REMRatio float64 `json:"rem_ratio"`

	// HRV is the nightly average heart rate variability in ms.
	HRV float64 `json:"hrv"`

	// RestingHR is the lowest nightly heart rate in bpm.
	RestingHR float64 `json:"resting_hr"`

	// Activities holds the activity entries recorded on this day.
	Activities []ActivityEntry `json:"activities,omitempty"`
}

// SleepHours returns the sleep duration in fractional hours.
func (r DailyRecord) SleepHours() float64 {
	return r.SleepDuration.Hours()
}

// ActivityEntry is one recorded workout, normalized from the activity
// provider. It belongs to exactly one day.
type ActivityEntry struct {
	Category       ActivityCategory `json:"category"`
	Name           string           `json:"name,omitempty"`
	Duration       time.Duration    `json:"duration"`
	DistanceMeters float64          `json:"distance_meters,omitempty"`
	StartTime      time.Time        `json:"start_time"`
}

// Day returns the calendar day the activity started on.
func (a ActivityEntry) Day() string {
	return a.StartTime.Format("2006-01-02")
}

// Minutes returns the activity duration in whole minutes.
func (a ActivityEntry) Minutes() int {
	return int(a.Duration.Minutes())
}

// BodyComp is the latest body-composition reading from the spreadsheet
// provider.
type BodyComp struct {
	Day         string  `json:"day"`
	WeightLbs   float64 `json:"weight_lbs"`
	BodyFatPct  float64 `json:"body_fat_pct"`
	LeanMassLbs float64 `json:"lean_mass_lbs"`
	FFMI        float64 `json:"ffmi"`
}

// Payload is the normalized output of a single source fetch. Exactly
// one section is populated per source: Days for the metrics provider,
// Activities for the activity provider, BodyComp for the spreadsheet
// provider.
type Payload struct {
	Days       []DailyRecord   `json:"days,omitempty"`
	Activities []ActivityEntry `json:"activities,omitempty"`
	BodyComp   *BodyComp       `json:"body_comp,omitempty"`
}

// Empty reports whether the payload carries no data at all.
func (p *Payload) Empty() bool {
	if p == nil {
		return true
	}
	return len(p.Days) == 0 && len(p.Activities) == 0 && p.BodyComp == nil
}

// LatestDay returns the most recent daily record in the payload, or nil
// if it has none. Records are compared by their Day key, which sorts
// lexically as dates.
func (p *Payload) LatestDay() *DailyRecord {
	if p == nil || len(p.Days) == 0 {
		return nil
	}
	latest := &p.Days[0]
	for i := range p.Days[1:] {
		if p.Days[i+1].Day > latest.Day {
			latest = &p.Days[i+1]
		}
	}
	return latest
}
