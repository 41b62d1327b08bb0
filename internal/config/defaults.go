// Package config provides configuration loading and defaults for pulsewatch.
package config

// DefaultDataDir is the default location for pulsewatch state: the
// config file, the SQLite database, and the export drop directory.
const DefaultDataDir = "~/.pulsewatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "pulsewatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultExportDirName is the directory (under the data dir) watched
// for dropped bulk export files.
const DefaultExportDirName = "exports"

// DefaultOuraBaseURL is the metrics provider's API root.
const DefaultOuraBaseURL = "https://api.ouraring.com/v2"

// DefaultFetch holds the default acquisition windows and timeouts.
var DefaultFetch = Fetch{
	TimeoutSeconds:       30,
	LookbackDays:         7,
	ActivityLookbackDays: 14,
	FreshWithinHours:     24,
}

// DefaultBaselines holds the default baseline windows and the
// population defaults used until enough personal history accumulates.
var DefaultBaselines = Baselines{
	WindowDays:        90,
	TrendDays:         7,
	MinSamples:        14,
	DefaultHRV:        60,
	DefaultRHR:        55,
	DefaultSleepHours: 7.5,
}

// DefaultWeights holds the default point budget per score component.
var DefaultWeights = Weights{
	Duration:   40,
	Efficiency: 30,
	Deep:       15,
	REM:        15,
	HRV:        35,
	RHR:        25,
	Sleep:      25,
	Load:       15,
}

// DefaultSleep holds the default optimal sleep ranges.
var DefaultSleep = Sleep{
	OptimalMinHours: 7,
	OptimalMaxHours: 9,
	FalloffHours:    3,
	DeepBandMin:     15,
	DeepBandMax:     25,
	REMBandMin:      20,
	REMBandMax:      25,
	BandFalloffPct:  10,
}

// DefaultReadiness holds the default readiness deviation slopes.
var DefaultReadiness = Readiness{
	HRVSensitivityPct:  10,
	RHRToleranceBPM:    5,
	LoadTargetMinutes:  150,
	FallbackSleepScore: 70,
}

// DefaultZones holds the default recovery band thresholds.
var DefaultZones = Zones{
	Green:  85,
	Yellow: 70,
	Orange: 55,
}

// DefaultTargets holds the default weekly training targets.
var DefaultTargets = Targets{
	WeeklyRuns:       3,
	WeeklyLifts:      2,
	WeeklyLiftBonus:  3,
	WeeklyRunMinutes: 60,
}
