package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level pulsewatch configuration. Every numeric
// weight and threshold the pipeline consumes lives here so callers can
// override any of them; components receive the loaded value, never a
// package-level constant.
type Config struct {
	DataDir   string    `mapstructure:"data_dir"`
	Sources   Sources   `mapstructure:"sources"`
	Fetch     Fetch     `mapstructure:"fetch"`
	Baselines Baselines `mapstructure:"baselines"`
	Scoring   Scoring   `mapstructure:"scoring"`
	Targets   Targets   `mapstructure:"targets"`
}

// Sources holds per-source credentials and endpoints. The values are
// opaque to the pipeline; fetchers consume them directly.
type Sources struct {
	OuraToken          string `mapstructure:"oura_token"`
	OuraBaseURL        string `mapstructure:"oura_base_url"`
	ExportDir          string `mapstructure:"export_dir"`
	StravaClientID     string `mapstructure:"strava_client_id"`
	StravaClientSecret string `mapstructure:"strava_client_secret"`
	StravaRefreshToken string `mapstructure:"strava_refresh_token"`
	SheetID            string `mapstructure:"sheet_id"`
}

// Fetch defines acquisition windows and timeouts.
type Fetch struct {
	TimeoutSeconds       int `mapstructure:"timeout_seconds"`
	LookbackDays         int `mapstructure:"lookback_days"`
	ActivityLookbackDays int `mapstructure:"activity_lookback_days"`
	FreshWithinHours     int `mapstructure:"fresh_within_hours"`
}

// Timeout returns the per-attempt fetch timeout.
func (f Fetch) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// FreshWindow returns how recent a cache entry must be for the
// coordinator to serve it without attempting a live fetch.
func (f Fetch) FreshWindow() time.Duration {
	return time.Duration(f.FreshWithinHours) * time.Hour
}

// Baselines defines the rolling-baseline windows and the population
// defaults used until enough personal history exists.
type Baselines struct {
	WindowDays        int     `mapstructure:"window_days"`
	TrendDays         int     `mapstructure:"trend_days"`
	MinSamples        int     `mapstructure:"min_samples"`
	DefaultHRV        float64 `mapstructure:"default_hrv"`
	DefaultRHR        float64 `mapstructure:"default_rhr"`
	DefaultSleepHours float64 `mapstructure:"default_sleep_hours"`
}

// Scoring groups every knob of the scoring engine.
type Scoring struct {
	Weights   Weights   `mapstructure:"weights"`
	Sleep     Sleep     `mapstructure:"sleep"`
	Readiness Readiness `mapstructure:"readiness"`
	Zones     Zones     `mapstructure:"zones"`
}

// Weights defines the point budget of each score component. Sleep
// components sum to 100, readiness components sum to 100.
type Weights struct {
	Duration   float64 `mapstructure:"duration"`
	Efficiency float64 `mapstructure:"efficiency"`
	Deep       float64 `mapstructure:"deep"`
	REM        float64 `mapstructure:"rem"`
	HRV        float64 `mapstructure:"hrv"`
	RHR        float64 `mapstructure:"rhr"`
	Sleep      float64 `mapstructure:"sleep"`
	Load       float64 `mapstructure:"load"`
}

// Sleep defines the optimal ranges the sleep components score against.
type Sleep struct {
	OptimalMinHours float64 `mapstructure:"optimal_min_hours"`
	OptimalMaxHours float64 `mapstructure:"optimal_max_hours"`
	FalloffHours    float64 `mapstructure:"falloff_hours"`
	DeepBandMin     float64 `mapstructure:"deep_band_min"`
	DeepBandMax     float64 `mapstructure:"deep_band_max"`
	REMBandMin      float64 `mapstructure:"rem_band_min"`
	REMBandMax      float64 `mapstructure:"rem_band_max"`
	BandFalloffPct  float64 `mapstructure:"band_falloff_pct"`
}

// Readiness defines the deviation slopes for the readiness components.
type Readiness struct {
	HRVSensitivityPct  float64 `mapstructure:"hrv_sensitivity_pct"`
	RHRToleranceBPM    float64 `mapstructure:"rhr_tolerance_bpm"`
	LoadTargetMinutes  float64 `mapstructure:"load_target_minutes"`
	FallbackSleepScore float64 `mapstructure:"fallback_sleep_score"`
}

// Zones defines the lower bound of each recovery band. Must be strictly
// descending; scores below Orange land in the red band.
type Zones struct {
	Green  float64 `mapstructure:"green"`
	Yellow float64 `mapstructure:"yellow"`
	Orange float64 `mapstructure:"orange"`
}

// Targets defines the weekly training targets the recommendation
// engine diffs the activity tally against. WeeklyLiftBonus is an
// absolute stretch goal, not an increment over WeeklyLifts.
type Targets struct {
	WeeklyRuns       int `mapstructure:"weekly_runs"`
	WeeklyLifts      int `mapstructure:"weekly_lifts"`
	WeeklyLiftBonus  int `mapstructure:"weekly_lift_bonus"`
	WeeklyRunMinutes int `mapstructure:"weekly_run_minutes"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied and validated.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults.
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("sources.oura_base_url", DefaultOuraBaseURL)
	v.SetDefault("fetch.timeout_seconds", DefaultFetch.TimeoutSeconds)
	v.SetDefault("fetch.lookback_days", DefaultFetch.LookbackDays)
	v.SetDefault("fetch.activity_lookback_days", DefaultFetch.ActivityLookbackDays)
	v.SetDefault("fetch.fresh_within_hours", DefaultFetch.FreshWithinHours)
	v.SetDefault("baselines.window_days", DefaultBaselines.WindowDays)
	v.SetDefault("baselines.trend_days", DefaultBaselines.TrendDays)
	v.SetDefault("baselines.min_samples", DefaultBaselines.MinSamples)
	v.SetDefault("baselines.default_hrv", DefaultBaselines.DefaultHRV)
	v.SetDefault("baselines.default_rhr", DefaultBaselines.DefaultRHR)
	v.SetDefault("baselines.default_sleep_hours", DefaultBaselines.DefaultSleepHours)
	v.SetDefault("scoring.weights.duration", DefaultWeights.Duration)
	v.SetDefault("scoring.weights.efficiency", DefaultWeights.Efficiency)
	v.SetDefault("scoring.weights.deep", DefaultWeights.Deep)
	v.SetDefault("scoring.weights.rem", DefaultWeights.REM)
	v.SetDefault("scoring.weights.hrv", DefaultWeights.HRV)
	v.SetDefault("scoring.weights.rhr", DefaultWeights.RHR)
	v.SetDefault("scoring.weights.sleep", DefaultWeights.Sleep)
	v.SetDefault("scoring.weights.load", DefaultWeights.Load)
	v.SetDefault("scoring.sleep.optimal_min_hours", DefaultSleep.OptimalMinHours)
	v.SetDefault("scoring.sleep.optimal_max_hours", DefaultSleep.OptimalMaxHours)
	v.SetDefault("scoring.sleep.falloff_hours", DefaultSleep.FalloffHours)
	v.SetDefault("scoring.sleep.deep_band_min", DefaultSleep.DeepBandMin)
	v.SetDefault("scoring.sleep.deep_band_max", DefaultSleep.DeepBandMax)
	v.SetDefault("scoring.sleep.rem_band_min", DefaultSleep.REMBandMin)
	v.SetDefault("scoring.sleep.rem_band_max", DefaultSleep.REMBandMax)
	v.SetDefault("scoring.sleep.band_falloff_pct", DefaultSleep.BandFalloffPct)
	v.SetDefault("scoring.readiness.hrv_sensitivity_pct", DefaultReadiness.HRVSensitivityPct)
	v.SetDefault("scoring.readiness.rhr_tolerance_bpm", DefaultReadiness.RHRToleranceBPM)
	v.SetDefault("scoring.readiness.load_target_minutes", DefaultReadiness.LoadTargetMinutes)
	v.SetDefault("scoring.readiness.fallback_sleep_score", DefaultReadiness.FallbackSleepScore)
	v.SetDefault("scoring.zones.green", DefaultZones.Green)
	v.SetDefault("scoring.zones.yellow", DefaultZones.Yellow)
	v.SetDefault("scoring.zones.orange", DefaultZones.Orange)
	v.SetDefault("targets.weekly_runs", DefaultTargets.WeeklyRuns)
	v.SetDefault("targets.weekly_lifts", DefaultTargets.WeeklyLifts)
	v.SetDefault("targets.weekly_lift_bonus", DefaultTargets.WeeklyLiftBonus)
	v.SetDefault("targets.weekly_run_minutes", DefaultTargets.WeeklyRunMinutes)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultDataDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Credentials can come from the environment (PULSEWATCH_SOURCES_OURA_TOKEN etc.).
	v.SetEnvPrefix("PULSEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only return error for problems other than file not found.
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand paths.
	cfg.DataDir = expandPath(cfg.DataDir)
	if cfg.Sources.ExportDir == "" {
		cfg.Sources.ExportDir = filepath.Join(cfg.DataDir, DefaultExportDirName)
	} else {
		cfg.Sources.ExportDir = expandPath(cfg.Sources.ExportDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the cross-field constraints that the scoring engine
// relies on. Zone thresholds in particular must stay strictly
// descending so the bands remain a total ordered partition of [0,100].
func (c *Config) Validate() error {
	z := c.Scoring.Zones
	if !(z.Green > z.Yellow && z.Yellow > z.Orange && z.Orange > 0) {
		return fmt.Errorf("zone thresholds must be strictly descending and positive: green=%.0f yellow=%.0f orange=%.0f",
			z.Green, z.Yellow, z.Orange)
	}
	w := c.Scoring.Weights
	for name, val := range map[string]float64{
		"duration": w.Duration, "efficiency": w.Efficiency, "deep": w.Deep, "rem": w.REM,
		"hrv": w.HRV, "rhr": w.RHR, "sleep": w.Sleep, "load": w.Load,
	} {
		if val < 0 {
			return fmt.Errorf("scoring weight %q must be non-negative, got %.1f", name, val)
		}
	}
	// The scoring engine divides by these slopes.
	s := c.Scoring.Sleep
	if s.FalloffHours <= 0 || s.BandFalloffPct <= 0 {
		return fmt.Errorf("sleep falloffs must be positive: falloff_hours=%.1f band_falloff_pct=%.1f",
			s.FalloffHours, s.BandFalloffPct)
	}
	r := c.Scoring.Readiness
	if r.HRVSensitivityPct <= 0 || r.RHRToleranceBPM <= 0 || r.LoadTargetMinutes <= 0 {
		return fmt.Errorf("readiness slopes must be positive: hrv_sensitivity_pct=%.1f rhr_tolerance_bpm=%.1f load_target_minutes=%.0f",
			r.HRVSensitivityPct, r.RHRToleranceBPM, r.LoadTargetMinutes)
	}
	if c.Baselines.WindowDays <= 0 || c.Baselines.TrendDays <= 0 {
		return fmt.Errorf("baseline windows must be positive: window_days=%d trend_days=%d",
			c.Baselines.WindowDays, c.Baselines.TrendDays)
	}
	if c.Baselines.TrendDays > c.Baselines.WindowDays {
		return fmt.Errorf("baseline trend_days (%d) cannot exceed window_days (%d)",
			c.Baselines.TrendDays, c.Baselines.WindowDays)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch timeout_seconds must be positive, got %d", c.Fetch.TimeoutSeconds)
	}
	return nil
}

// DBPath returns the full path to the SQLite database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DefaultDBName)
}

// DefaultDBPath returns the database location before a Config has been
// loaded (used by setup checks).
func DefaultDBPath() string {
	return filepath.Join(expandPath(DefaultDataDir), DefaultDBName)
}

// DataDirPath returns the expanded default data directory.
func DataDirPath() string {
	return expandPath(DefaultDataDir)
}
