package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Point at an empty temp dir so no real config file is picked up.
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("data_dir: /tmp/pulsewatch-test\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scoring.Weights.Duration != 40 {
		t.Errorf("default duration weight = %.1f, want 40", cfg.Scoring.Weights.Duration)
	}
	if cfg.Scoring.Zones.Green != 85 || cfg.Scoring.Zones.Yellow != 70 || cfg.Scoring.Zones.Orange != 55 {
		t.Errorf("default zones = %+v, want 85/70/55", cfg.Scoring.Zones)
	}
	if cfg.Baselines.MinSamples != 14 {
		t.Errorf("default min_samples = %d, want 14", cfg.Baselines.MinSamples)
	}
	if cfg.Sources.ExportDir != filepath.Join("/tmp/pulsewatch-test", DefaultExportDirName) {
		t.Errorf("export dir not derived from data_dir: %s", cfg.Sources.ExportDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
scoring:
  zones:
    green: 90
    yellow: 75
    orange: 60
targets:
  weekly_runs: 4
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scoring.Zones.Green != 90 {
		t.Errorf("overridden green threshold = %.0f, want 90", cfg.Scoring.Zones.Green)
	}
	if cfg.Targets.WeeklyRuns != 4 {
		t.Errorf("overridden weekly_runs = %d, want 4", cfg.Targets.WeeklyRuns)
	}
	// Untouched keys keep their defaults.
	if cfg.Targets.WeeklyLifts != 2 {
		t.Errorf("weekly_lifts = %d, want default 2", cfg.Targets.WeeklyLifts)
	}
}

func TestValidateZoneOrdering(t *testing.T) {
	tests := []struct {
		name    string
		zones   Zones
		wantErr bool
	}{
		{"defaults", Zones{Green: 85, Yellow: 70, Orange: 55}, false},
		{"inverted", Zones{Green: 55, Yellow: 70, Orange: 85}, true},
		{"equal bands", Zones{Green: 70, Yellow: 70, Orange: 55}, true},
		{"zero orange", Zones{Green: 85, Yellow: 70, Orange: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Baselines: DefaultBaselines,
				Fetch:     DefaultFetch,
				Scoring: Scoring{
					Weights:   DefaultWeights,
					Sleep:     DefaultSleep,
					Readiness: DefaultReadiness,
					Zones:     tt.zones,
				},
			}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	cfg := &Config{
		Baselines: DefaultBaselines,
		Fetch:     DefaultFetch,
		Scoring: Scoring{
			Weights:   Weights{Duration: -1},
			Sleep:     DefaultSleep,
			Readiness: DefaultReadiness,
			Zones:     DefaultZones,
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a negative weight")
	}
}

func TestValidateRejectsZeroSlopes(t *testing.T) {
	cfg := &Config{
		Baselines: DefaultBaselines,
		Fetch:     DefaultFetch,
		Scoring: Scoring{
			Weights:   DefaultWeights,
			Sleep:     DefaultSleep,
			Readiness: Readiness{HRVSensitivityPct: 0, RHRToleranceBPM: 5, LoadTargetMinutes: 150},
			Zones:     DefaultZones,
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a zero hrv_sensitivity_pct")
	}
}

func TestValidateTrendWindow(t *testing.T) {
	cfg := &Config{
		Baselines: Baselines{WindowDays: 7, TrendDays: 30},
		Fetch:     DefaultFetch,
		Scoring: Scoring{
			Weights:   DefaultWeights,
			Sleep:     DefaultSleep,
			Readiness: DefaultReadiness,
			Zones:     DefaultZones,
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted trend_days > window_days")
	}
}
