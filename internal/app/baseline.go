package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blackwell-systems/pulsewatch/internal/baseline"
	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/output"
	"github.com/blackwell-systems/pulsewatch/internal/store"
	"github.com/spf13/cobra"
)

var baselineWindow int

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Recompute rolling baselines from stored history",
	Long: `Recompute the rolling baselines (HRV, resting heart rate, sleep hours)
from the stored vitals history and display them. Metrics without
enough samples fall back to the configured population defaults until
more history accumulates.`,
	RunE: runBaseline,
}

func init() {
	baselineCmd.Flags().IntVar(&baselineWindow, "window", 0, "Override the baseline window in days")
	rootCmd.AddCommand(baselineCmd)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		output.SetNoColor(true)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if baselineWindow > 0 {
		cfg.Baselines.WindowDays = baselineWindow
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rows, err := baseline.Recompute(db, cfg.Baselines, newLogger())
	if err != nil {
		return fmt.Errorf("recomputing baselines: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Println(output.Section("Baselines"))
	fmt.Println()

	tbl := output.NewTable("Metric", "Value", "Trend", "Samples", "Status")
	for _, r := range rows {
		status := output.StyleSuccess.Render("personal")
		if r.IsDefault {
			status = output.StyleWarning.Render("default")
		}
		tbl.AddRow(
			baselineLabel(r.Metric),
			fmt.Sprintf("%.1f", r.Value),
			output.TrendArrow(r.TrendDelta, baselineHigherIsBetter(r.Metric)),
			fmt.Sprintf("%d", r.SampleCount),
			status,
		)
	}
	tbl.Print()

	fmt.Printf("\n %s\n\n", output.StyleMuted.Render(
		fmt.Sprintf("window %d days, trend vs last %d, %d samples needed for a personal baseline",
			cfg.Baselines.WindowDays, cfg.Baselines.TrendDays, cfg.Baselines.MinSamples)))
	return nil
}

// baselineLabel returns the display name for a baseline metric.
func baselineLabel(metric string) string {
	switch metric {
	case baseline.MetricHRV:
		return "HRV (ms)"
	case baseline.MetricRestingHR:
		return "Resting HR (bpm)"
	case baseline.MetricSleepHours:
		return "Sleep (h)"
	default:
		return metric
	}
}

// baselineHigherIsBetter reports whether an upward trend in the metric
// is an improvement. Resting heart rate is the one where lower wins.
func baselineHigherIsBetter(metric string) bool {
	return metric != baseline.MetricRestingHR
}
