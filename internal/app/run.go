package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/output"
	"github.com/blackwell-systems/pulsewatch/internal/pipeline"
	"github.com/blackwell-systems/pulsewatch/internal/recommend"
	"github.com/blackwell-systems/pulsewatch/internal/scoring"
	"github.com/blackwell-systems/pulsewatch/internal/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var runForceFresh bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Acquire data, score today and print the report",
	Long: `Run the full pipeline: pull every source through its fallback chain,
update the vitals history, recompute baselines, score sleep and
readiness, and print the daily report with a training recommendation.

Sources that fail fall back to export files and cached payloads; the
report is produced from whatever survived, with warnings attached.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runForceFresh, "force-fresh", false, "Skip the fresh-cache shortcut and hit live APIs")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		output.SetNoColor(true)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	p := pipeline.New(db, cfg, newLogger())
	report, err := p.Run(cmd.Context(), pipeline.Options{ForceFresh: runForceFresh})
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	renderReport(report, cfg.Targets)
	return nil
}

func renderReport(r *pipeline.Report, targets config.Targets) {
	fmt.Println(output.Section(fmt.Sprintf("Daily Report: %s", r.Day)))
	fmt.Printf(" %s\n\n", output.StyleMuted.Render("generated "+r.GeneratedAt.Format("2006-01-02 15:04:05")))

	renderSources(r)

	if r.NoData {
		fmt.Printf(" %s\n\n",
			output.StyleError.Render("No data from any source. Check credentials and connectivity with 'pulsewatch doctor'."))
		renderWarnings(r.Warnings)
		return
	}

	renderSleep(r.Sleep)
	renderReadiness(r)
	renderBodyComp(r.BodyComp)
	renderWeek(r, targets)
	renderWarnings(r.Warnings)
}

func renderSources(r *pipeline.Report) {
	tbl := output.NewTable("Source", "Status", "Tier", "Age")
	for _, s := range r.Sources {
		status := output.StyleSuccess.Render("ok")
		tier := string(s.Tier)
		age := "-"
		if s.Tier == health.TierCache {
			age = fmt.Sprintf("%dd", s.AgeDays)
		}
		if !s.OK {
			status = output.StyleError.Render("failed")
			tier = "-"
		}
		tbl.AddRow(string(s.Source), status, tier, age)
	}
	tbl.Print()
	fmt.Println()

	if r.Staleness == health.TierCache {
		fmt.Printf(" %s\n\n",
			output.StyleWarning.Render("Some data is stale; scores reflect the last known values."))
	}
}

func renderSleep(s *scoring.SleepBreakdown) {
	fmt.Println(output.Section("Sleep"))

	if s == nil {
		fmt.Printf(" %s\n\n", output.StyleMuted.Render("No sleep data for today"))
		return
	}

	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Score"),
		output.ScoreBar(s.Total, 20))
	fmt.Printf(" %s %s %s\n",
		output.StyleLabel.Render("Duration"),
		output.StyleValue.Render(fmt.Sprintf("%.1fh", s.Hours)),
		output.StyleMuted.Render(fmt.Sprintf("%.1f pts", s.DurationPoints)))
	fmt.Printf(" %s %s %s\n",
		output.StyleLabel.Render("Efficiency"),
		output.StyleValue.Render(fmt.Sprintf("%.0f%%", s.EfficiencyPct)),
		output.StyleMuted.Render(fmt.Sprintf("%.1f pts", s.EfficiencyPoints)))
	fmt.Printf(" %s %s %s\n",
		output.StyleLabel.Render("Deep sleep"),
		output.StyleValue.Render(fmt.Sprintf("%.0f%%", s.DeepPct)),
		output.StyleMuted.Render(fmt.Sprintf("%.1f pts", s.DeepPoints)))
	fmt.Printf(" %s %s %s\n",
		output.StyleLabel.Render("REM sleep"),
		output.StyleValue.Render(fmt.Sprintf("%.0f%%", s.REMPct)),
		output.StyleMuted.Render(fmt.Sprintf("%.1f pts", s.REMPoints)))

	fmt.Println()
}

func renderReadiness(r *pipeline.Report) {
	fmt.Println(output.Section("Readiness"))

	if r.Readiness == nil {
		fmt.Printf(" %s\n\n", output.StyleMuted.Render("Not scored"))
		return
	}

	b := r.Readiness
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Score"),
		output.ScoreBar(b.Total, 20))
	fmt.Printf(" %s %s %s %s\n",
		output.StyleLabel.Render("HRV"),
		output.StyleValue.Render(fmt.Sprintf("%.0f ms", b.HRV)),
		output.TrendArrowPercent(b.HRVChangePct, true),
		output.StyleMuted.Render(fmt.Sprintf("baseline %.0f", b.HRVBaseline)))
	fmt.Printf(" %s %s %s %s\n",
		output.StyleLabel.Render("Resting HR"),
		output.StyleValue.Render(fmt.Sprintf("%.0f bpm", b.RestingHR)),
		output.TrendArrow(b.RHRDelta, false),
		output.StyleMuted.Render(fmt.Sprintf("baseline %.0f", b.RHRBaseline)))
	fmt.Printf(" %s %s %s\n",
		output.StyleLabel.Render("Sleep input"),
		output.StyleValue.Render(fmt.Sprintf("%.0f/100", b.SleepScore)),
		output.StyleMuted.Render(fmt.Sprintf("%.1f pts", b.SleepPoints)))
	fmt.Printf(" %s %s %s\n",
		output.StyleLabel.Render("Training load"),
		output.StyleValue.Render(fmt.Sprintf("%.0f min", b.ActiveMinutes)),
		output.StyleMuted.Render(fmt.Sprintf("%.1f pts", b.LoadPoints)))

	fmt.Println()
	badge := zoneStyle(r.Zone).Render("● " + strings.ToUpper(string(r.Zone)))
	fmt.Printf(" %s  %s\n", badge, output.StyleBold.Render(r.Zone.Directive()))
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Trend"),
		renderTrend(r.Trend))

	fmt.Println()
}

func renderBodyComp(b *health.BodyComp) {
	if b == nil {
		return
	}

	fmt.Println(output.Section("Body Composition"))
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Weight"),
		output.StyleValue.Render(fmt.Sprintf("%.1f lbs", b.WeightLbs)))
	if b.BodyFatPct > 0 {
		fmt.Printf(" %s %s\n",
			output.StyleLabel.Render("Body fat"),
			output.StyleValue.Render(fmt.Sprintf("%.1f%%", b.BodyFatPct)))
	}
	if b.LeanMassLbs > 0 {
		fmt.Printf(" %s %s\n",
			output.StyleLabel.Render("Lean mass"),
			output.StyleValue.Render(fmt.Sprintf("%.1f lbs", b.LeanMassLbs)))
	}
	if b.FFMI > 0 {
		fmt.Printf(" %s %s\n",
			output.StyleLabel.Render("FFMI"),
			output.StyleValue.Render(fmt.Sprintf("%.1f", b.FFMI)))
	}
	fmt.Printf(" %s\n\n", output.StyleMuted.Render("as of "+b.Day))
}

func renderWeek(r *pipeline.Report, targets config.Targets) {
	fmt.Println(output.Section("This Week"))

	t := r.Tally
	fmt.Printf(" %s %s %s\n",
		output.StyleLabel.Render("Runs"),
		output.Meter(t.Runs, targets.WeeklyRuns),
		output.StyleMuted.Render(fmt.Sprintf("%d of %d min", t.RunMinutes, targets.WeeklyRunMinutes)))
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Lifts"),
		output.Meter(t.Lifts, targets.WeeklyLifts))
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Total active"),
		output.StyleValue.Render(fmt.Sprintf("%d min", t.TotalMinutes)))

	rec := r.Recommendation
	if rec == nil {
		fmt.Println()
		return
	}

	fmt.Println()
	if len(rec.Items) == 0 {
		fmt.Printf(" %s\n", output.StyleSuccess.Render("Weekly targets met"))
	}
	for _, item := range rec.Items {
		style := output.StyleBold
		if item.Target == recommend.TargetRecovery {
			style = output.StyleError
		}
		fmt.Printf(" %s %s\n", style.Render("→"), item.Text)
	}

	// The lift bonus is a stretch goal, never an action item.
	if rec.Zone != scoring.ZoneRed && targets.WeeklyLiftBonus > targets.WeeklyLifts {
		goal := targets.WeeklyLiftBonus
		if t.Lifts >= targets.WeeklyLifts && t.Lifts < goal {
			fmt.Printf(" %s\n", output.StyleMuted.Render(
				fmt.Sprintf("Stretch: %d more lift session(s) reaches the bonus goal of %d", goal-t.Lifts, goal)))
		}
	}

	fmt.Println()
}

func renderWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}

	fmt.Println(output.Section("Warnings"))
	for _, w := range warnings {
		fmt.Printf(" %s %s\n", output.StyleWarning.Render("⚠"), w)
	}
	fmt.Println()
}

// zoneStyle maps a recovery zone to its badge style.
func zoneStyle(z scoring.Zone) lipgloss.Style {
	switch z {
	case scoring.ZoneGreen:
		return output.StyleSuccess
	case scoring.ZoneYellow:
		return output.StylePrimary
	case scoring.ZoneOrange:
		return output.StyleWarning
	default:
		return output.StyleError
	}
}

// renderTrend styles the readiness trend direction.
func renderTrend(t pipeline.Trend) string {
	switch t {
	case pipeline.TrendImproving:
		return output.StyleSuccess.Render("▲ improving")
	case pipeline.TrendDeclining:
		return output.StyleError.Render("▼ declining")
	default:
		return output.StyleMuted.Render("─ stable")
	}
}
