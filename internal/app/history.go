package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/output"
	"github.com/blackwell-systems/pulsewatch/internal/scoring"
	"github.com/blackwell-systems/pulsewatch/internal/store"
	"github.com/spf13/cobra"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent daily scores",
	Long: `Display the stored score history: one row per scored day with its
sleep score, readiness score, recovery zone, and the provenance tier
the scores were computed from.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 14, "Number of days to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	scores, err := db.GetRecentScores(historyDays)
	if err != nil {
		return fmt.Errorf("loading score history: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scores)
	}

	fmt.Println(output.Section("Score History"))
	fmt.Println()

	if len(scores) == 0 {
		fmt.Printf(" %s\n\n", output.StyleMuted.Render("No scored days yet. Run 'pulsewatch run' first."))
		return nil
	}

	// The store returns newest first; flip so the table reads
	// chronologically and each delta compares against the day above.
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}

	tbl := output.NewTable("Day", "Sleep", "Readiness", "Delta", "Zone", "Tier")
	for i, s := range scores {
		delta := ""
		if i > 0 {
			delta = output.TrendArrow(s.ReadinessScore-scores[i-1].ReadinessScore, true)
		}
		tbl.AddRow(
			s.Day,
			fmt.Sprintf("%.0f", s.SleepScore),
			fmt.Sprintf("%.0f", s.ReadinessScore),
			delta,
			zoneStyle(scoring.Zone(s.Zone)).Render(s.Zone),
			s.Staleness,
		)
	}
	tbl.Print()
	fmt.Println()
	return nil
}
