// Package app contains the Cobra command tree for pulsewatch.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "pulsewatch",
	Short: "Daily recovery scores from sources that are allowed to fail",
	Long: `pulsewatch pulls sleep, recovery, and training data from its sources,
falling back through export files and cached payloads when an API is
down, then turns whatever survived into sleep and readiness scores
with a daily training recommendation.

Run 'pulsewatch run' to produce today's report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("pulsewatch", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  run       Acquire data, score today and print the report")
		fmt.Println("  baseline  Recompute rolling baselines from stored history")
		fmt.Println("  history   Show recent daily scores")
		fmt.Println("  cache     List cached source payloads")
		fmt.Println("  doctor    Check whether the pulsewatch setup is healthy")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.pulsewatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

// newLogger builds the slog logger injected into the pipeline and its
// clients. Errors only by default; --verbose lowers the level to debug.
func newLogger() *slog.Logger {
	level := slog.LevelError
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
