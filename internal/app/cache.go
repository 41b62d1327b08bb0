package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/output"
	"github.com/blackwell-systems/pulsewatch/internal/store"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "List cached source payloads",
	Long: `List every cached payload with its source, day, the tier that produced
it, and its age. The cache is the last fallback tier: when a source
and its export both fail, the newest entry here is what the report
gets built from.`,
	RunE: runCache,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}

// cacheListEntry is the JSON shape for one cache entry. The raw payload
// bytes are noise in a listing, so only their size is reported.
type cacheListEntry struct {
	Source    string    `json:"source"`
	Day       string    `json:"day"`
	Tier      string    `json:"tier"`
	FetchedAt time.Time `json:"fetched_at"`
	AgeDays   int       `json:"age_days"`
	Bytes     int       `json:"bytes"`
}

func runCache(cmd *cobra.Command, args []string) error {
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

	entries, err := db.ListCacheEntries()
	if err != nil {
		return fmt.Errorf("listing cache entries: %w", err)
	}

	now := time.Now()

	if flagJSON {
		out := make([]cacheListEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, cacheListEntry{
				Source:    string(e.Source),
				Day:       e.Day,
				Tier:      string(e.Tier),
				FetchedAt: e.FetchedAt,
				AgeDays:   e.AgeDays(now),
				Bytes:     len(e.Payload),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(output.Section("Cache"))
	fmt.Println()

	if len(entries) == 0 {
		fmt.Printf(" %s\n\n", output.StyleMuted.Render("Cache is empty. Run 'pulsewatch run' to populate it."))
		return nil
	}

	tbl := output.NewTable("Source", "Day", "Tier", "Fetched", "Age", "Size")
	for _, e := range entries {
		tbl.AddRow(
			string(e.Source),
			e.Day,
			string(e.Tier),
			e.FetchedAt.Format("2006-01-02 15:04"),
			formatAge(e.Age(now)),
			fmt.Sprintf("%d B", len(e.Payload)),
		)
	}
	tbl.Print()
	fmt.Println()
	return nil
}

// formatAge renders a duration as a compact age like "3d" or "5h".
func formatAge(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return "now"
	}
}
