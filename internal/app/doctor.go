package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/output"
	"github.com/blackwell-systems/pulsewatch/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the pulsewatch setup is healthy",
	Long: `Run a series of health checks against your pulsewatch configuration,
source credentials, data directory, and database. Prints a pass/fail
line for each check and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		output.SetNoColor(true)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var checks []doctorCheck

	// 1. Config file: exists at the expected location.
	checks = append(checks, checkConfigFile())

	// 2. Data directory: exists and is a directory.
	checks = append(checks, checkDataDir(cfg.DataDir))

	// 3. Oura: API token configured.
	checks = append(checks, checkOura(cfg.Sources))

	// 4. Export directory: the offline fallback for the metrics source.
	checks = append(checks, checkExportDir(cfg.Sources.ExportDir))

	// 5. Strava: OAuth credentials configured.
	checks = append(checks, checkStrava(cfg.Sources))

	// 6. Sheets: sheet ID configured.
	checks = append(checks, checkSheets(cfg.Sources))

	// 7-9. Database-backed checks: file, cache freshness, baseline state.
	checks = append(checks, checkDatabase(cfg)...)

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		out := doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkConfigFile reports whether a config file exists where Load will
// look for one. Missing is not fatal; defaults and env vars still apply.
func checkConfigFile() doctorCheck {
	path := flagConfig
	if path == "" {
		path = filepath.Join(config.DataDirPath(), "config.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{
			Name:    "Config file",
			Passed:  false,
			Message: fmt.Sprintf("not found: %s (defaults and env vars still apply)", path),
		}
	}
	return doctorCheck{
		Name:    "Config file",
		Passed:  true,
		Message: path,
	}
}

// checkDataDir verifies that the data directory exists and is a directory.
func checkDataDir(dataDir string) doctorCheck {
	info, err := os.Stat(dataDir)
	if err != nil {
		return doctorCheck{
			Name:    "Data directory",
			Passed:  false,
			Message: fmt.Sprintf("not found: %s (created on first run)", dataDir),
		}
	}
	if !info.IsDir() {
		return doctorCheck{
			Name:    "Data directory",
			Passed:  false,
			Message: fmt.Sprintf("path exists but is not a directory: %s", dataDir),
		}
	}
	return doctorCheck{
		Name:    "Data directory",
		Passed:  true,
		Message: dataDir,
	}
}

// checkOura verifies the oura API token is configured.
func checkOura(src config.Sources) doctorCheck {
	if src.OuraToken == "" {
		return doctorCheck{
			Name:    "Oura token",
			Passed:  false,
			Message: "sources.oura_token is not set (live tier will fail)",
		}
	}
	return doctorCheck{
		Name:    "Oura token",
		Passed:  true,
		Message: maskSecret(src.OuraToken),
	}
}

// checkExportDir verifies the export drop directory exists and counts
// the export files in it. An empty directory still passes; the export
// tier simply has nothing to serve yet.
func checkExportDir(dir string) doctorCheck {
	if _, err := os.Stat(dir); err != nil {
		return doctorCheck{
			Name:    "Export directory",
			Passed:  false,
			Message: fmt.Sprintf("not found: %s (export tier will be skipped)", dir),
		}
	}
	matches, err := filepath.Glob(filepath.Join(dir, "oura_export*.json"))
	if err != nil || len(matches) == 0 {
		return doctorCheck{
			Name:    "Export directory",
			Passed:  true,
			Message: fmt.Sprintf("%s (no export files yet)", dir),
		}
	}
	return doctorCheck{
		Name:    "Export directory",
		Passed:  true,
		Message: fmt.Sprintf("%d export file(s)", len(matches)),
	}
}

// checkStrava verifies the strava OAuth credentials are configured.
func checkStrava(src config.Sources) doctorCheck {
	var missing []string
	if src.StravaClientID == "" {
		missing = append(missing, "strava_client_id")
	}
	if src.StravaClientSecret == "" {
		missing = append(missing, "strava_client_secret")
	}
	if src.StravaRefreshToken == "" {
		missing = append(missing, "strava_refresh_token")
	}
	if len(missing) > 0 {
		return doctorCheck{
			Name:    "Strava credentials",
			Passed:  false,
			Message: "missing " + strings.Join(missing, ", "),
		}
	}
	return doctorCheck{
		Name:    "Strava credentials",
		Passed:  true,
		Message: "client and refresh token set",
	}
}

// checkSheets verifies the spreadsheet source is configured.
func checkSheets(src config.Sources) doctorCheck {
	if src.SheetID == "" {
		return doctorCheck{
			Name:    "Sheet ID",
			Passed:  false,
			Message: "sources.sheet_id is not set (body composition will be skipped)",
		}
	}
	return doctorCheck{
		Name:    "Sheet ID",
		Passed:  true,
		Message: maskSecret(src.SheetID),
	}
}

// checkDatabase verifies the SQLite database exists, then runs the
// checks that need to read it. A missing database fails all three.
func checkDatabase(cfg *config.Config) []doctorCheck {
	dbPath := cfg.DBPath()
	if _, err := os.Stat(dbPath); err != nil {
		return []doctorCheck{
			{
				Name:    "Database",
				Passed:  false,
				Message: fmt.Sprintf("not found at %s (run 'pulsewatch run' to create)", dbPath),
			},
			{Name: "Cache freshness", Passed: false, Message: "no database"},
			{Name: "Baselines", Passed: false, Message: "no database"},
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return []doctorCheck{
			{
				Name:    "Database",
				Passed:  false,
				Message: fmt.Sprintf("cannot open: %v", err),
			},
			{Name: "Cache freshness", Passed: false, Message: "no database"},
			{Name: "Baselines", Passed: false, Message: "no database"},
		}
	}
	defer func() { _ = db.Close() }()

	checks := []doctorCheck{{Name: "Database", Passed: true, Message: dbPath}}
	checks = append(checks, checkCacheFreshness(db, cfg))
	checks = append(checks, checkBaselines(db))
	return checks
}

// checkCacheFreshness verifies every source has a reasonably fresh
// cache entry, so the last fallback tier has something to serve.
func checkCacheFreshness(db *store.DB, cfg *config.Config) doctorCheck {
	now := time.Now()
	window := 2 * cfg.Fetch.FreshWindow()

	var stale []string
	for _, src := range health.Sources {
		e, err := db.LatestCacheEntry(src)
		if err != nil {
			stale = append(stale, fmt.Sprintf("%s: %v", src, err))
			continue
		}
		if e == nil {
			stale = append(stale, fmt.Sprintf("%s: never cached", src))
			continue
		}
		if age := e.Age(now); age > window {
			stale = append(stale, fmt.Sprintf("%s: %s old", src, formatAge(age)))
		}
	}

	if len(stale) > 0 {
		return doctorCheck{
			Name:    "Cache freshness",
			Passed:  false,
			Message: strings.Join(stale, "; "),
		}
	}
	return doctorCheck{
		Name:    "Cache freshness",
		Passed:  true,
		Message: fmt.Sprintf("every source cached within %s", formatAge(window)),
	}
}

// checkBaselines reports whether personal baselines have accumulated
// or scores are still measured against population defaults.
func checkBaselines(db *store.DB) doctorCheck {
	baselines, err := db.GetBaselines()
	if err != nil {
		return doctorCheck{
			Name:    "Baselines",
			Passed:  false,
			Message: fmt.Sprintf("error reading baselines: %v", err),
		}
	}
	if len(baselines) == 0 {
		return doctorCheck{
			Name:    "Baselines",
			Passed:  false,
			Message: "not computed yet (run 'pulsewatch run')",
		}
	}

	defaults := 0
	for _, b := range baselines {
		if b.IsDefault {
			defaults++
		}
	}
	if defaults > 0 {
		return doctorCheck{
			Name:    "Baselines",
			Passed:  false,
			Message: fmt.Sprintf("%d of %d still population defaults (need more history)", defaults, len(baselines)),
		}
	}
	return doctorCheck{
		Name:    "Baselines",
		Passed:  true,
		Message: fmt.Sprintf("%d personal baseline(s)", len(baselines)),
	}
}

// maskSecret shows only the first few characters of a credential.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "set"
	}
	return s[:4] + "..."
}
