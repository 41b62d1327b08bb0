package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
)

const sheetsExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=csv"

// Column headers in the body composition sheet. The sheet is
// maintained by hand, so rows may repeat the header or carry formula
// artifacts like #NUM! where a cell's inputs are missing.
const (
	colDate     = "Date"
	colWeight   = "Weight (lbs)"
	colBodyFat  = "Body Fat %"
	colLeanMass = "Fat-Free Mass (lbs)"
	colFFMI     = "Fat Free Mass Index (FFMI)"
)

// sheetDateLayout matches dates like "Mon 3/9/2026".
const sheetDateLayout = "Mon 1/2/2006"

// SheetsFetcher pulls the latest body composition row from a published
// Google Sheet via its CSV export URL. No credentials: the sheet must
// be published to the web.
type SheetsFetcher struct {
	exportURL string
	sheetID   string
	client    *http.Client
	logger    *slog.Logger
}

func NewSheets(cfg *config.Config, client *http.Client, logger *slog.Logger) *SheetsFetcher {
	return &SheetsFetcher{
		exportURL: sheetsExportURL,
		sheetID:   cfg.Sources.SheetID,
		client:    client,
		logger:    logger,
	}
}

func (f *SheetsFetcher) Source() health.Source { return health.SourceSheets }

func (f *SheetsFetcher) Fetch(ctx context.Context) (*health.Payload, error) {
	if f.sheetID == "" {
		return nil, fmt.Errorf("no sheet id configured: %w", ErrEmpty)
	}

	reqURL := fmt.Sprintf(f.exportURL, f.sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, classifyTransport(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("sheet not found or not published to web: %w", ErrEmpty)
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("sheets export endpoint: %w", err)
	}

	comp, err := parseLatestBodyComp(resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetched body composition",
		"day", comp.Day, "weight_lbs", comp.WeightLbs)
	return &health.Payload{BodyComp: comp}, nil
}

// parseLatestBodyComp scans the CSV for the last row with a parseable
// date and weight, skipping repeated headers and formula artifacts.
func parseLatestBodyComp(r io.Reader) (*health.BodyComp, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading sheet header: %w", ErrParse)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colDate]; !ok {
		return nil, fmt.Errorf("sheet has no %q column: %w", colDate, ErrParse)
	}

	var latest *health.BodyComp
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading sheet row: %w", ErrParse)
		}

		comp, ok := parseBodyCompRow(row, cols)
		if ok {
			latest = comp
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("sheet has no valid rows: %w", ErrEmpty)
	}
	return latest, nil
}

func parseBodyCompRow(row []string, cols map[string]int) (*health.BodyComp, bool) {
	dateStr := cell(row, cols, colDate)
	weightStr := cell(row, cols, colWeight)
	if dateStr == "" || weightStr == "" || dateStr == colDate {
		return nil, false
	}
	if hasFormulaArtifact(weightStr) {
		return nil, false
	}

	day, err := time.Parse(sheetDateLayout, dateStr)
	if err != nil {
		return nil, false
	}
	weight, err := strconv.ParseFloat(weightStr, 64)
	if err != nil {
		return nil, false
	}

	return &health.BodyComp{
		Day:         day.Format("2006-01-02"),
		WeightLbs:   weight,
		BodyFatPct:  parseOptionalFloat(cell(row, cols, colBodyFat)),
		LeanMassLbs: parseOptionalFloat(cell(row, cols, colLeanMass)),
		FFMI:        parseOptionalFloat(cell(row, cols, colFFMI)),
	}, true
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseOptionalFloat(s string) float64 {
	if s == "" || hasFormulaArtifact(s) {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func hasFormulaArtifact(s string) bool {
	return strings.Contains(s, "#NUM!") || strings.Contains(s, "#VALUE!")
}
