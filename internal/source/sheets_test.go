package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sheetHeader = "Date,Weight (lbs),Body Fat %,Fat-Free Mass (lbs),Fat Free Mass Index (FFMI)\n"

func newTestSheets(serverURL string) *SheetsFetcher {
	return &SheetsFetcher{
		exportURL: serverURL + "/%s/export",
		sheetID:   "sheet-1",
		client:    &http.Client{Timeout: 5 * time.Second},
		logger:    testLogger(),
	}
}

func TestSheetsFetch_ReturnsLatestValidRow(t *testing.T) {
	csv := sheetHeader +
		"Mon 3/2/2026,181.2,17.1,150.2,21.4\n" +
		"Mon 3/9/2026,180.0,16.8,149.8,21.3\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sheet-1") {
			t.Errorf("unexpected path: %v", r.URL.Path)
		}
		_, _ = w.Write([]byte(csv))
	}))
	defer server.Close()

	payload, err := newTestSheets(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	comp := payload.BodyComp
	if comp == nil {
		t.Fatal("BodyComp is nil")
	}
	if comp.Day != "2026-03-09" {
		t.Errorf("Day = %q, want 2026-03-09", comp.Day)
	}
	if comp.WeightLbs != 180.0 {
		t.Errorf("WeightLbs = %v, want 180.0", comp.WeightLbs)
	}
	if comp.BodyFatPct != 16.8 {
		t.Errorf("BodyFatPct = %v, want 16.8", comp.BodyFatPct)
	}
	if comp.FFMI != 21.3 {
		t.Errorf("FFMI = %v, want 21.3", comp.FFMI)
	}
}

func TestSheetsFetch_NotPublished(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestSheets(server.URL).Fetch(context.Background())
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Fetch() error = %v, want ErrEmpty", err)
	}
}

func TestSheetsFetch_NoSheetConfigured(t *testing.T) {
	f := newTestSheets("http://unused")
	f.sheetID = ""

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Fetch() error = %v, want ErrEmpty", err)
	}
}

// --- parseLatestBodyComp ---

func TestParseLatestBodyComp_SkipsArtifactsAndRepeatedHeaders(t *testing.T) {
	csv := sheetHeader +
		"Mon 2/23/2026,182.4,17.5,150.5,21.5\n" +
		"Date,Weight (lbs),Body Fat %,Fat-Free Mass (lbs),Fat Free Mass Index (FFMI)\n" +
		"Mon 3/2/2026,#NUM!,#NUM!,#NUM!,#NUM!\n" +
		"Mon 3/9/2026,180.0,#VALUE!,149.8,21.3\n" +
		",,,\n"

	comp, err := parseLatestBodyComp(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parseLatestBodyComp() error: %v", err)
	}
	// The 3/9 row is kept (weight parses); its #VALUE! body fat
	// degrades to zero rather than invalidating the row.
	if comp.Day != "2026-03-09" {
		t.Errorf("Day = %q, want 2026-03-09", comp.Day)
	}
	if comp.BodyFatPct != 0 {
		t.Errorf("BodyFatPct = %v, want 0 for #VALUE! cell", comp.BodyFatPct)
	}
	if comp.LeanMassLbs != 149.8 {
		t.Errorf("LeanMassLbs = %v, want 149.8", comp.LeanMassLbs)
	}
}

func TestParseLatestBodyComp_AllRowsInvalid(t *testing.T) {
	csv := sheetHeader +
		"Mon 3/2/2026,#NUM!,,,\n" +
		"not-a-date,180.0,,,\n"

	_, err := parseLatestBodyComp(strings.NewReader(csv))
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("parseLatestBodyComp() error = %v, want ErrEmpty", err)
	}
}

func TestParseLatestBodyComp_MissingDateColumn(t *testing.T) {
	csv := "Weight (lbs),Body Fat %\n180.0,16.8\n"

	_, err := parseLatestBodyComp(strings.NewReader(csv))
	if !errors.Is(err, ErrParse) {
		t.Errorf("parseLatestBodyComp() error = %v, want ErrParse", err)
	}
}

func TestParseLatestBodyComp_EmptyBody(t *testing.T) {
	_, err := parseLatestBodyComp(strings.NewReader(""))
	if !errors.Is(err, ErrParse) {
		t.Errorf("parseLatestBodyComp() error = %v, want ErrParse", err)
	}
}
