package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeExport(t *testing.T, dir, name, content string, modTime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
}

func TestExportFetch_ParsesNewestFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeExport(t, dir, "oura_export_20260301.json",
		`{"sleep": [{"day": "2026-03-01", "total_sleep_duration": 25200, "time_in_bed": 27000}]}`,
		now.Add(-48*time.Hour))
	writeExport(t, dir, "oura_export_20260310.json",
		`{"sleep": [{"day": "2026-03-10", "total_sleep_duration": 28800, "time_in_bed": 32000}]}`,
		now)

	f := &ExportFetcher{dir: dir, logger: testLogger()}
	payload, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(payload.Days) != 1 {
		t.Fatalf("got %d days, want 1", len(payload.Days))
	}
	if payload.Days[0].Day != "2026-03-10" {
		t.Errorf("Day = %q, want the newer file's 2026-03-10", payload.Days[0].Day)
	}
}

func TestExportFetch_NoFiles(t *testing.T) {
	f := &ExportFetcher{dir: t.TempDir(), logger: testLogger()}

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Fetch() error = %v, want ErrEmpty", err)
	}
}

func TestExportFetch_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "oura_export_bad.json", `{broken`, time.Now())

	f := &ExportFetcher{dir: dir, logger: testLogger()}
	_, err := f.Fetch(context.Background())
	if !errors.Is(err, ErrParse) {
		t.Errorf("Fetch() error = %v, want ErrParse", err)
	}
}

func TestExportFetch_NoSleepRecords(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "oura_export_empty.json", `{"sleep": []}`, time.Now())

	f := &ExportFetcher{dir: dir, logger: testLogger()}
	_, err := f.Fetch(context.Background())
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Fetch() error = %v, want ErrEmpty", err)
	}
}

func TestExportFetch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &ExportFetcher{dir: t.TempDir(), logger: testLogger()}
	_, err := f.Fetch(ctx)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Fetch() error = %v, want ErrNetwork", err)
	}
}
