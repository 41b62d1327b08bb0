package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
)

// ouraExport is the shape of a downloaded Oura account export. The
// sleep records match the API's, they just live under a different key.
type ouraExport struct {
	Sleep []ouraSleepRecord `json:"sleep"`
}

// ExportFetcher reads the newest manually downloaded Oura export file
// from the export directory. It is the second tier for the oura
// source, used when the API is unreachable (commonly an expired
// subscription making the token useless while exports still work).
type ExportFetcher struct {
	dir    string
	logger *slog.Logger
}

func NewExport(cfg *config.Config, logger *slog.Logger) *ExportFetcher {
	return &ExportFetcher{dir: cfg.Sources.ExportDir, logger: logger}
}

func (f *ExportFetcher) Source() health.Source { return health.SourceOura }

func (f *ExportFetcher) Fetch(ctx context.Context) (*health.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransport(err)
	}

	path, err := f.newestExport()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export %s: %w", filepath.Base(path), ErrParse)
	}

	var export ouraExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, fmt.Errorf("decoding export %s: %w", filepath.Base(path), ErrParse)
	}

	payload := normalizeOuraSleep(export.Sleep)
	if payload.Empty() {
		return nil, fmt.Errorf("export %s has no sleep records: %w", filepath.Base(path), ErrEmpty)
	}

	f.logger.Debug("parsed oura export file", "file", filepath.Base(path), "days", len(payload.Days))
	return payload, nil
}

// newestExport returns the most recently modified oura_export*.json in
// the export directory.
func (f *ExportFetcher) newestExport() (string, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "oura_export*.json"))
	if err != nil {
		return "", fmt.Errorf("globbing export dir: %w", ErrParse)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no export files in %s: %w", f.dir, ErrEmpty)
	}

	newest := ""
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = m
			newestMod = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no readable export files in %s: %w", f.dir, ErrEmpty)
	}
	return newest, nil
}
