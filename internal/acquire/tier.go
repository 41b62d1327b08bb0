// Package acquire runs the per-source fallback chain: live API, then
// bulk export, then cache, each attempted exactly once per invocation.
// Chains are plain data (an ordered slice of tiers), so the
// coordinator logic is independent of which fetchers sit behind it.
package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/source"
	"github.com/blackwell-systems/pulsewatch/internal/store"
)

// Fetch is one tier's successful output: the payload plus when it was
// actually retrieved from the outside world. For cache reads that is
// the original fetch time, not now.
type Fetch struct {
	Payload   *health.Payload
	FetchedAt time.Time
}

// Tier is one strategy in a fallback chain.
type Tier struct {
	Kind health.Tier
	Run  func(ctx context.Context) (*Fetch, error)
}

// LiveTier wraps a fetcher as the first-choice live API tier.
func LiveTier(f source.Fetcher) Tier {
	return fetcherTier(health.TierLive, f)
}

// ExportTier wraps a fetcher as the secondary bulk-export tier.
func ExportTier(f source.Fetcher) Tier {
	return fetcherTier(health.TierExport, f)
}

func fetcherTier(kind health.Tier, f source.Fetcher) Tier {
	return Tier{
		Kind: kind,
		Run: func(ctx context.Context) (*Fetch, error) {
			payload, err := f.Fetch(ctx)
			if err != nil {
				return nil, err
			}
			return &Fetch{Payload: payload, FetchedAt: time.Now()}, nil
		},
	}
}

// CacheTier reads the most recent stored entry for a source. It is
// the last tier in every chain and never writes anything.
func CacheTier(db *store.DB, src health.Source) Tier {
	return Tier{
		Kind: health.TierCache,
		Run: func(_ context.Context) (*Fetch, error) {
			entry, payload, err := readCache(db, src)
			if err != nil {
				return nil, err
			}
			if entry == nil {
				return nil, fmt.Errorf("no cache entry for %s: %w", src, source.ErrEmpty)
			}
			return &Fetch{Payload: payload, FetchedAt: entry.FetchedAt}, nil
		},
	}
}

// readCache loads and decodes the newest cache entry for a source.
// Returns (nil, nil, nil) when the source has never been cached.
func readCache(db *store.DB, src health.Source) (*store.CacheEntry, *health.Payload, error) {
	entry, err := db.LatestCacheEntry(src)
	if err != nil {
		return nil, nil, fmt.Errorf("reading cache for %s: %w", src, err)
	}
	if entry == nil {
		return nil, nil, nil
	}
	var payload health.Payload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return nil, nil, fmt.Errorf("decoding cached payload for %s: %w", src, source.ErrParse)
	}
	return entry, &payload, nil
}
