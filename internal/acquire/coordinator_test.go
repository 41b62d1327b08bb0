package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/source"
	"github.com/blackwell-systems/pulsewatch/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCoordinator(t *testing.T, freshWindow time.Duration) (*Coordinator, *store.DB) {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	c := &Coordinator{
		db:          db,
		timeout:     time.Second,
		freshWindow: freshWindow,
		logger:      testLogger(),
	}
	return c, db
}

// countingTier returns a tier that increments *calls and delegates to fn.
func countingTier(kind health.Tier, calls *int, fn func() (*Fetch, error)) Tier {
	return Tier{
		Kind: kind,
		Run: func(_ context.Context) (*Fetch, error) {
			*calls++
			return fn()
		},
	}
}

func okFetch(day string) func() (*Fetch, error) {
	return func() (*Fetch, error) {
		return &Fetch{
			Payload:   &health.Payload{Days: []health.DailyRecord{{Day: day, HRV: 60}}},
			FetchedAt: time.Now(),
		}, nil
	}
}

func failFetch(err error) func() (*Fetch, error) {
	return func() (*Fetch, error) { return nil, err }
}

func seedCache(t *testing.T, db *store.DB, src health.Source, day string, tier health.Tier, fetchedAt time.Time) {
	t.Helper()
	payload, err := json.Marshal(&health.Payload{Days: []health.DailyRecord{{Day: day, HRV: 55}}})
	if err != nil {
		t.Fatal(err)
	}
	err = db.PutCacheEntry(&store.CacheEntry{
		Source: src, Day: day, Tier: tier, FetchedAt: fetchedAt, Payload: payload,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAcquire_LiveSuccessWritesCache(t *testing.T) {
	c, db := testCoordinator(t, 0)

	var live, cache int
	req := Request{
		Source: health.SourceOura,
		Chain: []Tier{
			countingTier(health.TierLive, &live, okFetch("2026-03-10")),
			countingTier(health.TierCache, &cache, failFetch(source.ErrEmpty)),
		},
	}

	res := c.Acquire(context.Background(), req, false)
	if !res.OK() {
		t.Fatalf("Acquire() failed: %v", res.Err)
	}
	if res.Tier != health.TierLive {
		t.Errorf("Tier = %v, want live", res.Tier)
	}
	if res.AgeDays != 0 {
		t.Errorf("AgeDays = %d, want 0", res.AgeDays)
	}
	if live != 1 || cache != 0 {
		t.Errorf("tier calls = live %d, cache %d; want 1, 0", live, cache)
	}

	entry, err := db.GetCacheEntry(health.SourceOura, "2026-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil {
		t.Fatal("live success did not write a cache entry")
	}
	if entry.Tier != health.TierLive {
		t.Errorf("cached tier = %v, want live", entry.Tier)
	}
}

func TestAcquire_FallsBackToExport(t *testing.T) {
	c, db := testCoordinator(t, 0)

	var live, export int
	req := Request{
		Source: health.SourceOura,
		Chain: []Tier{
			countingTier(health.TierLive, &live, failFetch(source.ErrAuth)),
			countingTier(health.TierExport, &export, okFetch("2026-03-09")),
			CacheTier(db, health.SourceOura),
		},
	}

	res := c.Acquire(context.Background(), req, false)
	if !res.OK() {
		t.Fatalf("Acquire() failed: %v", res.Err)
	}
	if res.Tier != health.TierExport {
		t.Errorf("Tier = %v, want export", res.Tier)
	}
	if live != 1 || export != 1 {
		t.Errorf("tier calls = live %d, export %d; want 1, 1", live, export)
	}

	entry, err := db.GetCacheEntry(health.SourceOura, "2026-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Tier != health.TierExport {
		t.Errorf("export success not cached with export tier: %+v", entry)
	}
}

func TestAcquire_ExhaustedFallsBackToCache(t *testing.T) {
	c, db := testCoordinator(t, 0)

	fetchedAt := time.Now().Add(-5 * 24 * time.Hour)
	seedCache(t, db, health.SourceOura, "2026-03-05", health.TierLive, fetchedAt)

	var live, export int
	req := Request{
		Source: health.SourceOura,
		Chain: []Tier{
			countingTier(health.TierLive, &live, failFetch(source.ErrNetwork)),
			countingTier(health.TierExport, &export, failFetch(source.ErrEmpty)),
			CacheTier(db, health.SourceOura),
		},
	}

	res := c.Acquire(context.Background(), req, false)
	if !res.OK() {
		t.Fatalf("Acquire() failed: %v", res.Err)
	}
	if res.Tier != health.TierCache {
		t.Errorf("Tier = %v, want cache", res.Tier)
	}
	if res.AgeDays != 5 {
		t.Errorf("AgeDays = %d, want 5", res.AgeDays)
	}
	if len(res.Payload.Days) != 1 || res.Payload.Days[0].Day != "2026-03-05" {
		t.Errorf("payload did not round-trip through cache: %+v", res.Payload)
	}

	// The cache tier must not have written anything: still one entry,
	// still tagged with the tier that originally produced it.
	entries, err := db.ListCacheEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d cache entries, want 1", len(entries))
	}
	if entries[0].Tier != health.TierLive {
		t.Errorf("stored tier mutated to %v", entries[0].Tier)
	}
}

func TestAcquire_AllTiersFail(t *testing.T) {
	c, _ := testCoordinator(t, 0)

	var live, export, cache int
	req := Request{
		Source: health.SourceOura,
		Chain: []Tier{
			countingTier(health.TierLive, &live, failFetch(source.ErrAuth)),
			countingTier(health.TierExport, &export, failFetch(source.ErrParse)),
			countingTier(health.TierCache, &cache, failFetch(source.ErrEmpty)),
		},
	}

	res := c.Acquire(context.Background(), req, false)
	if res.OK() {
		t.Fatal("Acquire() succeeded with every tier failing")
	}
	if !errors.Is(res.Err, ErrNoData) {
		t.Errorf("Err = %v, want ErrNoData", res.Err)
	}
	if live != 1 || export != 1 || cache != 1 {
		t.Errorf("tier calls = %d, %d, %d; want each exactly once", live, export, cache)
	}
	if len(res.Attempts) != 3 {
		t.Errorf("got %d attempts, want 3", len(res.Attempts))
	}
	if res.Reason() == "" {
		t.Error("Reason() is empty for an exhausted chain")
	}
}

func TestAcquire_FreshCacheShortCircuitsChain(t *testing.T) {
	c, db := testCoordinator(t, 24*time.Hour)

	seedCache(t, db, health.SourceOura, "2026-03-10", health.TierLive, time.Now().Add(-time.Hour))

	var live int
	req := Request{
		Source: health.SourceOura,
		Chain: []Tier{
			countingTier(health.TierLive, &live, okFetch("2026-03-10")),
			CacheTier(db, health.SourceOura),
		},
	}

	res := c.Acquire(context.Background(), req, false)
	if !res.OK() {
		t.Fatalf("Acquire() failed: %v", res.Err)
	}
	// A fresh entry keeps the provenance of the fetch that stored it.
	if res.Tier != health.TierLive {
		t.Errorf("Tier = %v, want stored tier live", res.Tier)
	}
	if live != 0 {
		t.Errorf("live tier ran %d times despite fresh cache", live)
	}

	// force-fresh skips the shortcut and hits the live tier.
	res = c.Acquire(context.Background(), req, true)
	if !res.OK() {
		t.Fatalf("force-fresh Acquire() failed: %v", res.Err)
	}
	if live != 1 {
		t.Errorf("live tier ran %d times under force-fresh, want 1", live)
	}
}

func TestAcquire_StaleCacheDoesNotShortCircuit(t *testing.T) {
	c, db := testCoordinator(t, 24*time.Hour)

	seedCache(t, db, health.SourceOura, "2026-03-08", health.TierLive, time.Now().Add(-30*time.Hour))

	var live int
	req := Request{
		Source: health.SourceOura,
		Chain:  []Tier{countingTier(health.TierLive, &live, okFetch("2026-03-10"))},
	}

	res := c.Acquire(context.Background(), req, false)
	if !res.OK() {
		t.Fatalf("Acquire() failed: %v", res.Err)
	}
	if live != 1 {
		t.Errorf("live tier ran %d times, want 1 for a stale entry", live)
	}
	if res.Tier != health.TierLive {
		t.Errorf("Tier = %v, want live", res.Tier)
	}
}

func TestAcquire_TimeoutMovesToNextTier(t *testing.T) {
	c, _ := testCoordinator(t, 0)
	c.timeout = 50 * time.Millisecond

	var export int
	req := Request{
		Source: health.SourceStrava,
		Chain: []Tier{
			{
				Kind: health.TierLive,
				Run: func(ctx context.Context) (*Fetch, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			},
			countingTier(health.TierExport, &export, okFetch("2026-03-10")),
		},
	}

	res := c.Acquire(context.Background(), req, false)
	if !res.OK() {
		t.Fatalf("Acquire() failed: %v", res.Err)
	}
	if res.Tier != health.TierExport {
		t.Errorf("Tier = %v, want export after live timeout", res.Tier)
	}
	if export != 1 {
		t.Errorf("export tier ran %d times, want 1", export)
	}
}

func TestAcquireAll_SourcesIndependent(t *testing.T) {
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	// Deferred in this order so the pool closes before the leak check.
	defer goleak.VerifyNone(t)
	defer func() { _ = db.Close() }()

	c := &Coordinator{db: db, timeout: time.Second, logger: testLogger()}

	var oura, strava int
	reqs := []Request{
		{
			Source: health.SourceOura,
			Chain:  []Tier{countingTier(health.TierLive, &oura, failFetch(source.ErrNetwork))},
		},
		{
			Source: health.SourceStrava,
			Chain:  []Tier{countingTier(health.TierLive, &strava, okFetch("2026-03-10"))},
		},
	}

	results := c.AcquireAll(context.Background(), reqs, false)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[health.SourceOura].OK() {
		t.Error("oura result unexpectedly OK")
	}
	if !results[health.SourceStrava].OK() {
		t.Errorf("strava result failed: %v", results[health.SourceStrava].Err)
	}
	if oura != 1 || strava != 1 {
		t.Errorf("tier calls = oura %d, strava %d; want 1, 1", oura, strava)
	}
}

func TestCacheTier_NoEntry(t *testing.T) {
	_, db := testCoordinator(t, 0)

	tier := CacheTier(db, health.SourceSheets)
	_, err := tier.Run(context.Background())
	if !errors.Is(err, source.ErrEmpty) {
		t.Errorf("CacheTier.Run() error = %v, want ErrEmpty", err)
	}
}
