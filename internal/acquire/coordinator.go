package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/pulsewatch/internal/config"
	"github.com/blackwell-systems/pulsewatch/internal/health"
	"github.com/blackwell-systems/pulsewatch/internal/store"
)

// ErrNoData means every tier in a source's chain failed and no cache
// entry existed to fall back on.
var ErrNoData = errors.New("no data available from any tier")

// Request names a logical source and the ordered tiers to try for it.
type Request struct {
	Source health.Source
	Chain  []Tier
}

// Attempt records the outcome of one tier attempt. Err is nil for the
// attempt that produced the result.
type Attempt struct {
	Tier health.Tier
	Err  error
}

// Result is the outcome of acquiring one source. Payload is nil and
// Err is set when the whole chain failed; otherwise Tier tells which
// tier produced the data and AgeDays how stale it is (zero except for
// cache-served results).
type Result struct {
	Source    health.Source
	Payload   *health.Payload
	Tier      health.Tier
	AgeDays   int
	FetchedAt time.Time
	Attempts  []Attempt
	Err       error
}

// OK reports whether the source produced data.
func (r *Result) OK() bool { return r.Err == nil }

// Reason summarizes why every tier failed, for the per-source failure
// slot in the final report.
func (r *Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		if a.Err != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", a.Tier, a.Err))
		}
	}
	if len(parts) == 0 {
		return r.Err.Error()
	}
	return strings.Join(parts, "; ")
}

// Coordinator walks fallback chains and owns all cache writes. Each
// tier runs at most once per Acquire call; there are no retries at
// this layer or below.
type Coordinator struct {
	db          *store.DB
	timeout     time.Duration
	freshWindow time.Duration
	logger      *slog.Logger
}

func New(db *store.DB, cfg *config.Config, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		db:          db,
		timeout:     cfg.Fetch.Timeout(),
		freshWindow: cfg.Fetch.FreshWindow(),
		logger:      logger,
	}
}

// Acquire produces a best-effort result for one source. Unless
// forceFresh is set, a cache entry younger than the fresh window
// short-circuits the chain entirely and keeps its stored provenance
// tag, since it memoizes a recent successful fetch. Otherwise tiers
// run in order; the first success on a non-cache tier is written back
// to the cache.
func (c *Coordinator) Acquire(ctx context.Context, req Request, forceFresh bool) *Result {
	now := time.Now()

	if !forceFresh && c.freshWindow > 0 {
		entry, payload, err := readCache(c.db, req.Source)
		if err != nil {
			c.logger.Warn("fresh-cache check failed", "source", req.Source, "error", err)
		} else if entry != nil && entry.Age(now) < c.freshWindow {
			c.logger.Debug("serving fresh cache entry",
				"source", req.Source, "tier", entry.Tier, "age", entry.Age(now).Round(time.Minute))
			return &Result{
				Source:    req.Source,
				Payload:   payload,
				Tier:      entry.Tier,
				AgeDays:   entry.AgeDays(now),
				FetchedAt: entry.FetchedAt,
			}
		}
	}

	result := &Result{Source: req.Source}
	for _, tier := range req.Chain {
		fetch, err := c.attempt(ctx, tier)
		result.Attempts = append(result.Attempts, Attempt{Tier: tier.Kind, Err: err})
		if err != nil {
			c.logger.Debug("tier failed",
				"source", req.Source, "tier", tier.Kind, "error", err)
			continue
		}

		result.Payload = fetch.Payload
		result.Tier = tier.Kind
		result.FetchedAt = fetch.FetchedAt
		if tier.Kind == health.TierCache {
			result.AgeDays = int(now.Sub(fetch.FetchedAt).Hours() / 24)
			c.logger.Info("source served from cache",
				"source", req.Source, "age_days", result.AgeDays)
		} else {
			c.writeCache(req.Source, tier.Kind, fetch, now)
		}
		return result
	}

	result.Err = ErrNoData
	c.logger.Warn("source exhausted all tiers", "source", req.Source, "reason", result.Reason())
	return result
}

// attempt runs one tier under the per-attempt timeout.
func (c *Coordinator) attempt(ctx context.Context, tier Tier) (*Fetch, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return tier.Run(ctx)
}

// writeCache persists a live or export fetch. A write failure is not
// an acquisition failure: the data is already in hand, the miss only
// weakens a future fallback.
func (c *Coordinator) writeCache(src health.Source, tier health.Tier, fetch *Fetch, now time.Time) {
	raw, err := json.Marshal(fetch.Payload)
	if err != nil {
		c.logger.Warn("encoding payload for cache", "source", src, "error", err)
		return
	}
	entry := &store.CacheEntry{
		Source:    src,
		Day:       cacheDay(fetch.Payload, now),
		Tier:      tier,
		FetchedAt: fetch.FetchedAt,
		Payload:   raw,
	}
	if err := c.db.PutCacheEntry(entry); err != nil {
		c.logger.Warn("writing cache entry", "source", src, "error", err)
		return
	}
	c.logger.Debug("cached payload", "source", src, "day", entry.Day, "tier", tier)
}

// cacheDay picks the calendar-day half of the cache key: the most
// recent day the payload covers, or today when the payload has no
// dated records (an empty activity week still deserves an entry).
func cacheDay(p *health.Payload, now time.Time) string {
	day := ""
	if latest := p.LatestDay(); latest != nil {
		day = latest.Day
	}
	for _, a := range p.Activities {
		if d := a.Day(); d > day {
			day = d
		}
	}
	if p.BodyComp != nil && p.BodyComp.Day > day {
		day = p.BodyComp.Day
	}
	if day == "" {
		day = now.Format("2006-01-02")
	}
	return day
}

// AcquireAll runs every request concurrently and returns a result per
// source. One source failing never cancels or degrades the others,
// which is why the group callbacks always return nil.
func (c *Coordinator) AcquireAll(ctx context.Context, reqs []Request, forceFresh bool) map[health.Source]*Result {
	results := make([]*Result, len(reqs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			results[i] = c.Acquire(egCtx, req, forceFresh)
			return nil
		})
	}
	_ = eg.Wait()

	out := make(map[health.Source]*Result, len(results))
	for _, r := range results {
		out[r.Source] = r
	}
	return out
}
