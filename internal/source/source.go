// Package source contains one boundary adapter per external data
// provider. Each fetcher makes a single outbound call, normalizes the
// provider's shape into health.Payload, and reports failure with one
// of the sentinel errors below. Fetchers never retry and never touch
// the cache; fallback policy belongs to the acquire package.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/blackwell-systems/pulsewatch/internal/health"
)

// Sentinel errors classifying why a fetch failed. The acquire
// coordinator treats them all the same way (move to the next tier)
// but they surface in logs and in the per-source failure reasons.
var (
	// ErrAuth means credentials were rejected or missing.
	ErrAuth = errors.New("authentication failed")
	// ErrRateLimited means the provider refused the call for quota reasons.
	ErrRateLimited = errors.New("rate limited")
	// ErrNetwork covers transport failures, including timeouts.
	ErrNetwork = errors.New("network error")
	// ErrParse means the provider responded but the body was not usable.
	ErrParse = errors.New("parse error")
	// ErrEmpty means the call succeeded but carried no records.
	ErrEmpty = errors.New("empty result")
)

// Fetcher is one external source. Fetch returns a normalized payload
// or an error wrapping one of the sentinels above.
type Fetcher interface {
	Source() health.Source
	Fetch(ctx context.Context) (*health.Payload, error)
}

// classifyStatus maps an HTTP response status to a sentinel error, or
// nil for 2xx.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", code, ErrAuth)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", code, ErrRateLimited)
	default:
		return fmt.Errorf("status %d: %w", code, ErrNetwork)
	}
}

// classifyTransport wraps a client.Do error. Timeouts and cancellation
// count as network failures so the fallback chain keeps moving.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("request timed out: %w", ErrNetwork)
	}
	return fmt.Errorf("%v: %w", err, ErrNetwork)
}
