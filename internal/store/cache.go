package store

import (
	"database/sql"
	"time"

	"github.com/blackwell-systems/pulsewatch/internal/health"
)

// PutCacheEntry inserts or overwrites the cache entry for the entry's
// (source, day) key. Overwriting is the only way an entry ever changes;
// there is no eviction.
func (db *DB) PutCacheEntry(e *CacheEntry) error {
	_, err := db.conn.Exec(
		`INSERT INTO cache_entries (source, day, tier, fetched_at, payload)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source, day) DO UPDATE SET
		   tier = excluded.tier,
		   fetched_at = excluded.fetched_at,
		   payload = excluded.payload`,
		string(e.Source), e.Day, string(e.Tier),
		e.FetchedAt.UTC().Format(time.RFC3339), string(e.Payload),
	)
	return err
}

// GetCacheEntry returns the entry for an exact (source, day) key, or
// nil if none exists.
func (db *DB) GetCacheEntry(source health.Source, day string) (*CacheEntry, error) {
	row := db.conn.QueryRow(
		"SELECT source, day, tier, fetched_at, payload FROM cache_entries WHERE source = ? AND day = ?",
		string(source), day,
	)
	return scanCacheEntry(row)
}

// LatestCacheEntry returns the most recently fetched entry for a
// source, or nil if the source has never been cached. This backs the
// cache tier of the fallback chain.
func (db *DB) LatestCacheEntry(source health.Source) (*CacheEntry, error) {
	row := db.conn.QueryRow(
		"SELECT source, day, tier, fetched_at, payload FROM cache_entries WHERE source = ? ORDER BY fetched_at DESC LIMIT 1",
		string(source),
	)
	return scanCacheEntry(row)
}

// ListCacheEntries returns all cache entries, newest first.
func (db *DB) ListCacheEntries() ([]CacheEntry, error) {
	rows, err := db.conn.Query(
		"SELECT source, day, tier, fetched_at, payload FROM cache_entries ORDER BY fetched_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		var source, tier, fetchedAt, payload string
		if err := rows.Scan(&source, &e.Day, &tier, &fetchedAt, &payload); err != nil {
			return nil, err
		}
		e.Source = health.Source(source)
		e.Tier = health.Tier(tier)
		e.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanCacheEntry(row *sql.Row) (*CacheEntry, error) {
	var e CacheEntry
	var source, tier, fetchedAt, payload string
	err := row.Scan(&source, &e.Day, &tier, &fetchedAt, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Source = health.Source(source)
	e.Tier = health.Tier(tier)
	e.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
	e.Payload = []byte(payload)
	return &e, nil
}
