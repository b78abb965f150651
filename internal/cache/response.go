package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"
)

// Entry is one cached provider response.
type Entry struct {
	QueryHash string    `json:"query_hash"`
	QueryText string    `json:"query_text"`
	Provider  string    `json:"provider"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	HitCount  int64     `json:"hit_count"`
}

// ResponseCache stores provider answers keyed by a hash of
// (provider, normalized query). It absorbs repeated queries to cut external
// calls; every failure degrades to a miss so callers always fall through to a
// live provider call.
type ResponseCache struct {
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewResponseCache creates a ResponseCache with the given entry TTL.
func NewResponseCache(c Cache, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ResponseCache{cache: c, ttl: ttl, now: time.Now}
}

// QueryHash returns the FNV-1a hash of provider + ":" + normalized query.
func QueryHash(provider, query string) string {
	h := fnv.New64a()
	h.Write([]byte(provider + ":" + strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Get returns the cached response for (provider, query) if present and not
// expired. A hit increments the hit counter asynchronously; failure to
// increment never fails the read.
func (rc *ResponseCache) Get(ctx context.Context, provider, query string) (string, bool) {
	hash := QueryHash(provider, query)

	raw, found, err := rc.cache.Get(ctx, ResponseKey(hash))
	if err != nil {
		slog.Warn("response cache read failed", "error", err, "provider", provider)
		return "", false
	}
	if !found {
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Warn("response cache entry corrupt", "error", err, "query_hash", hash)
		return "", false
	}

	// An entry past its recorded expiry is a miss even if the store still
	// holds it; the sweep will reap it later.
	if !rc.now().Before(entry.ExpiresAt) {
		return "", false
	}

	go func() {
		incrCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := rc.cache.Incr(incrCtx, ResponseHitsKey(hash)); err != nil {
			slog.Debug("hit count increment failed", "error", err, "query_hash", hash)
		}
	}()

	return entry.Response, true
}

// Set stores a provider response, upserting on key collision: the response is
// replaced and the expiry reset. Store failures are logged and swallowed.
func (rc *ResponseCache) Set(ctx context.Context, provider, query, response string) {
	hash := QueryHash(provider, query)
	now := rc.now()

	entry := Entry{
		QueryHash: hash,
		QueryText: query,
		Provider:  provider,
		Response:  response,
		CreatedAt: now,
		ExpiresAt: now.Add(rc.ttl),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		slog.Warn("response cache encode failed", "error", err, "query_hash", hash)
		return
	}

	// Redis TTL runs slightly past the recorded expiry so the sweep can
	// observe and count expired entries.
	if err := rc.cache.Set(ctx, ResponseKey(hash), raw, rc.ttl+time.Hour); err != nil {
		slog.Warn("response cache write failed", "error", err, "provider", provider)
	}
}

// Sweep deletes all entries whose recorded expiry has passed and returns the
// count removed. Safe to run concurrently with reads and writes; a stale read
// racing a deletion is acceptable.
func (rc *ResponseCache) Sweep(ctx context.Context) (int, error) {
	keys, err := rc.cache.Scan(ctx, ResponseKey("*"))
	if err != nil {
		return 0, fmt.Errorf("scanning cache entries: %w", err)
	}

	removed := 0
	now := rc.now()
	for _, key := range keys {
		raw, found, err := rc.cache.Get(ctx, key)
		if err != nil || !found {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// Corrupt entries are reaped too.
			if rc.cache.Delete(ctx, key) == nil {
				removed++
			}
			continue
		}

		if now.Before(entry.ExpiresAt) {
			continue
		}

		if err := rc.cache.Delete(ctx, key, ResponseHitsKey(entry.QueryHash)); err != nil {
			slog.Warn("cache sweep delete failed", "error", err, "key", key)
			continue
		}
		removed++
	}

	return removed, nil
}
