package pipeline

import (
	"sync"
	"time"

	"sellerscout/internal/domain"
)

// RequestCache memoizes collection results per (signature, limit) with a
// TTL checked on read. Stale entries linger until overwritten by the same
// key; there is no eviction sweep.
type RequestCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]requestCacheEntry
	now     func() time.Time
}

type requestCacheEntry struct {
	ts        time.Time
	limit     int
	records   []domain.SellerRecord
	truncated bool
}

// NewRequestCache creates a request cache with the given TTL.
func NewRequestCache(ttl time.Duration) *RequestCache {
	return &RequestCache{
		ttl:     ttl,
		entries: make(map[string]requestCacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached result for the signature if it is fresh and was
// produced with the exact same limit.
func (c *RequestCache) Get(signature string, limit int) (records []domain.SellerRecord, truncated, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[signature]
	if !found {
		return nil, false, false
	}
	if entry.limit != limit || c.now().Sub(entry.ts) >= c.ttl {
		return nil, false, false
	}
	return entry.records, entry.truncated, true
}

// Set stores the result for the signature, replacing any previous entry.
func (c *RequestCache) Set(signature string, limit int, records []domain.SellerRecord, truncated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[signature] = requestCacheEntry{
		ts:        c.now(),
		limit:     limit,
		records:   records,
		truncated: truncated,
	}
}
