package price

import (
	"context"
	"strings"
	"sync"
	"time"
)

type cachedEntry struct {
	usd       float64
	fetchedAt time.Time
}

// Cached decorates another source with a TTL cache. Stale entries are
// refreshed on demand; a failed refresh surfaces the inner error rather
// than serving the stale value.
type Cached struct {
	inner Source
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedEntry
}

// NewCached wraps inner with a TTL cache.
func NewCached(inner Source, ttl time.Duration) *Cached {
	return &Cached{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedEntry),
	}
}

// GetPrice returns a cached price while fresh, otherwise asks the inner
// source and stores the result.
func (c *Cached) GetPrice(ctx context.Context, tokenAddress string) (float64, error) {
	key := strings.ToLower(tokenAddress)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.usd, nil
	}

	usd, err := c.inner.GetPrice(ctx, tokenAddress)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.entries[key] = cachedEntry{usd: usd, fetchedAt: c.now()}
	c.mu.Unlock()

	return usd, nil
}
