package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vaishnavius/scraplink/models"
)

// DefaultPriceCacheTTL bounds how stale the served reference prices may be.
const DefaultPriceCacheTTL = 5 * time.Minute

// MarketDataCache holds a snapshot of all reference prices and refreshes it
// wholesale once the TTL elapses. There is no per-material invalidation: a
// refresh clears the snapshot and repopulates it from the source in one swap.
type MarketDataCache struct {
	source PriceSource
	ttl    time.Duration

	mu          sync.RWMutex
	entries     []models.ReferencePrice
	lastRefresh time.Time

	now func() time.Time
}

func NewMarketDataCache(source PriceSource, ttl time.Duration) *MarketDataCache {
	if ttl <= 0 {
		ttl = DefaultPriceCacheTTL
	}
	return &MarketDataCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetCurrentPrices returns the cached snapshot while it is fresh and
// non-empty, refreshing otherwise. A source failure degrades to an empty
// list and is logged; callers treat that as "prices temporarily unavailable"
// rather than an error.
func (c *MarketDataCache) GetCurrentPrices(ctx context.Context) []models.ReferencePrice {
	c.mu.RLock()
	if c.fresh() {
		entries := c.entries
		c.mu.RUnlock()
		return entries
	}
	c.mu.RUnlock()

	return c.refresh(ctx)
}

// LastRefresh reports when the snapshot was last repopulated successfully.
func (c *MarketDataCache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// Invalidate empties the snapshot so the next read refreshes immediately.
// Called after admin price writes so new prices show up without waiting
// out the TTL.
func (c *MarketDataCache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

func (c *MarketDataCache) fresh() bool {
	return len(c.entries) > 0 && c.now().Sub(c.lastRefresh) < c.ttl
}

func (c *MarketDataCache) refresh(ctx context.Context) []models.ReferencePrice {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if c.fresh() {
		return c.entries
	}

	c.entries = nil
	fetched, err := c.source.FetchCurrent(ctx)
	if err != nil {
		log.Printf("market data refresh failed: %v", err)
		return []models.ReferencePrice{}
	}

	c.entries = fetched
	c.lastRefresh = c.now()
	return c.entries
}
