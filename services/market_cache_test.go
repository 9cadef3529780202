package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaishnavius/scraplink/models"
)

func TestMarketDataCacheServesSnapshot(t *testing.T) {
	source := &staticPriceSource{prices: testPrices()}
	cache := NewMarketDataCache(source, 5*time.Minute)

	first := cache.GetCurrentPrices(context.Background())
	if len(first) != 3 {
		t.Fatalf("got %d prices, want 3", len(first))
	}

	second := cache.GetCurrentPrices(context.Background())
	if len(second) != 3 {
		t.Fatalf("got %d prices, want 3", len(second))
	}
	if source.calls != 1 {
		t.Errorf("source fetched %d times within TTL, want 1", source.calls)
	}
}

func TestMarketDataCacheRefreshesAfterTTL(t *testing.T) {
	source := &staticPriceSource{prices: testPrices()}
	cache := NewMarketDataCache(source, 5*time.Minute)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.GetCurrentPrices(context.Background())
	now = now.Add(4 * time.Minute)
	cache.GetCurrentPrices(context.Background())
	if source.calls != 1 {
		t.Fatalf("source fetched %d times before TTL elapsed, want 1", source.calls)
	}

	now = now.Add(2 * time.Minute) // 6 minutes after refresh
	cache.GetCurrentPrices(context.Background())
	if source.calls != 2 {
		t.Errorf("source fetched %d times after TTL elapsed, want 2", source.calls)
	}
}

func TestMarketDataCacheFetchFailure(t *testing.T) {
	source := &staticPriceSource{err: errors.New("connection refused")}
	cache := NewMarketDataCache(source, 5*time.Minute)

	got := cache.GetCurrentPrices(context.Background())
	if got == nil {
		t.Fatal("GetCurrentPrices should return an empty list, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("got %d prices from a failing source, want 0", len(got))
	}

	// A failed refresh leaves nothing cached, so the next read retries.
	cache.GetCurrentPrices(context.Background())
	if source.calls != 2 {
		t.Errorf("source fetched %d times, want a retry after failure", source.calls)
	}
}

func TestMarketDataCacheRecoversAfterFailure(t *testing.T) {
	source := &staticPriceSource{err: errors.New("connection refused")}
	cache := NewMarketDataCache(source, 5*time.Minute)

	if got := cache.GetCurrentPrices(context.Background()); len(got) != 0 {
		t.Fatalf("got %d prices while source failing, want 0", len(got))
	}

	source.err = nil
	source.prices = testPrices()
	if got := cache.GetCurrentPrices(context.Background()); len(got) != 3 {
		t.Errorf("got %d prices after source recovered, want 3", len(got))
	}
}

func TestMarketDataCacheInvalidate(t *testing.T) {
	source := &staticPriceSource{prices: []models.ReferencePrice{
		{MaterialType: "copper", CurrentPrice: 670.00},
	}}
	cache := NewMarketDataCache(source, time.Hour)

	cache.GetCurrentPrices(context.Background())

	source.prices = []models.ReferencePrice{
		{MaterialType: "copper", CurrentPrice: 700.00},
	}
	cache.Invalidate()

	got := cache.GetCurrentPrices(context.Background())
	if len(got) != 1 || got[0].CurrentPrice != 700.00 {
		t.Errorf("got %+v, want the post-invalidate price 700.00", got)
	}
	if source.calls != 2 {
		t.Errorf("source fetched %d times, want 2 after invalidate", source.calls)
	}
}

func TestMarketDataCacheDefaultTTL(t *testing.T) {
	cache := NewMarketDataCache(&staticPriceSource{}, 0)
	if cache.ttl != DefaultPriceCacheTTL {
		t.Errorf("ttl = %v, want default %v", cache.ttl, DefaultPriceCacheTTL)
	}
}
