package provider

import (
	"context"
	"sync"
	"time"

	"xauron/pkg/model"
)

type cacheEntry struct {
	candles []model.Candle
	fetched time.Time
}

// CachingProvider wraps a Provider with a short-lived in-memory cache keyed
// by symbol and interval. The bot and the scanner often ask for the same
// series within seconds of each other.
type CachingProvider struct {
	inner    Provider
	ttl      time.Duration
	minFetch int
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewCachingProvider creates a caching wrapper. minFetch is the number of
// candles always requested so one fetch serves every strategy.
func NewCachingProvider(inner Provider, ttl time.Duration, minFetch int) *CachingProvider {
	return &CachingProvider{
		inner:    inner,
		ttl:      ttl,
		minFetch: minFetch,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }

func (p *CachingProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	key := symbol + "|" + interval

	p.mu.Lock()
	entry, ok := p.cache[key]
	p.mu.Unlock()

	if ok && p.now().Sub(entry.fetched) < p.ttl && (len(entry.candles) >= limit || len(entry.candles) >= p.minFetch) {
		return tail(entry.candles, limit), nil
	}

	// Fetch enough to satisfy all strategies in one call
	fetch := max(limit, p.minFetch)

	candles, err := p.inner.GetCandles(ctx, symbol, interval, fetch)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = cacheEntry{candles: candles, fetched: p.now()}
	p.mu.Unlock()

	return tail(candles, limit), nil
}

// Purge drops expired entries
func (p *CachingProvider) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for k, e := range p.cache {
		if now.Sub(e.fetched) >= p.ttl {
			delete(p.cache, k)
		}
	}
}

// tail returns a copy of the newest n candles so callers cannot mutate the cache
func tail(candles []model.Candle, n int) []model.Candle {
	if n > 0 && len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	out := make([]model.Candle, len(candles))
	copy(out, candles)
	return out
}
