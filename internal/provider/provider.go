package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"xauron/internal/ratelimit"
	"xauron/internal/symbols"
	"xauron/pkg/model"
)

// ErrNoData means the upstream answered but returned no candles
var ErrNoData = errors.New("no candles returned")

// ErrRateLimited means the upstream rejected the request for quota reasons
var ErrRateLimited = errors.New("rate limited")

// Provider defines the interface for market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetCandles fetches up to limit candles for a symbol, oldest first.
	// interval is a canonical interval such as "5min" or "1h".
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)

	// IsAvailable checks if the provider is usable (has credentials if needed)
	IsAvailable() bool
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func permanent(provider string, format string, args ...any) error {
	return &ProviderError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

func transient(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err, Retryable: true}
}

// rateLimited puts l in its penalty box and reports how long it lasts
func rateLimited(l *ratelimit.Limiter, detail string) error {
	l.SignalRateLimited()
	err := fmt.Errorf("%w, backing off %s", ErrRateLimited, l.GetBackoff())
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}
	return transient(l.Name(), err)
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil && p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetCandles tries each provider in order until one succeeds
func (f *FallbackProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	if len(f.providers) == 0 {
		return nil, permanent(f.Name(), "no data provider available for %s", symbol)
	}

	var lastErr error
	for _, p := range f.providers {
		candles, err := p.GetCandles(ctx, symbol, interval, limit)
		if err == nil {
			return candles, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}

// Router sends stablecoin-quoted crypto pairs to one provider and
// everything else (metals, forex, stocks) to another
type Router struct {
	crypto Provider
	other  Provider
}

// NewRouter creates a router. A nil crypto provider routes everything to other.
func NewRouter(crypto, other Provider) *Router {
	return &Router{crypto: crypto, other: other}
}

// Name returns the provider name
func (r *Router) Name() string {
	return "router"
}

// Route returns the provider that serves symbol
func (r *Router) Route(symbol string) Provider {
	if r.crypto != nil && r.crypto.IsAvailable() && symbols.IsCryptoQuoted(symbol) {
		return r.crypto
	}
	return r.other
}

// GetCandles delegates to the routed provider
func (r *Router) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	p := r.Route(symbol)
	if p == nil {
		return nil, permanent(r.Name(), "no data provider for %s", symbol)
	}
	return p.GetCandles(ctx, symbol, interval, limit)
}

// IsAvailable returns true if the non-crypto route is available
func (r *Router) IsAvailable() bool {
	return r.other != nil && r.other.IsAvailable()
}

// normalize sorts candles oldest first, drops duplicate timestamps and keeps
// the newest limit candles
func normalize(candles []model.Candle, limit int) []model.Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	out := candles[:0]
	for i, c := range candles {
		if i > 0 && c.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = c
			continue
		}
		out = append(out, c)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
