// Package analyzer connects market data to the signal engine: it fetches
// candles, runs a strategy on them and reduces several timeframes to a
// consensus signal.
package analyzer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"xauron/internal/provider"
	"xauron/internal/strategy"
	"xauron/pkg/model"
)

// DefaultCandleLimit is how many candles are requested per analysis.
// Comfortably above the longest warm-up (EMA21, slope 30).
const DefaultCandleLimit = 220

// Analyzer runs one strategy over provider data
type Analyzer struct {
	provider provider.Provider
	strategy strategy.Strategy
	limit    int
	timeout  time.Duration
	logger   zerolog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithCandleLimit sets the number of candles fetched per analysis
func WithCandleLimit(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithTimeout bounds each provider fetch
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		a.timeout = d
	}
}

// WithLogger attaches a logger
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l.With().Str("component", "analyzer").Logger()
	}
}

// New creates an analyzer
func New(p provider.Provider, s strategy.Strategy, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: p,
		strategy: s,
		limit:    DefaultCandleLimit,
		timeout:  15 * time.Second,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Strategy returns the strategy in use
func (a *Analyzer) Strategy() strategy.Strategy {
	return a.strategy
}

// Analyze fetches candles and runs the single-timeframe pipeline. Every
// failure comes back as a *strategy.AnalysisError so callers can report
// symbol and interval.
func (a *Analyzer) Analyze(ctx context.Context, symbol, interval string) (*model.AnalysisResult, error) {
	fetchCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	candles, err := a.provider.GetCandles(fetchCtx, symbol, interval, a.limit)
	if err != nil {
		a.logger.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("fetch failed")
		return nil, &strategy.AnalysisError{Symbol: symbol, Interval: interval, Strategy: a.strategy.Name(), Err: err}
	}

	result, err := strategy.Analyze(a.strategy, symbol, interval, candles)
	if err != nil {
		a.logger.Debug().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("analysis failed")
		return nil, err
	}

	a.logger.Debug().
		Str("symbol", symbol).
		Str("interval", interval).
		Str("side", string(result.Side)).
		Int("confidence", result.Confidence).
		Int("candles", len(candles)).
		Dur("took", time.Since(start)).
		Msg("analyzed")

	return result, nil
}
