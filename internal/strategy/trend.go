package strategy

import (
	"fmt"

	"xauron/internal/indicator"
	"xauron/pkg/model"
)

// TrendConfig holds configuration for the EMA trend strategy
type TrendConfig struct {
	Version   int
	Periods   Periods
	Momentum  Momentum
	Scoring   Scoring
	Weights   Weights
	Plan      PlanConfig
	Smoothing ATRSmoothing
}

// DefaultTrendConfig returns default configuration
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		Version: 1,
		Periods: Periods{
			EMAFast: 9,
			EMASlow: 21,
			RSI:     14,
			ATR:     14,
			Vortex:  14,
			Slope:   30,
		},
		Momentum: Momentum{Buy: 55, Sell: 45},
		Scoring:  Scoring{Threshold: 70, CleanATRFraction: 0.5},
		Weights: Weights{
			Trend:           40,
			Momentum:        25,
			MomentumNeutral: 10,
			Volatility:      10,
			Clean:           25,
			CleanFallback:   5,
		},
		Plan: PlanConfig{
			StopATRMultiple: 1.5,
			TargetR:         [3]float64{1.0, 1.5, 2.0},
			ProtectR:        0.5,
		},
		Smoothing: SmoothingWilder,
	}
}

// Apply overlays the set tuning values
func (c *TrendConfig) Apply(t Tuning) error {
	t.applyPeriods(&c.Periods)
	t.applyMomentum(&c.Momentum)
	t.applyScoring(&c.Scoring)
	return t.applyPlan(&c.Plan)
}

// Validate checks the configuration
func (c TrendConfig) Validate() error {
	if err := c.Periods.Validate(); err != nil {
		return err
	}
	if c.Momentum.Sell >= c.Momentum.Buy {
		return fmt.Errorf("momentum sell level (%v) must be below buy level (%v)", c.Momentum.Sell, c.Momentum.Buy)
	}
	if err := validateScoring(c.Scoring); err != nil {
		return err
	}
	return c.Plan.Validate()
}

// TrendStrategy implements the swing "trend-only" strategy.
// The trend is up when EMA(fast) > EMA(slow) and down otherwise; RSI
// momentum and the ATR checks decide whether the trend is tradeable.
type TrendStrategy struct {
	config TrendConfig
}

// NewTrendStrategy creates a new trend strategy
func NewTrendStrategy(cfg TrendConfig) (*TrendStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("trend config: %w", err)
	}
	return &TrendStrategy{config: cfg}, nil
}

// Name returns the strategy name
func (s *TrendStrategy) Name() string {
	return string(VariantTrendRsiAtr)
}

// Description returns the strategy description
func (s *TrendStrategy) Description() string {
	return "Trend - EMA fast/slow crossover state with RSI momentum and ATR risk"
}

// PlanConfig returns the risk parameters
func (s *TrendStrategy) PlanConfig() PlanConfig {
	return s.config.Plan
}

// Classify scores the series for both sides
func (s *TrendStrategy) Classify(candles []model.Candle) (*Decision, error) {
	cfg := s.config

	atr, err := planATR(candles, cfg.Periods.ATR, cfg.Smoothing)
	if err != nil {
		return nil, err
	}

	closes := model.Closes(candles)
	last := closes[len(closes)-1]

	emaFast, emaSlow, err := emaPair(closes, cfg.Periods.EMAFast, cfg.Periods.EMASlow)
	if err != nil {
		return nil, err
	}
	rsi := indicator.RSI(closes, cfg.Periods.RSI).LastOr(indicator.NeutralRSI)

	trendUp := emaFast > emaSlow

	var b scoreboard
	if trendUp {
		b.buy += cfg.Weights.Trend
	} else {
		b.sell += cfg.Weights.Trend
	}
	momentum := scoreMomentum(&b, rsi, cfg.Momentum, cfg.Weights)
	volatile := scoreVolatility(&b, atr, cfg.Weights)
	displacement, clean := scoreCleanliness(&b, last, emaSlow, atr, cfg.Scoring.CleanATRFraction, cfg.Weights)

	var r reasons
	r.add("trend", direction(trendUp, !trendUp))
	r.num("ema_fast", emaFast, 5)
	r.num("ema_slow", emaSlow, 5)
	r.num("rsi", rsi, 1)
	r.add("momentum", momentum)
	r.num("atr", atr, 5)
	r.flag("volatility_ok", volatile)
	r.num("displacement", displacement, 5)
	r.flag("clean", clean)

	return finish(&b, cfg.Scoring.Threshold, last, atr, r), nil
}
