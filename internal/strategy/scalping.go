package strategy

import (
	"fmt"

	"xauron/internal/indicator"
	"xauron/pkg/model"
)

// ScalpingConfig holds configuration for the scalping breakout strategy
type ScalpingConfig struct {
	Version   int
	Periods   Periods
	Momentum  Momentum
	Breakout  Breakout
	Scoring   Scoring
	Weights   Weights
	Plan      PlanConfig
	Smoothing ATRSmoothing
}

// DefaultScalpingConfig returns default configuration
func DefaultScalpingConfig() ScalpingConfig {
	return ScalpingConfig{
		Version: 1,
		Periods: Periods{
			EMAFast: 9,
			EMASlow: 21,
			RSI:     7,
			ATR:     14,
			Vortex:  14,
			Slope:   30,
		},
		Momentum: Momentum{Buy: 55, Sell: 45},
		Breakout: Breakout{Window: 20, Tolerance: 0.0005},
		Scoring:  Scoring{Threshold: 70, CleanATRFraction: 0.5},
		Weights: Weights{
			Trend:           30,
			Momentum:        25,
			MomentumNeutral: 10,
			Breakout:        15,
			Volatility:      10,
			Clean:           20,
			CleanFallback:   5,
		},
		Plan: PlanConfig{
			StopATRMultiple: 1.05,
			TargetR:         [3]float64{1.5, 2.0, 3.0},
			ProtectR:        1.0,
		},
		Smoothing: SmoothingWilder,
	}
}

// Apply overlays the set tuning values
func (c *ScalpingConfig) Apply(t Tuning) error {
	t.applyPeriods(&c.Periods)
	t.applyMomentum(&c.Momentum)
	t.applyBreakout(&c.Breakout)
	t.applyScoring(&c.Scoring)
	return t.applyPlan(&c.Plan)
}

// Validate checks the configuration
func (c ScalpingConfig) Validate() error {
	if err := c.Periods.Validate(); err != nil {
		return err
	}
	if c.Momentum.Sell >= c.Momentum.Buy {
		return fmt.Errorf("momentum sell level (%v) must be below buy level (%v)", c.Momentum.Sell, c.Momentum.Buy)
	}
	if c.Breakout.Window < 1 || c.Breakout.Tolerance < 0 {
		return fmt.Errorf("invalid breakout window %d / tolerance %v", c.Breakout.Window, c.Breakout.Tolerance)
	}
	if err := validateScoring(c.Scoring); err != nil {
		return err
	}
	return c.Plan.Validate()
}

// ScalpingStrategy implements the trend + slope + RSI scalping strategy
// with breakout confirmation.
// BUY side scores when:
// 1. EMA9 > EMA21, close > EMA21 and the 30-bar regression slope is positive
// 2. RSI(7) >= 55
// 3. Close within 0.05% of the 20-bar high
// Supporting: ATR > 0, close displaced from EMA21 by more than half an ATR
type ScalpingStrategy struct {
	config ScalpingConfig
}

// NewScalpingStrategy creates a new scalping strategy
func NewScalpingStrategy(cfg ScalpingConfig) (*ScalpingStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scalping config: %w", err)
	}
	return &ScalpingStrategy{config: cfg}, nil
}

// Name returns the strategy name
func (s *ScalpingStrategy) Name() string {
	return string(VariantScalpingBreakout)
}

// Description returns the strategy description
func (s *ScalpingStrategy) Description() string {
	return "Scalping - EMA9/21 trend with slope and RSI(7) momentum, confirmed by 20-bar breakout"
}

// PlanConfig returns the risk parameters
func (s *ScalpingStrategy) PlanConfig() PlanConfig {
	return s.config.Plan
}

// Classify scores the series for both sides
func (s *ScalpingStrategy) Classify(candles []model.Candle) (*Decision, error) {
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
	slope := indicator.Slope(closes, cfg.Periods.Slope)
	rsi := indicator.RSI(closes, cfg.Periods.RSI).LastOr(indicator.NeutralRSI)

	trendUp := emaFast > emaSlow && last > emaSlow && slope > 0
	trendDown := emaFast < emaSlow && last < emaSlow && slope < 0

	recentHigh := indicator.HighestHigh(candles, cfg.Breakout.Window)
	recentLow := indicator.LowestLow(candles, cfg.Breakout.Window)
	breakoutBuy := last >= recentHigh*(1-cfg.Breakout.Tolerance)
	breakoutSell := last <= recentLow*(1+cfg.Breakout.Tolerance)

	var b scoreboard
	if trendUp {
		b.buy += cfg.Weights.Trend
	}
	if trendDown {
		b.sell += cfg.Weights.Trend
	}
	momentum := scoreMomentum(&b, rsi, cfg.Momentum, cfg.Weights)
	if breakoutBuy {
		b.buy += cfg.Weights.Breakout
	}
	if breakoutSell {
		b.sell += cfg.Weights.Breakout
	}
	volatile := scoreVolatility(&b, atr, cfg.Weights)
	displacement, clean := scoreCleanliness(&b, last, emaSlow, atr, cfg.Scoring.CleanATRFraction, cfg.Weights)

	var r reasons
	r.add("trend", direction(trendUp, trendDown))
	r.num("ema_fast", emaFast, 5)
	r.num("ema_slow", emaSlow, 5)
	r.num("slope", slope, 6)
	r.num("rsi", rsi, 1)
	r.add("momentum", momentum)
	r.num("recent_high", recentHigh, 5)
	r.num("recent_low", recentLow, 5)
	r.add("breakout", direction(breakoutBuy, breakoutSell))
	r.num("atr", atr, 5)
	r.flag("volatility_ok", volatile)
	r.num("displacement", displacement, 5)
	r.flag("clean", clean)

	return finish(&b, cfg.Scoring.Threshold, last, atr, r), nil
}
