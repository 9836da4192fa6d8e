package strategy

import (
	"fmt"

	"xauron/internal/indicator"
	"xauron/pkg/model"
)

// Setup quality labels derived from the vortex spread
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// VortexConfig holds configuration for the basic vortex strategy
type VortexConfig struct {
	Version        int
	Periods        Periods
	StrengthHigh   float64 // VI spread for a high-quality setup
	StrengthMedium float64
	Scoring        Scoring
	Weights        Weights
	Plan           PlanConfig
	Smoothing      ATRSmoothing
}

// DefaultVortexConfig returns default configuration
func DefaultVortexConfig() VortexConfig {
	return VortexConfig{
		Version: 1,
		Periods: Periods{
			EMAFast: 9,
			EMASlow: 21,
			RSI:     14,
			ATR:     14,
			Vortex:  14,
			Slope:   30,
		},
		StrengthHigh:   0.25,
		StrengthMedium: 0.12,
		Scoring:        Scoring{Threshold: 70, CleanATRFraction: 0.5},
		Weights: Weights{
			Trend:          40,
			StrengthHigh:   30,
			StrengthMedium: 15,
			StrengthLow:    5,
			Volatility:     10,
			Clean:          20,
			CleanFallback:  5,
		},
		Plan: PlanConfig{
			StopATRMultiple: 1.5,
			TargetR:         [3]float64{1.0, 1.5, 2.0},
			ProtectR:        0.5,
		},
		Smoothing: SmoothingSimple,
	}
}

// Apply overlays the set tuning values
func (c *VortexConfig) Apply(t Tuning) error {
	t.applyPeriods(&c.Periods)
	t.applyScoring(&c.Scoring)
	return t.applyPlan(&c.Plan)
}

// Validate checks the configuration
func (c VortexConfig) Validate() error {
	if err := c.Periods.Validate(); err != nil {
		return err
	}
	if c.StrengthMedium <= 0 || c.StrengthMedium >= c.StrengthHigh {
		return fmt.Errorf("vortex strength levels must satisfy 0 < medium (%v) < high (%v)", c.StrengthMedium, c.StrengthHigh)
	}
	if err := validateScoring(c.Scoring); err != nil {
		return err
	}
	return c.Plan.Validate()
}

// VortexStrategy implements the basic Vortex Indicator strategy.
// VI+ above VI- points up, VI- above VI+ points down; the separation
// between the lines grades the setup.
type VortexStrategy struct {
	config VortexConfig
}

// NewVortexStrategy creates a new vortex strategy
func NewVortexStrategy(cfg VortexConfig) (*VortexStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vortex config: %w", err)
	}
	return &VortexStrategy{config: cfg}, nil
}

// Name returns the strategy name
func (s *VortexStrategy) Name() string {
	return string(VariantBasicVortex)
}

// Description returns the strategy description
func (s *VortexStrategy) Description() string {
	return "Vortex - VI+/VI- direction graded by line separation, ATR targets"
}

// PlanConfig returns the risk parameters
func (s *VortexStrategy) PlanConfig() PlanConfig {
	return s.config.Plan
}

// Quality grades a vortex spread
func (s *VortexStrategy) Quality(spread float64) string {
	switch {
	case spread >= s.config.StrengthHigh:
		return QualityHigh
	case spread >= s.config.StrengthMedium:
		return QualityMedium
	default:
		return QualityLow
	}
}

// Classify scores the series for both sides
func (s *VortexStrategy) Classify(candles []model.Candle) (*Decision, error) {
	cfg := s.config

	atr, err := planATR(candles, cfg.Periods.ATR, cfg.Smoothing)
	if err != nil {
		return nil, err
	}
	vi, err := indicator.Vortex(candles, cfg.Periods.Vortex)
	if err != nil {
		return nil, err
	}

	closes := model.Closes(candles)
	last := closes[len(closes)-1]

	ema, err := indicator.EMA(closes, cfg.Periods.EMASlow)
	if err != nil {
		return nil, err
	}
	emaSlow := ema.Last()

	trendUp := vi.Plus > vi.Minus
	trendDown := vi.Minus > vi.Plus
	spread := vi.Spread()
	quality := s.Quality(spread)

	strength := cfg.Weights.StrengthLow
	switch quality {
	case QualityHigh:
		strength = cfg.Weights.StrengthHigh
	case QualityMedium:
		strength = cfg.Weights.StrengthMedium
	}

	var b scoreboard
	switch {
	case trendUp:
		b.side(model.SideBuy, cfg.Weights.Trend+strength)
	case trendDown:
		b.side(model.SideSell, cfg.Weights.Trend+strength)
	default:
		b.both(cfg.Weights.StrengthLow)
	}
	volatile := scoreVolatility(&b, atr, cfg.Weights)
	displacement, clean := scoreCleanliness(&b, last, emaSlow, atr, cfg.Scoring.CleanATRFraction, cfg.Weights)

	var r reasons
	r.add("trend", direction(trendUp, trendDown))
	r.num("vi_plus", vi.Plus, 3)
	r.num("vi_minus", vi.Minus, 3)
	r.num("vi_spread", spread, 3)
	r.add("quality", quality)
	r.num("ema_slow", emaSlow, 5)
	r.num("atr", atr, 5)
	r.flag("volatility_ok", volatile)
	r.num("displacement", displacement, 5)
	r.flag("clean", clean)

	return finish(&b, cfg.Scoring.Threshold, last, atr, r), nil
}
