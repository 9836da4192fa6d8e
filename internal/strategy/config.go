package strategy

import (
	"errors"
	"fmt"
)

// Periods holds indicator lookbacks. Each variant reads the ones it uses.
type Periods struct {
	EMAFast int `yaml:"ema_fast"`
	EMASlow int `yaml:"ema_slow"`
	RSI     int `yaml:"rsi"`
	ATR     int `yaml:"atr"`
	Vortex  int `yaml:"vortex"`
	Slope   int `yaml:"slope"`
}

// Validate checks that every period is usable
func (p Periods) Validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"ema_fast", p.EMAFast}, {"ema_slow", p.EMASlow}, {"rsi", p.RSI},
		{"atr", p.ATR}, {"vortex", p.Vortex}, {"slope", p.Slope},
	} {
		if f.value < 1 {
			return fmt.Errorf("period %s must be at least 1, got %d", f.name, f.value)
		}
	}
	if p.EMAFast >= p.EMASlow {
		return fmt.Errorf("ema_fast (%d) must be shorter than ema_slow (%d)", p.EMAFast, p.EMASlow)
	}
	return nil
}

// Momentum holds the RSI trigger levels. Values strictly between are neutral.
type Momentum struct {
	Buy  float64 `yaml:"buy"`
	Sell float64 `yaml:"sell"`
}

// Breakout holds the structure-confirmation window
type Breakout struct {
	Window    int     `yaml:"window"`
	Tolerance float64 `yaml:"tolerance"` // fraction, 0.0005 = 0.05%
}

// Weights are the fixed score contributions. This is a heuristic scoring
// policy; the totals are not probabilities.
type Weights struct {
	Trend           int `yaml:"trend"`
	Momentum        int `yaml:"momentum"`
	MomentumNeutral int `yaml:"momentum_neutral"` // both sides when RSI is neutral
	Breakout        int `yaml:"breakout"`
	Volatility      int `yaml:"volatility"` // both sides when ATR > 0
	Clean           int `yaml:"clean"`
	CleanFallback   int `yaml:"clean_fallback"` // both sides in chop
	StrengthHigh    int `yaml:"strength_high"`
	StrengthMedium  int `yaml:"strength_medium"`
	StrengthLow     int `yaml:"strength_low"`
}

// Scoring holds side-selection parameters
type Scoring struct {
	Threshold        int     `yaml:"threshold"`
	CleanATRFraction float64 `yaml:"clean_atr_fraction"` // min |close-EMA| in ATRs for a clean move
}

// PlanConfig holds the risk parameters of the trade plan builder
type PlanConfig struct {
	StopATRMultiple float64    `yaml:"stop_atr_multiple"`
	TargetR         [3]float64 `yaml:"target_r"`
	ProtectR        float64    `yaml:"protect_r"`
}

// Validate enforces a positive stop, increasing targets and a protect
// level strictly between entry and TP1.
func (p PlanConfig) Validate() error {
	if p.StopATRMultiple <= 0 {
		return fmt.Errorf("stop_atr_multiple must be positive, got %v", p.StopATRMultiple)
	}
	if p.TargetR[0] <= 0 || p.TargetR[0] >= p.TargetR[1] || p.TargetR[1] >= p.TargetR[2] {
		return fmt.Errorf("target_r must be positive and strictly increasing, got %v", p.TargetR)
	}
	if p.ProtectR <= 0 || p.ProtectR >= p.TargetR[0] {
		return fmt.Errorf("protect_r must be in (0, %v), got %v", p.TargetR[0], p.ProtectR)
	}
	return nil
}

// ATRSmoothing selects how the plan's ATR is computed
type ATRSmoothing string

const (
	SmoothingWilder ATRSmoothing = "wilder"
	SmoothingSimple ATRSmoothing = "simple"
)

// Tuning is an external override set. A nil field keeps the preset default;
// a set field applies even when it is zero.
type Tuning struct {
	Periods  PeriodTuning   `yaml:"periods"`
	Momentum MomentumTuning `yaml:"momentum"`
	Breakout BreakoutTuning `yaml:"breakout"`
	Scoring  ScoringTuning  `yaml:"scoring"`
	Stop     *float64       `yaml:"stop_atr_multiple"`

	// Targets as R multiples of the stop distance, or as ATR multiples
	// (converted against the final stop). At most one of the two.
	TargetR   []float64 `yaml:"target_r"`
	TargetATR []float64 `yaml:"target_atr"`

	// When unset and the targets change, protect keeps its preset fraction
	// of the way to TP1.
	ProtectR *float64 `yaml:"protect_r"`
}

// PeriodTuning overrides indicator lookbacks
type PeriodTuning struct {
	EMAFast *int `yaml:"ema_fast"`
	EMASlow *int `yaml:"ema_slow"`
	RSI     *int `yaml:"rsi"`
	ATR     *int `yaml:"atr"`
	Vortex  *int `yaml:"vortex"`
	Slope   *int `yaml:"slope"`
}

// MomentumTuning overrides the RSI levels
type MomentumTuning struct {
	Buy  *float64 `yaml:"buy"`
	Sell *float64 `yaml:"sell"`
}

// BreakoutTuning overrides the breakout window
type BreakoutTuning struct {
	Window    *int     `yaml:"window"`
	Tolerance *float64 `yaml:"tolerance"`
}

// ScoringTuning overrides side selection
type ScoringTuning struct {
	Threshold        *int     `yaml:"threshold"`
	CleanATRFraction *float64 `yaml:"clean_atr_fraction"`
}

// Int returns a pointer to v, for building a Tuning
func Int(v int) *int { return &v }

// Float returns a pointer to v, for building a Tuning
func Float(v float64) *float64 { return &v }

func (t Tuning) applyPeriods(p *Periods) {
	setInt(&p.EMAFast, t.Periods.EMAFast)
	setInt(&p.EMASlow, t.Periods.EMASlow)
	setInt(&p.RSI, t.Periods.RSI)
	setInt(&p.ATR, t.Periods.ATR)
	setInt(&p.Vortex, t.Periods.Vortex)
	setInt(&p.Slope, t.Periods.Slope)
}

func (t Tuning) applyMomentum(m *Momentum) {
	setFloat(&m.Buy, t.Momentum.Buy)
	setFloat(&m.Sell, t.Momentum.Sell)
}

func (t Tuning) applyBreakout(b *Breakout) {
	setInt(&b.Window, t.Breakout.Window)
	setFloat(&b.Tolerance, t.Breakout.Tolerance)
}

func (t Tuning) applyScoring(s *Scoring) {
	setInt(&s.Threshold, t.Scoring.Threshold)
	setFloat(&s.CleanATRFraction, t.Scoring.CleanATRFraction)
}

func (t Tuning) applyPlan(p *PlanConfig) error {
	setFloat(&p.StopATRMultiple, t.Stop)
	presetTP1, presetProtect := p.TargetR[0], p.ProtectR

	switch {
	case len(t.TargetR) > 0 && len(t.TargetATR) > 0:
		return errors.New("target_r and target_atr are mutually exclusive")
	case len(t.TargetR) > 0:
		if len(t.TargetR) != 3 {
			return fmt.Errorf("target_r needs 3 values, got %d", len(t.TargetR))
		}
		copy(p.TargetR[:], t.TargetR)
	case len(t.TargetATR) > 0:
		if len(t.TargetATR) != 3 {
			return fmt.Errorf("target_atr needs 3 values, got %d", len(t.TargetATR))
		}
		if p.StopATRMultiple <= 0 {
			return fmt.Errorf("stop_atr_multiple must be positive, got %v", p.StopATRMultiple)
		}
		for i, m := range t.TargetATR {
			p.TargetR[i] = m / p.StopATRMultiple
		}
	}

	switch {
	case t.ProtectR != nil:
		p.ProtectR = *t.ProtectR
	case p.TargetR[0] != presetTP1 && presetTP1 > 0:
		p.ProtectR = presetProtect / presetTP1 * p.TargetR[0]
	}
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func validateScoring(s Scoring) error {
	if s.Threshold < 1 || s.Threshold > 100 {
		return fmt.Errorf("threshold must be in [1, 100], got %d", s.Threshold)
	}
	if s.CleanATRFraction < 0 {
		return fmt.Errorf("clean_atr_fraction must be non-negative, got %v", s.CleanATRFraction)
	}
	return nil
}
