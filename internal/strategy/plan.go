package strategy

import (
	"errors"
	"fmt"

	"xauron/internal/indicator"
	"xauron/pkg/model"
)

var (
	// ErrDegenerateVolatility means ATR is ~0 and no risk can be sized
	ErrDegenerateVolatility = errors.New("degenerate volatility")

	// ErrInvalidRisk means the derived risk is not strictly positive
	ErrInvalidRisk = errors.New("non-positive risk")
)

// BuildPlan derives stop, staged targets and the break-even protect level
// from entry and ATR. Targets and protect are R-multiples of the initial
// risk (entry to stop distance).
func BuildPlan(side model.Side, entry, atr float64, cfg PlanConfig) (*model.TradePlan, error) {
	var sign float64
	switch side {
	case model.SideBuy:
		sign = 1
	case model.SideSell:
		sign = -1
	default:
		return nil, fmt.Errorf("no plan for side %q", side)
	}

	if atr <= indicator.Epsilon {
		return nil, ErrDegenerateVolatility
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stop := entry - sign*cfg.StopATRMultiple*atr
	risk := sign * (entry - stop)
	if risk <= 0 {
		return nil, fmt.Errorf("%w: entry %v stop %v", ErrInvalidRisk, entry, stop)
	}

	level := func(r float64) float64 {
		return entry + sign*r*risk
	}

	return &model.TradePlan{
		Entry:   entry,
		Stop:    stop,
		TP1:     level(cfg.TargetR[0]),
		TP2:     level(cfg.TargetR[1]),
		TP3:     level(cfg.TargetR[2]),
		Protect: level(cfg.ProtectR),
		Risk:    risk,
	}, nil
}
