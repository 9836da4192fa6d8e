package strategy

import (
	"errors"
	"fmt"
	"strconv"

	"xauron/pkg/model"
)

// Variant tags the classifier shape behind a Strategy
type Variant string

const (
	VariantBasicVortex      Variant = "basic-vortex"
	VariantTrendRsiAtr      Variant = "trend-rsi-atr"
	VariantScalpingBreakout Variant = "scalping-breakout"
)

// DefaultVariant is used when no strategy is configured
const DefaultVariant = VariantScalpingBreakout

// Decision is the classifier/scorer output before a trade plan is attached
type Decision struct {
	Side       model.Side
	Confidence int
	BuyScore   int
	SellScore  int
	Entry      float64 // last close
	ATR        float64
	Reasons    []model.Reason
}

// Strategy defines the interface for signal strategies
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Description returns a brief description
	Description() string

	// Classify scores a candle series and picks a side
	Classify(candles []model.Candle) (*Decision, error)

	// PlanConfig returns the risk parameters used to build trade plans
	PlanConfig() PlanConfig
}

// AnalysisError carries the context needed to render a failed analysis
type AnalysisError struct {
	Symbol   string
	Interval string
	Strategy string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Symbol, e.Interval, e.Strategy, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Analyze runs the full single-timeframe pipeline: classify, then build a
// trade plan for a BUY or SELL decision. A degenerate ATR leaves the plan
// empty; it never fabricates one.
func Analyze(s Strategy, symbol, interval string, candles []model.Candle) (*model.AnalysisResult, error) {
	wrap := func(err error) error {
		return &AnalysisError{Symbol: symbol, Interval: interval, Strategy: s.Name(), Err: err}
	}

	decision, err := s.Classify(candles)
	if err != nil {
		return nil, wrap(err)
	}

	result := &model.AnalysisResult{
		Symbol:     symbol,
		Interval:   interval,
		Strategy:   s.Name(),
		Side:       decision.Side,
		Confidence: decision.Confidence,
		Reasons:    decision.Reasons,
		Timestamp:  candles[len(candles)-1].Time,
	}

	if decision.Side == model.SideWait {
		return result, nil
	}

	plan, err := BuildPlan(decision.Side, decision.Entry, decision.ATR, s.PlanConfig())
	switch {
	case errors.Is(err, ErrDegenerateVolatility):
		result.Reasons = append(result.Reasons, model.Reason{Key: "plan", Value: "degenerate_volatility"})
	case err != nil:
		return nil, wrap(err)
	default:
		result.Plan = plan
	}

	return result, nil
}

// scoreboard accumulates the two competing confidence scores
type scoreboard struct {
	buy  int
	sell int
}

func (b *scoreboard) both(points int) {
	b.buy += points
	b.sell += points
}

func (b *scoreboard) side(side model.Side, points int) {
	switch side {
	case model.SideBuy:
		b.buy += points
	case model.SideSell:
		b.sell += points
	}
}

// decide caps both scores at 100 and applies the threshold rule. Equal
// scores never pick a side.
func (b *scoreboard) decide(threshold int) (model.Side, int) {
	b.buy = min(b.buy, 100)
	b.sell = min(b.sell, 100)

	switch {
	case b.buy >= threshold && b.buy > b.sell:
		return model.SideBuy, b.buy
	case b.sell >= threshold && b.sell > b.buy:
		return model.SideSell, b.sell
	default:
		return model.SideWait, max(b.buy, b.sell)
	}
}

// reasons builds the ordered, language-neutral explanation list
type reasons []model.Reason

func (r *reasons) add(key, value string) {
	*r = append(*r, model.Reason{Key: key, Value: value})
}

func (r *reasons) num(key string, v float64, prec int) {
	r.add(key, strconv.FormatFloat(v, 'f', prec, 64))
}

func (r *reasons) flag(key string, v bool) {
	r.add(key, strconv.FormatBool(v))
}

func direction(up, down bool) string {
	switch {
	case up && !down:
		return "up"
	case down && !up:
		return "down"
	default:
		return "flat"
	}
}
