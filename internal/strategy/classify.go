package strategy

import (
	"math"
	"strconv"

	"xauron/internal/indicator"
	"xauron/pkg/model"
)

// planATR computes the ATR used for both the volatility check and the
// trade plan. It is the hard length precondition of every variant.
func planATR(candles []model.Candle, period int, smoothing ATRSmoothing) (float64, error) {
	if smoothing == SmoothingSimple {
		return indicator.SimpleATR(candles, period)
	}
	atr, err := indicator.ATR(candles, period)
	if err != nil {
		return 0, err
	}
	return atr.Last(), nil
}

// emaPair returns the latest fast and slow EMA of closes
func emaPair(closes []float64, fast, slow int) (float64, float64, error) {
	f, err := indicator.EMA(closes, fast)
	if err != nil {
		return 0, 0, err
	}
	s, err := indicator.EMA(closes, slow)
	if err != nil {
		return 0, 0, err
	}
	return f.Last(), s.Last(), nil
}

func scoreMomentum(b *scoreboard, rsi float64, m Momentum, w Weights) string {
	switch {
	case rsi >= m.Buy:
		b.buy += w.Momentum
		return "buy"
	case rsi <= m.Sell:
		b.sell += w.Momentum
		return "sell"
	default:
		b.both(w.MomentumNeutral)
		return "neutral"
	}
}

func scoreVolatility(b *scoreboard, atr float64, w Weights) bool {
	ok := atr > indicator.Epsilon
	if ok {
		b.both(w.Volatility)
	}
	return ok
}

// scoreCleanliness rewards a decisive move away from the reference EMA.
// In chop both sides get the smaller fallback so confidence stays defined.
func scoreCleanliness(b *scoreboard, close, ref, atr, fraction float64, w Weights) (float64, bool) {
	displacement := close - ref
	clean := atr > indicator.Epsilon && math.Abs(displacement) > fraction*atr
	switch {
	case clean && displacement > 0:
		b.buy += w.Clean
	case clean:
		b.sell += w.Clean
	default:
		b.both(w.CleanFallback)
	}
	return displacement, clean
}

// finish applies the threshold and appends the score reasons
func finish(b *scoreboard, threshold int, entry, atr float64, r reasons) *Decision {
	side, confidence := b.decide(threshold)
	r.add("conf_buy", strconv.Itoa(b.buy))
	r.add("conf_sell", strconv.Itoa(b.sell))

	return &Decision{
		Side:       side,
		Confidence: confidence,
		BuyScore:   b.buy,
		SellScore:  b.sell,
		Entry:      entry,
		ATR:        atr,
		Reasons:    r,
	}
}
