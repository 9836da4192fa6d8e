package indicator

import (
	"math"

	"xauron/pkg/model"
)

// NeutralRSI is reported wherever RSI cannot be computed
const NeutralRSI = 50.0

// rsSentinel stands in for RS when the average loss is zero
const rsSentinel = 999.0

// TrueRange returns the true range for every candle. The first candle has
// no previous close, so its range is high-low.
func TrueRange(candles []model.Candle) []float64 {
	tr := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			tr[i] = c.High - c.Low
			continue
		}
		prevClose := candles[i-1].Close
		tr[i] = math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
	}
	return tr
}

// ATR calculates Wilder's average true range. The seed is the mean of the
// first period true ranges (indices 1..period) and sits at index period.
func ATR(candles []model.Candle, period int) (Series, error) {
	if period < 1 || len(candles) < period+1 {
		return Series{}, insufficient("atr", period+1, len(candles))
	}

	tr := TrueRange(candles)

	var sum float64
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}

	values := make([]float64, 0, len(candles)-period)
	prev := sum / float64(period)
	values = append(values, prev)
	for i := period + 1; i < len(candles); i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		values = append(values, prev)
	}

	return Series{Offset: period, Values: values}, nil
}

// SimpleATR returns the unweighted mean of the last period true ranges
func SimpleATR(candles []model.Candle, period int) (float64, error) {
	if period < 1 || len(candles) < period+1 {
		return 0, insufficient("atr", period+1, len(candles))
	}

	tr := TrueRange(candles)
	var sum float64
	for i := len(tr) - period; i < len(tr); i++ {
		sum += tr[i]
	}
	return sum / float64(period), nil
}

// EMA calculates the exponential moving average seeded with the first value
func EMA(values []float64, period int) (Series, error) {
	if period < 1 || len(values) == 0 {
		return Series{}, insufficient("ema", 1, len(values))
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	e := values[0]
	for i, v := range values {
		e = v*k + e*(1-k)
		out[i] = e
	}
	return Series{Values: out}, nil
}

// RSI calculates Wilder's relative strength index over closes. With fewer
// than period+1 closes the result is empty and callers read NeutralRSI.
func RSI(closes []float64, period int) Series {
	if period < 1 || len(closes) < period+1 {
		return Series{}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	values := make([]float64, 0, len(closes)-period)
	values = append(values, rsiValue(avgGain, avgLoss))
	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		values = append(values, rsiValue(avgGain, avgLoss))
	}

	return Series{Offset: period, Values: values}
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss < Epsilon {
		if avgGain < Epsilon {
			return NeutralRSI
		}
		return 100 - 100/(1+rsSentinel)
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// VortexValue holds the two vortex oscillators
type VortexValue struct {
	Plus  float64
	Minus float64
}

// Spread returns |VI+ - VI-|, the separation used as trend strength
func (v VortexValue) Spread() float64 {
	return math.Abs(v.Plus - v.Minus)
}

// Vortex calculates VI+ and VI- over the last period bars
func Vortex(candles []model.Candle, period int) (VortexValue, error) {
	if period < 1 || len(candles) < period+1 {
		return VortexValue{}, insufficient("vortex", period+1, len(candles))
	}

	tr := TrueRange(candles)

	var sumPlus, sumMinus, sumTR float64
	for i := len(candles) - period; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]
		sumPlus += math.Abs(cur.High - prev.Low)
		sumMinus += math.Abs(cur.Low - prev.High)
		sumTR += tr[i]
	}

	if math.Abs(sumTR) < Epsilon {
		sumTR = Epsilon
	}

	return VortexValue{Plus: sumPlus / sumTR, Minus: sumMinus / sumTR}, nil
}

// Slope returns the least-squares slope of the last lookback closes
// against their index. It degrades to 0 when there is not enough data.
func Slope(closes []float64, lookback int) float64 {
	if lookback < 2 || len(closes) < lookback {
		return 0
	}

	window := closes[len(closes)-lookback:]
	xMean := float64(lookback-1) / 2

	var yMean float64
	for _, y := range window {
		yMean += y
	}
	yMean /= float64(lookback)

	var num, den float64
	for i, y := range window {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}

	if den < Epsilon {
		return 0
	}
	return num / den
}

// HighestHigh returns the highest high over the last window candles
func HighestHigh(candles []model.Candle, window int) float64 {
	start := windowStart(len(candles), window)
	if start < 0 {
		return 0
	}
	high := candles[start].High
	for _, c := range candles[start+1:] {
		high = math.Max(high, c.High)
	}
	return high
}

// LowestLow returns the lowest low over the last window candles
func LowestLow(candles []model.Candle, window int) float64 {
	start := windowStart(len(candles), window)
	if start < 0 {
		return 0
	}
	low := candles[start].Low
	for _, c := range candles[start+1:] {
		low = math.Min(low, c.Low)
	}
	return low
}

func windowStart(n, window int) int {
	if n == 0 {
		return -1
	}
	if window <= 0 || window > n {
		return 0
	}
	return n - window
}
