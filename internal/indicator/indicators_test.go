package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"xauron/pkg/model"
)

// candlesFromCloses builds candles with a fixed half-spread around each close
func candlesFromCloses(closes []float64, spread float64) []model.Candle {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		candles[i] = model.Candle{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  open,
			High:  math.Max(open, c) + spread,
			Low:   math.Min(open, c) - spread,
			Close: c,
		}
	}
	return candles
}

func rising(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func TestTrueRange(t *testing.T) {
	candles := []model.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 12, Low: 11, Close: 11.5}, // gap up: |12-9| = 3
		{High: 11, Low: 7, Close: 8},     // prev close above the bar: 4.5
	}

	tr := TrueRange(candles)
	expected := []float64{2, 3, 4.5}
	for i := range expected {
		if math.Abs(tr[i]-expected[i]) > 1e-12 {
			t.Errorf("tr[%d]: expected %f, got %f", i, expected[i], tr[i])
		}
	}
}

func TestATRInsufficientData(t *testing.T) {
	candles := candlesFromCloses(rising(14, 100, 1), 0.5)

	_, err := ATR(candles, 14)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Expected ErrInsufficientData, got %v", err)
	}

	var ide *InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("Expected *InsufficientDataError, got %T", err)
	}
	if ide.Indicator != "atr" || ide.Need != 15 || ide.Got != 14 {
		t.Errorf("Unexpected error detail: %+v", ide)
	}
}

func TestATRWilderSeedAndRecursion(t *testing.T) {
	candles := candlesFromCloses(rising(20, 100, 1), 0.5)

	atr, err := ATR(candles, 14)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if atr.Offset != 14 {
		t.Errorf("Expected offset 14, got %d", atr.Offset)
	}
	if atr.Len() != len(candles)-14 {
		t.Errorf("Expected %d values, got %d", len(candles)-14, atr.Len())
	}

	// Every true range after the first is (1 + 0.5 + 0.5) = 2 on a steady climb
	for i, v := range atr.Values {
		if math.Abs(v-2) > 1e-9 {
			t.Errorf("atr[%d]: expected 2, got %f", i, v)
		}
	}

	aligned := atr.AlignSeed(len(candles))
	if len(aligned) != len(candles) {
		t.Fatalf("Expected aligned length %d, got %d", len(candles), len(aligned))
	}
	if aligned[0] != atr.Values[0] {
		t.Errorf("Expected seed padding, got %f", aligned[0])
	}
}

func TestATRMonotonicForIncreasingTrueRange(t *testing.T) {
	// Widen each bar so the true range grows every step
	candles := make([]model.Candle, 40)
	for i := range candles {
		half := 0.5 + float64(i)*0.25
		candles[i] = model.Candle{Open: 100, High: 100 + half, Low: 100 - half, Close: 100}
	}

	atr, err := ATR(candles, 14)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 1; i < atr.Len(); i++ {
		if atr.Values[i] <= atr.Values[i-1] {
			t.Errorf("ATR not increasing at %d: %f <= %f", i, atr.Values[i], atr.Values[i-1])
		}
	}
	for _, v := range atr.Values {
		if v < 0 {
			t.Errorf("ATR must be non-negative, got %f", v)
		}
	}
}

func TestSimpleATR(t *testing.T) {
	candles := candlesFromCloses(rising(30, 100, 1), 0.5)

	got, err := SimpleATR(candles, 14)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("Expected 2, got %f", got)
	}

	if _, err := SimpleATR(candles[:10], 14); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestEMABounded(t *testing.T) {
	values := []float64{5, 9, 1, 7, 3, 8, 2, 6, 4, 10, 0.5}

	ema, err := EMA(values, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ema.Len() != len(values) || ema.Offset != 0 {
		t.Fatalf("Expected full-length series, got len=%d offset=%d", ema.Len(), ema.Offset)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i, v := range ema.Values {
		if v < lo || v > hi {
			t.Errorf("ema[%d] = %f outside [%f, %f]", i, v, lo, hi)
		}
	}
}

func TestEMASeedIsFirstValue(t *testing.T) {
	ema, err := EMA([]float64{10, 20}, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// k = 0.5: e0 = 10, e1 = 20*0.5 + 10*0.5 = 15
	if ema.Values[0] != 10 {
		t.Errorf("Expected seed 10, got %f", ema.Values[0])
	}
	if ema.Values[1] != 15 {
		t.Errorf("Expected 15, got %f", ema.Values[1])
	}

	if _, err := EMA(nil, 3); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for empty input, got %v", err)
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		check  func(v float64) bool
	}{
		{"flat is neutral", flat(30, 100), func(v float64) bool { return v == NeutralRSI }},
		{"rising is overbought", rising(30, 100, 1), func(v float64) bool { return v > 99 }},
		{"falling is oversold", rising(30, 130, -1), func(v float64) bool { return v < 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := RSI(tt.closes, 7)
			if rsi.Empty() {
				t.Fatal("Expected RSI values")
			}
			for i, v := range rsi.Values {
				if v < 0 || v > 100 {
					t.Errorf("rsi[%d] = %f outside [0, 100]", i, v)
				}
				if !tt.check(v) {
					t.Errorf("rsi[%d] = %f failed check", i, v)
				}
			}
		})
	}
}

func TestRSIMixedStaysInRange(t *testing.T) {
	closes := []float64{44, 44.3, 44.1, 44.2, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1, 45.9, 46.2, 45.6, 46.3, 46.3, 46.0, 46.4, 46.2, 45.6}

	rsi := RSI(closes, 14)
	if rsi.Offset != 14 {
		t.Errorf("Expected offset 14, got %d", rsi.Offset)
	}
	for i, v := range rsi.Values {
		if v <= 0 || v >= 100 {
			t.Errorf("rsi[%d] = %f should be strictly inside (0, 100)", i, v)
		}
	}
}

func TestRSIShortInputIsNeutral(t *testing.T) {
	rsi := RSI([]float64{1, 2, 3}, 7)
	if !rsi.Empty() {
		t.Fatalf("Expected no valid values, got %d", rsi.Len())
	}
	if rsi.LastOr(NeutralRSI) != 50 {
		t.Errorf("Expected neutral 50, got %f", rsi.LastOr(NeutralRSI))
	}
	for i, v := range rsi.Align(3, NeutralRSI) {
		if v != 50 {
			t.Errorf("aligned[%d] = %f, expected 50", i, v)
		}
	}
}

func TestVortex(t *testing.T) {
	up := candlesFromCloses(rising(30, 100, 1), 0.5)
	vi, err := Vortex(up, 14)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vi.Plus <= vi.Minus {
		t.Errorf("Expected VI+ > VI- on a climb, got %f <= %f", vi.Plus, vi.Minus)
	}

	down := candlesFromCloses(rising(30, 130, -1), 0.5)
	vi, err = Vortex(down, 14)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vi.Minus <= vi.Plus {
		t.Errorf("Expected VI- > VI+ on a decline, got %f <= %f", vi.Minus, vi.Plus)
	}

	if _, err := Vortex(up[:14], 14); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestVortexZeroRange(t *testing.T) {
	candles := candlesFromCloses(flat(20, 100), 0)

	vi, err := Vortex(candles, 14)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.IsNaN(vi.Plus) || math.IsInf(vi.Plus, 0) || vi.Plus != 0 || vi.Minus != 0 {
		t.Errorf("Expected finite zero oscillators, got %+v", vi)
	}
}

func TestSlope(t *testing.T) {
	if got := Slope(rising(40, 100, 2), 30); math.Abs(got-2) > 1e-9 {
		t.Errorf("Expected slope 2, got %f", got)
	}
	if got := Slope(flat(40, 100), 30); got != 0 {
		t.Errorf("Expected slope 0 on flat input, got %f", got)
	}
	if got := Slope(rising(10, 100, 1), 30); got != 0 {
		t.Errorf("Expected slope 0 on short input, got %f", got)
	}
}

func TestHighestHighLowestLow(t *testing.T) {
	candles := candlesFromCloses([]float64{5, 9, 3, 7, 6}, 0)

	if got := HighestHigh(candles, 2); got != 7 {
		t.Errorf("Expected highest high 7, got %f", got)
	}
	if got := LowestLow(candles, 2); got != 3 {
		t.Errorf("Expected lowest low 3, got %f", got)
	}
	if got := HighestHigh(candles, 50); got != 9 {
		t.Errorf("Expected whole-series high 9, got %f", got)
	}
	if got := LowestLow(nil, 5); got != 0 {
		t.Errorf("Expected 0 for empty input, got %f", got)
	}
}
