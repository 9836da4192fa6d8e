// Package indicator implements the technical indicators used by the
// strategies. Every function is pure and safe for concurrent use.
package indicator

import (
	"errors"
	"fmt"
)

// Epsilon is the threshold below which a denominator or volatility value
// is treated as zero.
const Epsilon = 1e-9

// ErrInsufficientData is returned when a series is shorter than an
// indicator's hard minimum.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError names the indicator that could not be computed
type InsufficientDataError struct {
	Indicator string
	Need      int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s (need %d candles, got %d)", e.Indicator, ErrInsufficientData, e.Need, e.Got)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

func insufficient(indicator string, need, got int) error {
	return &InsufficientDataError{Indicator: indicator, Need: need, Got: got}
}

// Series is the fully computed part of an indicator sequence. Values[0]
// corresponds to input index Offset; earlier indices had no valid value.
type Series struct {
	Offset int
	Values []float64
}

// Len returns the number of valid values
func (s Series) Len() int {
	return len(s.Values)
}

// Empty reports whether no value could be computed
func (s Series) Empty() bool {
	return len(s.Values) == 0
}

// Last returns the most recent value. It panics on an empty series.
func (s Series) Last() float64 {
	return s.Values[len(s.Values)-1]
}

// LastOr returns the most recent value, or def when the series is empty
func (s Series) LastOr(def float64) float64 {
	if s.Empty() {
		return def
	}
	return s.Last()
}

// At returns the value aligned to input index i
func (s Series) At(i int) (float64, bool) {
	j := i - s.Offset
	if j < 0 || j >= len(s.Values) {
		return 0, false
	}
	return s.Values[j], true
}

// Align expands the series to n input positions, filling the positions
// before Offset with fill.
func (s Series) Align(n int, fill float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if v, ok := s.At(i); ok {
			out[i] = v
		} else {
			out[i] = fill
		}
	}
	return out
}

// AlignSeed expands the series to n positions, padding the leading
// positions with the first valid value (the seed).
func (s Series) AlignSeed(n int) []float64 {
	if s.Empty() {
		return make([]float64, n)
	}
	return s.Align(n, s.Values[0])
}
