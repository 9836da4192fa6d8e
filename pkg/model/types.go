package model

import "time"

// Candle represents a single candlestick (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"` // carried through, unused by the engine
}

// Closes extracts the close prices in order
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Side is the directional outcome of an analysis
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideWait Side = "WAIT"
)

// Reason is a language-neutral (key, value) pair explaining a decision.
// Keys are stable so the presentation layer can localize labels.
type Reason struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TradePlan holds the risk-based levels for a BUY or SELL decision
type TradePlan struct {
	Entry   float64 `json:"entry"`
	Stop    float64 `json:"stop"`
	TP1     float64 `json:"tp1"`
	TP2     float64 `json:"tp2"`
	TP3     float64 `json:"tp3"`
	Protect float64 `json:"protect"` // break-even lock trigger
	Risk    float64 `json:"risk"`    // |entry - stop|
}

// AnalysisResult is the engine's output for one (symbol, interval)
type AnalysisResult struct {
	Symbol     string     `json:"symbol"`
	Interval   string     `json:"interval"`
	Strategy   string     `json:"strategy"`
	Side       Side       `json:"side"`
	Confidence int        `json:"confidence"` // 0-100
	Plan       *TradePlan `json:"plan,omitempty"`
	Reasons    []Reason   `json:"reasons"`
	Timestamp  time.Time  `json:"timestamp"` // open time of the last candle
}

// Reason returns the value recorded under key, if any
func (r *AnalysisResult) Reason(key string) (string, bool) {
	for _, reason := range r.Reasons {
		if reason.Key == key {
			return reason.Value, true
		}
	}
	return "", false
}

// ConsensusSignal is emitted when every analysed interval agrees on a side
type ConsensusSignal struct {
	Symbol            string           `json:"symbol"`
	Side              Side             `json:"side"`
	Confidence        int              `json:"confidence"`
	ReferenceInterval string           `json:"reference_interval"`
	Plan              *TradePlan       `json:"plan"`
	Frames            []AnalysisResult `json:"frames"`
	Timestamp         time.Time        `json:"timestamp"`
}

// Alert is a consensus signal that passed the cooldown check
type Alert struct {
	ID        string          `json:"id"`
	Signal    ConsensusSignal `json:"signal"`
	CreatedAt time.Time       `json:"created_at"`
}

// ScanResult represents the outcome of one auto-scan cycle
type ScanResult struct {
	TotalScanned int               `json:"total_scanned"`
	Signals      []ConsensusSignal `json:"signals"`
	Alerts       []Alert           `json:"alerts"`
	Failures     map[string]string `json:"failures,omitempty"` // symbol -> error
	ScanTime     time.Duration     `json:"scan_time"`
}
