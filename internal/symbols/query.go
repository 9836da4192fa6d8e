package symbols

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSymbol means the text does not look like a ticker
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidInterval means the timeframe is not supported
	ErrInvalidInterval = errors.New("invalid interval")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9._-]{3,15}$`)

// intervalAliases maps MetaTrader-style and short names to canonical intervals
var intervalAliases = map[string]string{
	"M1": "1min", "M5": "5min", "M15": "15min", "M30": "30min",
	"H1": "1h", "H4": "4h", "D1": "1day", "W1": "1week",
	"1M": "1min", "5M": "5min", "15M": "15min", "30M": "30min",
	"1H": "1h", "4H": "4h", "1D": "1day", "1W": "1week",
}

// canonical intervals in ascending duration
var intervals = []string{"1min", "5min", "15min", "30min", "45min", "1h", "2h", "4h", "1day", "1week"}

// cryptoQuotes are stablecoin quote suffixes served by Binance
var cryptoQuotes = []string{"FDUSD", "USDT", "BUSD", "USDC"}

// Query is a parsed chat/CLI request
type Query struct {
	Symbol   string
	Interval string
}

// ParseQuery extracts a symbol and optional interval from free text such as
// "XAUUSD", "xauusd m5" or "#BTCUSDT 1h". Commands (leading '/') are rejected.
// An empty interval is filled with def.
func ParseQuery(text, def string) (Query, error) {
	parts := strings.Fields(strings.ToUpper(strings.TrimSpace(text)))
	if len(parts) == 0 || strings.HasPrefix(parts[0], "/") {
		return Query{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, text)
	}

	sym, err := NormalizeSymbol(parts[0])
	if err != nil {
		return Query{}, err
	}

	raw := def
	if len(parts) >= 2 {
		raw = parts[1]
	}
	interval, err := NormalizeInterval(raw)
	if err != nil {
		return Query{}, err
	}

	return Query{Symbol: sym, Interval: interval}, nil
}

// NormalizeSymbol upper-cases, strips '#' and '$' and validates a ticker
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	sym = strings.NewReplacer("#", "", "$", "").Replace(sym)
	if !symbolPattern.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// NormalizeInterval resolves aliases and validates the result
func NormalizeInterval(s string) (string, error) {
	raw := strings.TrimSpace(s)
	if alias, ok := intervalAliases[strings.ToUpper(raw)]; ok {
		return alias, nil
	}
	lower := strings.ToLower(raw)
	for _, iv := range intervals {
		if iv == lower {
			return iv, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrInvalidInterval, s, strings.Join(intervals, ", "))
}

// Intervals returns the supported canonical intervals
func Intervals() []string {
	out := make([]string, len(intervals))
	copy(out, intervals)
	return out
}

// IsCryptoQuoted reports whether a symbol is a stablecoin-quoted crypto pair
func IsCryptoQuoted(symbol string) bool {
	_, ok := SplitCrypto(symbol)
	return ok
}

// SplitCrypto returns the base asset of a stablecoin-quoted pair
func SplitCrypto(symbol string) (base string, ok bool) {
	s := strings.ToUpper(symbol)
	for _, q := range cryptoQuotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), true
		}
	}
	return "", false
}

// LoadSymbols normalizes a user-supplied symbol list, dropping duplicates
func LoadSymbols(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		sym, err := NormalizeSymbol(r)
		if err != nil {
			return nil, err
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out, nil
}
