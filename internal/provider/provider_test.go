package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"xauron/pkg/model"
)

// stubProvider returns a fixed series or error and counts calls
type stubProvider struct {
	name      string
	available bool
	candles   []model.Candle
	err       error

	mu    sync.Mutex
	calls int
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }

func (s *stubProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return tail(s.candles, limit), nil
}

func series(n int) []model.Candle {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = model.Candle{Time: start.Add(time.Duration(i) * time.Minute), Open: p, High: p + 1, Low: p - 1, Close: p}
	}
	return out
}

func TestTwelveDataGetCandles(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/time_series" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("symbol") + " " + r.URL.Query().Get("interval") + " " + r.URL.Query().Get("outputsize")
		fmt.Fprint(w, `{
			"meta": {"symbol": "XAU/USD", "interval": "5min"},
			"values": [
				{"datetime": "2024-01-15 09:10:00", "open": "2052.0", "high": "2054.5", "low": "2051.0", "close": "2053.2"},
				{"datetime": "2024-01-15 09:05:00", "open": "2050.5", "high": "2052.5", "low": "2049.0", "close": "2052.0"},
				{"datetime": "2024-01-15 09:00:00", "open": "2049.0", "high": "2051.0", "low": "2048.0", "close": "2050.5"}
			],
			"status": "ok"
		}`)
	}))
	defer srv.Close()

	p := NewTwelveDataProvider("key", 600).WithBaseURL(srv.URL)
	candles, err := p.GetCandles(context.Background(), "XAUUSD", "5min", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotQuery != "XAU/USD 5min 3" {
		t.Errorf("Unexpected query: %s", gotQuery)
	}
	if len(candles) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(candles))
	}
	// oldest first
	if candles[0].Close != 2050.5 || candles[2].Close != 2053.2 {
		t.Errorf("Expected ascending order, got %+v", candles)
	}
	if !candles[2].Time.Equal(time.Date(2024, 1, 15, 9, 10, 0, 0, time.UTC)) {
		t.Errorf("Unexpected time %v", candles[2].Time)
	}
}

func TestTwelveDataErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		retryable bool
		noData    bool
	}{
		{"api error", `{"code": 400, "message": "symbol not found", "status": "error"}`, false, false},
		{"quota", `{"code": 429, "message": "run out of API credits", "status": "error"}`, true, false},
		{"empty values", `{"meta": {}, "values": [], "status": "ok"}`, false, true},
		{"invalid json", `<html>`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := NewTwelveDataProvider("key", 600).WithBaseURL(srv.URL)
			_, err := p.GetCandles(context.Background(), "XAUUSD", "5min", 10)

			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *ProviderError, got %v", err)
			}
			if pe.Retryable != tt.retryable {
				t.Errorf("Expected retryable=%v, got %v (%v)", tt.retryable, pe.Retryable, err)
			}
			if errors.Is(err, ErrNoData) != tt.noData {
				t.Errorf("ErrNoData mismatch: %v", err)
			}
			if errors.Is(err, ErrRateLimited) != (tt.name == "quota") {
				t.Errorf("ErrRateLimited mismatch: %v", err)
			}
		})
	}
}

func TestTwelveDataRateLimited(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewTwelveDataProvider("key", 600).WithBaseURL(srv.URL)
	_, err := p.GetCandles(context.Background(), "XAUUSD", "5min", 10)

	var pe *ProviderError
	if !errors.As(err, &pe) || !pe.Retryable {
		t.Fatalf("Expected retryable *ProviderError, got %v", err)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
	if got := err.Error(); got != "twelvedata: rate limited, backing off 200ms" {
		t.Errorf("Unexpected message %q", got)
	}

	// the penalty box delays the next request
	start := time.Now()
	p.GetCandles(context.Background(), "XAUUSD", "5min", 10)
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond || hits != 2 {
		t.Errorf("Second request should wait out the backoff, took %v after %d hits", elapsed, hits)
	}
}

func TestTwelveDataMissingKey(t *testing.T) {
	p := NewTwelveDataProvider("  ", 0)
	if p.IsAvailable() {
		t.Error("Provider without key should not be available")
	}
	if _, err := p.GetCandles(context.Background(), "XAUUSD", "5min", 10); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestTwelveDataSymbol(t *testing.T) {
	tests := map[string]string{
		"XAUUSD": "XAU/USD",
		"eurusd": "EUR/USD",
		"AAPL":   "AAPL",
		"SPXUSD": "SPXUSD",
	}
	for in, want := range tests {
		if got := TwelveDataSymbol(in); got != want {
			t.Errorf("TwelveDataSymbol(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestBinanceGetCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "BTCUSDT" || r.URL.Query().Get("interval") != "15m" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `[
			[1705309200000, "42000.10", "42100.00", "41950.00", "42050.50", "12.5", 1705310099999, "525000.0", 100, "6.0", "252000.0", "0"],
			[1705310100000, "42050.50", "42200.00", "42000.00", "42150.00", "9.25", 1705310999999, "390000.0", 80, "4.0", "168000.0", "0"]
		]`)
	}))
	defer srv.Close()

	p := NewBinanceProvider("", "").WithBaseURL(srv.URL)
	candles, err := p.GetCandles(context.Background(), "btcusdt", "15min", 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}
	if candles[1].Close != 42150 || candles[0].Volume != 12.5 {
		t.Errorf("Unexpected candles: %+v", candles)
	}
	if !candles[0].Time.Equal(time.UnixMilli(1705309200000).UTC()) {
		t.Errorf("Unexpected open time %v", candles[0].Time)
	}
}

func TestBinanceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code": -1121, "msg": "Invalid symbol."}`)
	}))
	defer srv.Close()

	p := NewBinanceProvider("", "").WithBaseURL(srv.URL)
	_, err := p.GetCandles(context.Background(), "NOPEUSDT", "5min", 10)

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ProviderError, got %v", err)
	}
	if pe.Retryable {
		t.Errorf("Invalid symbol should not be retryable: %v", err)
	}
}

func TestBinanceUnsupportedInterval(t *testing.T) {
	p := NewBinanceProvider("", "")
	if _, err := p.GetCandles(context.Background(), "BTCUSDT", "45min", 10); err == nil {
		t.Error("Expected error for unsupported interval")
	}
}

func TestYahooGetCandles(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.Query().Get("interval")
		fmt.Fprint(w, `{"chart": {"result": [{
			"timestamp": [1705309200, 1705309260, 1705309320],
			"indicators": {"quote": [{
				"open":   [2050.0, null, 2051.0],
				"high":   [2051.0, 2052.0, 2052.5],
				"low":    [2049.5, 2050.0, 2050.5],
				"close":  [2050.5, 2051.0, 2052.0],
				"volume": [10, 11, null]
			}]}
		}], "error": null}}`)
	}))
	defer srv.Close()

	p := NewYahooProvider().WithBaseURL(srv.URL)
	candles, err := p.GetCandles(context.Background(), "XAUUSD", "1min", 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotPath != "/GC=F?1m" {
		t.Errorf("Unexpected request %s", gotPath)
	}
	// bar with a null open is dropped
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}
	if candles[1].Close != 2052 || candles[1].Volume != 0 {
		t.Errorf("Unexpected last candle %+v", candles[1])
	}
}

func TestYahooSymbol(t *testing.T) {
	tests := map[string]string{
		"XAUUSD":  "GC=F",
		"BTCUSDT": "BTC-USD",
		"EURUSD":  "EURUSD=X",
		"AAPL":    "AAPL",
	}
	for in, want := range tests {
		if got := YahooSymbol(in); got != want {
			t.Errorf("YahooSymbol(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestFallbackProvider(t *testing.T) {
	failing := &stubProvider{name: "a", available: true, err: &ProviderError{Provider: "a", Err: errors.New("down"), Retryable: true}}
	offline := &stubProvider{name: "b", available: false, candles: series(5)}
	working := &stubProvider{name: "c", available: true, candles: series(5)}

	f := NewFallbackProvider(failing, offline, working)
	if len(f.Providers()) != 2 {
		t.Errorf("Expected unavailable providers to be filtered, got %d", len(f.Providers()))
	}

	candles, err := f.GetCandles(context.Background(), "XAUUSD", "5min", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(candles) != 3 || failing.calls != 1 || offline.calls != 0 {
		t.Errorf("Unexpected fallback behaviour: %d candles, calls %d/%d", len(candles), failing.calls, offline.calls)
	}

	empty := NewFallbackProvider(offline)
	if _, err := empty.GetCandles(context.Background(), "XAUUSD", "5min", 3); err == nil {
		t.Error("Expected error with no available providers")
	}
}

func TestRouter(t *testing.T) {
	crypto := &stubProvider{name: "binance", available: true, candles: series(3)}
	other := &stubProvider{name: "twelvedata", available: true, candles: series(3)}
	r := NewRouter(crypto, other)

	if r.Route("BTCUSDT").Name() != "binance" {
		t.Error("BTCUSDT should route to crypto provider")
	}
	if r.Route("XAUUSD").Name() != "twelvedata" {
		t.Error("XAUUSD should route to the default provider")
	}

	if _, err := r.GetCandles(context.Background(), "ETHUSDC", "1min", 3); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if crypto.calls != 1 || other.calls != 0 {
		t.Errorf("Unexpected routing: crypto %d other %d", crypto.calls, other.calls)
	}

	if NewRouter(nil, other).Route("BTCUSDT").Name() != "twelvedata" {
		t.Error("Without crypto provider everything routes to default")
	}
}

func TestCachingProvider(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, candles: series(300)}
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	c := NewCachingProvider(inner, 20*time.Second, 220)
	c.now = func() time.Time { return now }

	first, err := c.GetCandles(context.Background(), "XAUUSD", "1min", 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(first) != 100 || first[99].Close != inner.candles[299].Close {
		t.Errorf("Expected newest 100 candles, got %d", len(first))
	}

	// mutating the returned slice must not corrupt the cache
	first[99].Close = -1

	now = now.Add(10 * time.Second)
	second, _ := c.GetCandles(context.Background(), "XAUUSD", "1min", 200)
	if inner.calls != 1 {
		t.Errorf("Expected cache hit, inner called %d times", inner.calls)
	}
	if len(second) != 200 || second[199].Close == -1 {
		t.Errorf("Cache returned corrupted data")
	}

	// other interval is a different key
	c.GetCandles(context.Background(), "XAUUSD", "5min", 100)
	if inner.calls != 2 {
		t.Errorf("Expected miss for new interval, calls %d", inner.calls)
	}

	now = now.Add(30 * time.Second)
	c.GetCandles(context.Background(), "XAUUSD", "1min", 100)
	if inner.calls != 3 {
		t.Errorf("Expected refetch after TTL, calls %d", inner.calls)
	}

	c.Purge()
	c.mu.Lock()
	n := len(c.cache)
	c.mu.Unlock()
	if n != 1 {
		t.Errorf("Expected 1 live entry after purge, got %d", n)
	}
}

func TestCachingProviderError(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, err: errors.New("boom")}
	c := NewCachingProvider(inner, time.Minute, 10)

	if _, err := c.GetCandles(context.Background(), "XAUUSD", "1min", 10); err == nil {
		t.Fatal("Expected error")
	}
	c.GetCandles(context.Background(), "XAUUSD", "1min", 10)
	if inner.calls != 2 {
		t.Errorf("Errors must not be cached, calls %d", inner.calls)
	}
}

func TestNormalize(t *testing.T) {
	s := series(4)
	in := []model.Candle{s[2], s[0], s[1], s[1], s[3]}
	out := normalize(in, 3)
	if len(out) != 3 || !out[0].Time.Equal(s[1].Time) || !out[2].Time.Equal(s[3].Time) {
		t.Errorf("Unexpected normalize result: %+v", out)
	}
}
