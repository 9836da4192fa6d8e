package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xauron/internal/ratelimit"
	"xauron/internal/symbols"
	"xauron/pkg/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// yahooInterval maps a canonical interval to Yahoo's interval and range.
// Yahoo keeps 7 days of 1m data and 60 days of intraday data.
var yahooIntervals = map[string]struct{ interval, rng string }{
	"1min":  {"1m", "5d"},
	"5min":  {"5m", "1mo"},
	"15min": {"15m", "1mo"},
	"30min": {"30m", "1mo"},
	"1h":    {"60m", "3mo"},
	"1day":  {"1d", "2y"},
	"1week": {"1wk", "5y"},
}

// Yahoo tickers for spot metals (front-month futures)
var yahooMetals = map[string]string{
	"XAUUSD": "GC=F",
	"XAGUSD": "SI=F",
}

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		baseURL: yahooBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: ratelimit.NewLimiter("yahoo", 30), // Conservative rate limit
	}
}

// WithBaseURL points the provider at another host (tests)
func (p *YahooProvider) WithBaseURL(u string) *YahooProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// YahooSymbol maps a compact symbol to a Yahoo ticker
func YahooSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	if t, ok := yahooMetals[s]; ok {
		return t
	}
	if base, ok := symbols.SplitCrypto(s); ok {
		return base + "-USD"
	}
	if td := TwelveDataSymbol(s); td != s {
		return strings.ReplaceAll(td, "/", "") + "=X"
	}
	return s
}

// yahooResponse represents the Yahoo Finance API response.
// Quote arrays contain nulls for missing bars.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetCandles fetches chart data for a symbol
func (p *YahooProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	iv, ok := yahooIntervals[interval]
	if !ok {
		return nil, permanent(p.Name(), "unsupported interval %s", interval)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("interval", iv.interval)
	params.Set("range", iv.rng)
	params.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(YahooSymbol(symbol)), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transient(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimited(p.limiter, "")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, permanent(p.Name(), "status %d", resp.StatusCode)
	}

	p.limiter.ResetBackoff()

	var data yahooResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if data.Chart.Error != nil {
		return nil, permanent(p.Name(), "%s", data.Chart.Error.Description)
	}

	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 ||
		len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData}
	}

	result := data.Chart.Result[0]
	quotes := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, high, low, cl := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		// Skip bars with any missing price
		if open == nil || high == nil || low == nil || cl == nil {
			continue
		}

		var volume float64
		if v := at(quotes.Volume, i); v != nil {
			volume = *v
		}

		candles = append(candles, model.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *cl,
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData}
	}
	return normalize(candles, limit), nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
