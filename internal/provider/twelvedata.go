package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"xauron/internal/ratelimit"
	"xauron/pkg/model"
)

const twelveDataBaseURL = "https://api.twelvedata.com"

// ErrMissingAPIKey means the provider needs credentials it was not given
var ErrMissingAPIKey = errors.New("api key not configured")

// fiat and metal codes that TwelveData expects as BASE/QUOTE
var twelveCurrencies = map[string]bool{
	"XAU": true, "XAG": true, "XPT": true, "XPD": true,
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CHF": true,
	"AUD": true, "CAD": true, "NZD": true, "BRL": true, "MXN": true,
	"BTC": true, "ETH": true,
}

// TwelveDataProvider implements the Provider interface for the TwelveData
// time_series endpoint
type TwelveDataProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
}

// NewTwelveDataProvider creates a new TwelveData provider.
// The free plan allows 8 requests per minute.
func NewTwelveDataProvider(apiKey string, perMinute int) *TwelveDataProvider {
	if perMinute <= 0 {
		perMinute = 8
	}
	return &TwelveDataProvider{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: twelveDataBaseURL,
		client:  &http.Client{Timeout: 12 * time.Second},
		limiter: ratelimit.NewLimiter("twelvedata", perMinute),
	}
}

// WithBaseURL points the provider at another host (tests, proxies)
func (p *TwelveDataProvider) WithBaseURL(u string) *TwelveDataProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

// Name returns the provider name
func (p *TwelveDataProvider) Name() string {
	return "twelvedata"
}

// IsAvailable returns true if API key is set
func (p *TwelveDataProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// TwelveDataSymbol maps a compact pair like XAUUSD to XAU/USD. Other
// tickers pass through unchanged.
func TwelveDataSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	if len(s) == 6 && twelveCurrencies[s[:3]] && twelveCurrencies[s[3:]] {
		return s[:3] + "/" + s[3:]
	}
	return s
}

// GetCandles fetches candles from /time_series
func (p *TwelveDataProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	if !p.IsAvailable() {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrMissingAPIKey}
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", TwelveDataSymbol(symbol))
	params.Set("interval", interval)
	params.Set("outputsize", strconv.Itoa(limit))
	params.Set("apikey", p.apiKey)
	params.Set("timezone", "UTC")
	params.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/time_series?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transient(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimited(p.limiter, "")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: resp.StatusCode >= 500}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transient(p.Name(), fmt.Errorf("reading response: %w", err))
	}

	candles, err := p.parse(body)
	if err != nil {
		return nil, err
	}

	p.limiter.ResetBackoff()
	return normalize(candles, limit), nil
}

// parse decodes a time_series body. TwelveData reports errors with HTTP 200
// and {"status":"error","code":...}; values arrive newest first as strings.
func (p *TwelveDataProvider) parse(body []byte) ([]model.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, permanent(p.Name(), "invalid JSON response")
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("status").String() == "error" {
		code := doc.Get("code").Int()
		if code == http.StatusTooManyRequests {
			return nil, rateLimited(p.limiter, doc.Get("message").String())
		}
		return nil, &ProviderError{
			Provider:  p.Name(),
			Err:       fmt.Errorf("%s", doc.Get("message").String()),
			Retryable: code >= 500,
		}
	}

	values := doc.Get("values").Array()
	if len(values) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData}
	}

	candles := make([]model.Candle, 0, len(values))
	for _, v := range values {
		t, err := parseTwelveTime(v.Get("datetime").String())
		if err != nil {
			return nil, permanent(p.Name(), "bad datetime %q", v.Get("datetime").String())
		}
		candles = append(candles, model.Candle{
			Time:   t,
			Open:   v.Get("open").Float(),
			High:   v.Get("high").Float(),
			Low:    v.Get("low").Float(),
			Close:  v.Get("close").Float(),
			Volume: v.Get("volume").Float(),
		})
	}
	return candles, nil
}

func parseTwelveTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
