package provider

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"xauron/internal/ratelimit"
	"xauron/pkg/model"
)

// Binance spot kline intervals keyed by canonical interval
var binanceIntervals = map[string]string{
	"1min": "1m", "5min": "5m", "15min": "15m", "30min": "30m",
	"1h": "1h", "2h": "2h", "4h": "4h", "1day": "1d", "1week": "1w",
}

// BinanceProvider implements the Provider interface for Binance spot klines
type BinanceProvider struct {
	client  *binance.Client
	limiter *ratelimit.Limiter
}

// NewBinanceProvider creates a new Binance provider. Klines are public;
// keys are optional.
func NewBinanceProvider(apiKey, secretKey string) *BinanceProvider {
	client := binance.NewClient(apiKey, secretKey)
	client.HTTPClient = &http.Client{Timeout: 10 * time.Second}

	return &BinanceProvider{
		client:  client,
		limiter: ratelimit.NewLimiter("binance", 600),
	}
}

// WithBaseURL points the client at another host (testnet, tests)
func (p *BinanceProvider) WithBaseURL(u string) *BinanceProvider {
	p.client.BaseURL = strings.TrimRight(u, "/")
	return p
}

// Name returns the provider name
func (p *BinanceProvider) Name() string {
	return "binance"
}

// IsAvailable always returns true (public market data)
func (p *BinanceProvider) IsAvailable() bool {
	return true
}

// GetCandles fetches spot klines
func (p *BinanceProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	iv, ok := binanceIntervals[interval]
	if !ok {
		return nil, permanent(p.Name(), "unsupported interval %s", interval)
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	klines, err := p.client.NewKlinesService().
		Symbol(strings.ToUpper(symbol)).
		Interval(iv).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, p.wrap(err)
	}
	if len(klines) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData}
	}

	p.limiter.ResetBackoff()

	candles := make([]model.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := klineCandle(k)
		if err != nil {
			return nil, permanent(p.Name(), "bad kline at %d: %v", k.OpenTime, err)
		}
		candles = append(candles, c)
	}
	return normalize(candles, limit), nil
}

// wrap classifies Binance errors. -1003 is the request-weight limit.
func (p *BinanceProvider) wrap(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == -1003 {
			return rateLimited(p.limiter, apiErr.Message)
		}
		return permanent(p.Name(), "api error %d: %s", apiErr.Code, apiErr.Message)
	}
	return transient(p.Name(), err)
}

func klineCandle(k *binance.Kline) (model.Candle, error) {
	fields := []string{k.Open, k.High, k.Low, k.Close, k.Volume}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return model.Candle{}, err
		}
		vals[i] = v
	}
	return model.Candle{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
