package scanner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xauron/internal/analyzer"
	"xauron/internal/cooldown"
	"xauron/pkg/model"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// Notifier delivers alerts (Telegram broadcast, logs, webhooks). A non-nil
// error means no recipient got the alert.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, alert model.Alert) error

func (f NotifierFunc) Notify(ctx context.Context, alert model.Alert) error {
	return f(ctx, alert)
}

// SessionFilter reports whether a symbol's market is open at t
type SessionFilter func(symbol string, t time.Time) bool

// Config holds scanner settings
type Config struct {
	Symbols   []string
	Intervals []string // consensus timeframes, reference first
	Workers   int
	Timeout   time.Duration // per pass
}

// Scanner runs multi-timeframe consensus over a watch list
type Scanner struct {
	analyzer     *analyzer.Analyzer
	cooldown     cooldown.Store
	notifier     Notifier
	config       Config
	session      SessionFilter
	progressFunc ProgressCallback
	logger       zerolog.Logger
	now          func() time.Time
}

// NewScanner creates a new scanner. A nil notifier only records alerts.
func NewScanner(a *analyzer.Analyzer, store cooldown.Store, n Notifier, cfg Config, logger zerolog.Logger) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	return &Scanner{
		analyzer: a,
		cooldown: store,
		notifier: n,
		config:   cfg,
		logger:   logger.With().Str("component", "scanner").Logger(),
		now:      time.Now,
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

// SetSessionFilter skips symbols whose market is closed
func (s *Scanner) SetSessionFilter(fn SessionFilter) {
	s.session = fn
}

// Config returns the scanner configuration
func (s *Scanner) Config() Config {
	return s.config
}

type outcome struct {
	symbol string
	signal *model.ConsensusSignal
	err    error
}

// Scan performs one pass over the watch list. Individual symbol failures
// are recorded in the result and never abort the pass.
func (s *Scanner) Scan(ctx context.Context) (*model.ScanResult, error) {
	startTime := time.Now()

	symbols := s.activeSymbols()
	result := &model.ScanResult{
		Signals:  []model.ConsensusSignal{},
		Alerts:   []model.Alert{},
		Failures: map[string]string{},
	}

	if len(symbols) == 0 {
		result.ScanTime = time.Since(startTime)
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	// Channels
	jobChan := make(chan string, len(symbols))
	resultChan := make(chan outcome, len(symbols))

	// Send all jobs
	for _, sym := range symbols {
		jobChan <- sym
	}
	close(jobChan)

	// Progress counter
	var scannedCount int64

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < min(s.config.Workers, len(symbols)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sym := range jobChan {
				if ctx.Err() != nil {
					resultChan <- outcome{symbol: sym, err: ctx.Err()}
					continue
				}

				signal, _, err := s.analyzer.AnalyzeMTF(ctx, sym, s.config.Intervals)
				resultChan <- outcome{symbol: sym, signal: signal, err: err}

				// Update progress
				count := atomic.AddInt64(&scannedCount, 1)
				if s.progressFunc != nil {
					s.progressFunc(int(count), len(symbols))
				}
			}
		}()
	}

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results
	var outcomes []outcome
	for o := range resultChan {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].symbol < outcomes[j].symbol })

	for _, o := range outcomes {
		switch {
		case o.err != nil:
			result.Failures[o.symbol] = o.err.Error()
			s.logger.Warn().Err(o.err).Str("symbol", o.symbol).Msg("scan failed")
		case o.signal != nil:
			result.Signals = append(result.Signals, *o.signal)
			if alert, ok := s.alert(ctx, *o.signal); ok {
				result.Alerts = append(result.Alerts, alert)
			}
		}
	}

	result.TotalScanned = len(symbols)
	result.ScanTime = time.Since(startTime)

	s.logger.Info().
		Int("scanned", result.TotalScanned).
		Int("signals", len(result.Signals)).
		Int("alerts", len(result.Alerts)).
		Int("failures", len(result.Failures)).
		Dur("took", result.ScanTime).
		Msg("scan complete")

	return result, nil
}

// alert applies the cooldown and delivers a new alert
func (s *Scanner) alert(ctx context.Context, signal model.ConsensusSignal) (model.Alert, bool) {
	now := s.now()
	key := cooldown.Key(signal.Symbol, signal.Side)

	if s.cooldown != nil {
		ok, err := s.cooldown.Allow(ctx, key, now)
		if err != nil {
			// without cooldown state we stay quiet rather than spam
			s.logger.Error().Err(err).Str("key", key).Msg("cooldown check failed")
			return model.Alert{}, false
		}
		if !ok {
			s.logger.Debug().Str("key", key).Msg("cooldown active")
			return model.Alert{}, false
		}
	}

	alert := model.Alert{ID: uuid.NewString(), Signal: signal, CreatedAt: now}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, alert); err != nil {
			s.logger.Error().Err(err).Str("alert", alert.ID).Msg("notify failed")
			// undelivered: let the next pass try again
			if s.cooldown != nil {
				if err := s.cooldown.Release(ctx, key); err != nil {
					s.logger.Warn().Err(err).Str("key", key).Msg("cooldown release failed")
				}
			}
			return model.Alert{}, false
		}
	}
	return alert, true
}

func (s *Scanner) activeSymbols() []string {
	if s.session == nil {
		return s.config.Symbols
	}
	now := s.now()
	out := make([]string, 0, len(s.config.Symbols))
	for _, sym := range s.config.Symbols {
		if s.session(sym, now) {
			out = append(out, sym)
		} else {
			s.logger.Debug().Str("symbol", sym).Msg("market closed, skipping")
		}
	}
	return out
}
