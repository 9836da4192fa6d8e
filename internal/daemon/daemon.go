// Package daemon runs the auto-scan loop behind the Telegram bot.
package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"xauron/internal/scanner"
	"xauron/pkg/model"
)

// Config 데몬 설정
type Config struct {
	ScanInterval time.Duration // 스캔 주기
	SessionAware bool          // 주말 FX/금속 스킵
}

// DefaultConfig 기본 설정
func DefaultConfig() Config {
	return Config{
		ScanInterval: 30 * time.Second,
		SessionAware: true,
	}
}

// Scanner is the part of scanner.Scanner the daemon drives
type Scanner interface {
	Scan(ctx context.Context) (*model.ScanResult, error)
	SetSessionFilter(fn scanner.SessionFilter)
}

// Daemon 자동 스캔 데몬
type Daemon struct {
	config  Config
	scanner Scanner
	stats   *DailyStats
	logger  zerolog.Logger
}

// NewDaemon 생성자
func NewDaemon(cfg Config, s Scanner, logger zerolog.Logger) *Daemon {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = DefaultConfig().ScanInterval
	}
	if cfg.SessionAware {
		s.SetSessionFilter(IsMarketOpen)
	}
	return &Daemon{
		config:  cfg,
		scanner: s,
		stats:   NewDailyStats(),
		logger:  logger.With().Str("component", "daemon").Logger(),
	}
}

// Stats returns the running counters
func (d *Daemon) Stats() *DailyStats {
	return d.stats
}

// Run scans immediately and then every ScanInterval until ctx is done.
// A failed cycle is logged and the loop continues.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info().Dur("interval", d.config.ScanInterval).Msg("starting auto-scan")

	ticker := time.NewTicker(d.config.ScanInterval)
	defer ticker.Stop()

	d.runScanCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return d.shutdown("cancelled")
		case <-ticker.C:
			d.runScanCycle(ctx)
		}
	}
}

// runScanCycle 스캔 사이클
func (d *Daemon) runScanCycle(ctx context.Context) {
	result, err := d.scanner.Scan(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("scan cycle failed")
		d.stats.RecordError()
		return
	}
	d.stats.Record(result)
}

func (d *Daemon) shutdown(reason string) error {
	d.logger.Info().Str("reason", reason).Str("summary", d.stats.Report()).Msg("auto-scan stopped")
	return nil
}
