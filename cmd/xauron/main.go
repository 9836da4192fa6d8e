package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"xauron/internal/analyzer"
	"xauron/internal/config"
	"xauron/internal/cooldown"
	"xauron/internal/daemon"
	"xauron/internal/logging"
	"xauron/internal/provider"
	"xauron/internal/render"
	"xauron/internal/scanner"
	"xauron/internal/strategy"
	"xauron/internal/symbols"
	"xauron/internal/telegram"
	"xauron/internal/web"
)

var (
	cfgFile      string
	strategyName string
	lang         string
	logLevel     string
	format       string
	symbolList   string
	intervalList string
	workers      int
	port         int
	subject      string
	tokenTTL     time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "xauron",
		Short: "OHLC signal engine for gold, FX and crypto",
		Long: `Xauron scores BUY/SELL/WAIT signals with ATR-based trade plans.

Strategies:
  scalping-breakout - EMA9/21 trend, slope and RSI(7) momentum with 20-bar breakout (default)
  trend-rsi-atr     - EMA trend with RSI momentum and ATR risk
  basic-vortex      - Vortex indicator direction graded by VI spread

Examples:
  xauron analyze XAUUSD M5
  xauron scan --symbols XAUUSD,BTCUSDT --intervals 1min,5min,15min
  xauron bot`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&strategyName, "strategy", "", "strategy preset (default from config)")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "message language: pt, en")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	analyzeCmd := &cobra.Command{
		Use:   "analyze SYMBOL [INTERVAL]",
		Short: "Analyze one symbol on one timeframe",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&format, "format", "table", "output format: table, json, text")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one multi-timeframe consensus pass over the watch list",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated symbols (default from config)")
	scanCmd.Flags().StringVar(&intervalList, "intervals", "", "comma-separated intervals, reference first")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers")
	scanCmd.Flags().StringVar(&format, "format", "table", "output format: table, json")

	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot with the auto-scan daemon",
		Args:  cobra.NoArgs,
		RunE:  runBot,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	strategiesCmd := &cobra.Command{
		Use:   "strategies",
		Short: "List strategy presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return outputStrategies()
		},
	}

	rootCmd.AddCommand(analyzeCmd, scanCmd, botCmd, serveCmd, tokenCmd, strategiesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config and applies the persistent flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if strategyName != "" {
		cfg.Engine.Strategy = strategyName
	}
	if lang != "" {
		cfg.Language = lang
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT/SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// buildProvider wires crypto pairs to Binance and everything else to
// TwelveData with Yahoo as fallback, behind one candle cache
func buildProvider(cfg *config.Config) provider.Provider {
	binance := provider.NewBinanceProvider(cfg.API.Binance.Key, cfg.API.Binance.Secret)
	twelve := provider.NewTwelveDataProvider(cfg.API.TwelveData.Key, cfg.API.TwelveData.RateLimit)
	yahoo := provider.NewYahooProvider()

	router := provider.NewRouter(binance, provider.NewFallbackProvider(twelve, yahoo))
	return provider.NewCachingProvider(router, cfg.API.CacheTTL, cfg.Engine.CandleLimit)
}

func buildAnalyzer(cfg *config.Config, logger zerolog.Logger) (*analyzer.Analyzer, error) {
	s, err := strategy.Get(cfg.Engine.Strategy, cfg.Engine.Tuning)
	if err != nil {
		return nil, err
	}
	return analyzer.New(buildProvider(cfg), s,
		analyzer.WithCandleLimit(cfg.Engine.CandleLimit),
		analyzer.WithTimeout(cfg.API.Timeout),
		analyzer.WithLogger(logger),
	), nil
}

// buildCooldown returns a Redis store when configured, else an in-memory one
func buildCooldown(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cooldown.Store, func(), error) {
	if cfg.Cooldown.RedisAddr == "" {
		return cooldown.NewMemoryStore(cfg.Cooldown.Window), func() {}, nil
	}
	store, err := cooldown.Dial(ctx, cfg.Cooldown.RedisAddr, cfg.Cooldown.RedisPassword, cfg.Cooldown.RedisDB, cfg.Cooldown.Window)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("addr", cfg.Cooldown.RedisAddr).Msg("cooldown backed by redis")
	return store, func() { store.Close() }, nil
}

func scannerConfig(cfg *config.Config) (scanner.Config, error) {
	syms := cfg.Scanner.Symbols
	if symbolList != "" {
		syms = strings.Split(symbolList, ",")
	}
	syms, err := symbols.LoadSymbols(syms)
	if err != nil {
		return scanner.Config{}, err
	}

	intervals := cfg.Intervals()
	if intervalList != "" {
		intervals = nil
		for _, raw := range strings.Split(intervalList, ",") {
			iv, err := symbols.NormalizeInterval(raw)
			if err != nil {
				return scanner.Config{}, err
			}
			intervals = append(intervals, iv)
		}
	}

	n := cfg.Scanner.Workers
	if workers > 0 {
		n = workers
	}

	return scanner.Config{
		Symbols:   syms,
		Intervals: intervals,
		Workers:   n,
		Timeout:   cfg.Scanner.Timeout,
	}, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	q, err := symbols.ParseQuery(strings.Join(args, " "), cfg.Engine.DefaultInterval)
	if err != nil {
		return err
	}

	a, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	r := render.New(render.ParseLang(cfg.Language))

	res, err := a.Analyze(ctx, q.Symbol, q.Interval)
	if err != nil {
		if format == "text" {
			fmt.Println(r.Error(q.Symbol, q.Interval, err))
			return nil
		}
		return err
	}

	switch format {
	case "json":
		return outputJSON(res)
	case "text":
		fmt.Println(r.Result(res))
		return nil
	default:
		return outputResultTable(r, res)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	scfg, err := scannerConfig(cfg)
	if err != nil {
		return err
	}
	a, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, closeStore, err := buildCooldown(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	s := scanner.NewScanner(a, store, nil, scfg, logger)

	fmt.Printf("Scanning %d symbols on %s with %s...\n\n",
		len(scfg.Symbols), strings.Join(scfg.Intervals, "/"), a.Strategy().Name())

	bar := progressbar.NewOptions(len(scfg.Symbols),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	s.SetProgressCallback(func(scanned, total int) {
		bar.Set(scanned)
	})

	result, err := s.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	bar.Finish()
	fmt.Println()

	if format == "json" {
		return outputJSON(result)
	}
	return outputScanTable(render.New(render.ParseLang(cfg.Language)), result)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	api, err := telegram.Connect(cfg.Telegram.Token)
	if err != nil {
		return err
	}

	a, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, closeStore, err := buildCooldown(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	scfg, err := scannerConfig(cfg)
	if err != nil {
		return err
	}

	bot := telegram.NewBot(api, a, render.New(render.ParseLang(cfg.Language)), cfg.Engine.DefaultInterval, logger)
	s := scanner.NewScanner(a, store, bot, scfg, logger)
	d := daemon.NewDaemon(daemon.Config{
		ScanInterval: cfg.Scanner.PollInterval,
		SessionAware: cfg.Scanner.SessionAware,
	}, s, logger)

	logger.Info().
		Str("strategy", a.Strategy().Name()).
		Strs("symbols", scfg.Symbols).
		Strs("intervals", scfg.Intervals).
		Msg("bot starting")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, run := range []func(context.Context) error{
		func(ctx context.Context) error { return bot.Run(ctx, api) },
		d.Run,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				errs <- err
				cancel()
			}
		}()
	}
	wg.Wait()
	close(errs)

	return <-errs
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	a, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	srv := web.NewServer(a, web.Options{
		DefaultInterval: cfg.Engine.DefaultInterval,
		Intervals:       cfg.Intervals(),
		JWTSecret:       cfg.Web.JWTSecret,
		AllowOrigins:    cfg.Web.AllowOrigins,
	}, logger)

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	p := cfg.Web.Port
	if port > 0 {
		p = port
	}
	return srv.Start(p)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	token, err := web.IssueToken([]byte(cfg.Web.JWTSecret), subject, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
