package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"xauron/internal/cooldown"
	"xauron/internal/strategy"
	"xauron/internal/symbols"
)

// Config represents the application configuration
type Config struct {
	API      APIConfig      `yaml:"api"`
	Engine   EngineConfig   `yaml:"engine"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Cooldown CooldownConfig `yaml:"cooldown"`
	Telegram TelegramConfig `yaml:"telegram"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`
	Language string         `yaml:"language"` // pt | en
}

// APIConfig holds market data provider settings
type APIConfig struct {
	TwelveData ProviderConfig `yaml:"twelvedata"`
	Binance    BinanceConfig  `yaml:"binance"`
	CacheTTL   time.Duration  `yaml:"cache_ttl"`
	Timeout    time.Duration  `yaml:"timeout"`
}

// ProviderConfig holds individual provider settings
type ProviderConfig struct {
	Key       string `yaml:"key"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute
}

// BinanceConfig holds Binance credentials. Klines are public, so both may be empty.
type BinanceConfig struct {
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
}

// EngineConfig selects the strategy preset and its overrides
type EngineConfig struct {
	Strategy        string          `yaml:"strategy"`
	DefaultInterval string          `yaml:"default_interval"`
	CandleLimit     int             `yaml:"candle_limit"`
	Tuning          strategy.Tuning `yaml:"tuning"`
}

// ScannerConfig holds auto-scan settings
type ScannerConfig struct {
	Symbols      []string      `yaml:"symbols"`
	Intervals    []string      `yaml:"intervals"`
	Workers      int           `yaml:"workers"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	SessionAware bool          `yaml:"session_aware"`
}

// CooldownConfig holds the alert de-duplication settings. An empty
// RedisAddr keeps the cooldown in process memory.
type CooldownConfig struct {
	Window        time.Duration `yaml:"window"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// TelegramConfig holds bot settings
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// WebConfig holds HTTP API settings
type WebConfig struct {
	Port         int      `yaml:"port"`
	JWTSecret    string   `yaml:"jwt_secret"` // empty disables auth
	AllowOrigins []string `yaml:"allow_origins"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			TwelveData: ProviderConfig{RateLimit: 8},
			CacheTTL:   20 * time.Second,
			Timeout:    15 * time.Second,
		},
		Engine: EngineConfig{
			Strategy:        string(strategy.DefaultVariant),
			DefaultInterval: symbols.DefaultInterval,
			CandleLimit:     220,
		},
		Scanner: ScannerConfig{
			Symbols:      append([]string(nil), symbols.DefaultSymbols...),
			Intervals:    append([]string(nil), symbols.DefaultIntervals...),
			Workers:      4,
			Timeout:      60 * time.Second,
			PollInterval: 30 * time.Second,
			SessionAware: true,
		},
		Cooldown: CooldownConfig{Window: cooldown.DefaultWindow},
		Web: WebConfig{
			Port:         8080,
			AllowOrigins: []string{"*"},
		},
		Log:      LogConfig{Level: "info", Pretty: true},
		Language: "pt",
	}
}

// Load reads .env (if present), then the YAML file over the defaults, then
// environment overrides. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&c.API.TwelveData.Key, "TWELVE_API_KEY", "TWELVEDATA_API_KEY")
	setString(&c.API.Binance.Key, "BINANCE_API_KEY")
	setString(&c.API.Binance.Secret, "BINANCE_SECRET_KEY")
	setString(&c.Engine.DefaultInterval, "DEFAULT_INTERVAL")
	setString(&c.Engine.Strategy, "STRATEGY")
	setString(&c.Language, "LANGUAGE")
	setString(&c.Cooldown.RedisAddr, "REDIS_ADDR")
	setString(&c.Cooldown.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Web.JWTSecret, "JWT_SECRET")

	t := &c.Engine.Tuning
	if err := envInt(getenv, "VI_LENGTH", &t.Periods.Vortex); err != nil {
		return err
	}
	if err := envInt(getenv, "ATR_LENGTH", &t.Periods.ATR); err != nil {
		return err
	}
	if err := envFloat(getenv, "ATR_SL_MULT", &t.Stop); err != nil {
		return err
	}

	// Targets are ATR multiples; the strategy converts them against its
	// final stop multiple.
	var tp []float64
	for i := 1; i <= 3; i++ {
		var v *float64
		if err := envFloat(getenv, "ATR_TP"+strconv.Itoa(i)+"_MULT", &v); err != nil {
			return err
		}
		if v != nil {
			tp = append(tp, *v)
		}
	}
	switch len(tp) {
	case 0:
	case 3:
		t.TargetR = nil
		t.TargetATR = tp
	default:
		return errors.New("ATR_TP1_MULT, ATR_TP2_MULT and ATR_TP3_MULT must be set together")
	}
	return nil
}

func envInt(getenv func(string) string, key string, dst **int) error {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = &n
	return nil
}

func envFloat(getenv func(string) string, key string, dst **float64) error {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = &f
	return nil
}

// Validate checks if the configuration is valid. Provider keys are not
// required here; the provider reports a missing key per request.
func (c *Config) Validate() error {
	if _, err := strategy.Get(c.Engine.Strategy, c.Engine.Tuning); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if _, err := symbols.NormalizeInterval(c.Engine.DefaultInterval); err != nil {
		return fmt.Errorf("default_interval: %w", err)
	}
	if len(c.Scanner.Intervals) == 0 {
		return errors.New("scanner needs at least one interval")
	}
	for _, iv := range c.Scanner.Intervals {
		if _, err := symbols.NormalizeInterval(iv); err != nil {
			return fmt.Errorf("scanner intervals: %w", err)
		}
	}
	if _, err := symbols.LoadSymbols(c.Scanner.Symbols); err != nil {
		return fmt.Errorf("scanner symbols: %w", err)
	}
	if c.Scanner.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.Scanner.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.Cooldown.Window <= 0 {
		return errors.New("cooldown window must be positive")
	}
	if c.API.TwelveData.RateLimit < 1 {
		return errors.New("twelvedata rate_limit must be at least 1")
	}
	return nil
}

// Intervals returns the scanner intervals in canonical form
func (c *Config) Intervals() []string {
	out := make([]string, 0, len(c.Scanner.Intervals))
	for _, iv := range c.Scanner.Intervals {
		if n, err := symbols.NormalizeInterval(iv); err == nil {
			out = append(out, n)
		}
	}
	return out
}
