package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"DipScan/pkg/util"
)

// ErrInvalidConfig is returned for every configuration that must not reach a scan.
var ErrInvalidConfig = errors.New("invalid config")

const (
	ProviderYahoo      = "yahoo"
	ProviderCoinGecko  = "coingecko"
	ProviderAlpaca     = "alpaca"
	ProviderClickHouse = "clickhouse"

	HorizonModeFallback = "fallback"
	HorizonModeStrict   = "strict"
)

type AssetConfig struct {
	Ticker      string `yaml:"ticker" validate:"required"`
	Name        string `yaml:"name,omitempty"`
	CoinGeckoID string `yaml:"coingecko_id,omitempty"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level   string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format  string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output  string `yaml:"output" default:"stderr"`
		NoColor bool   `yaml:"no_color"`
	} `yaml:"log"`
	Universe []AssetConfig `yaml:"universe" validate:"min=1,dive"`
	Scan     struct {
		LookbackDays    int           `yaml:"lookback_days" default:"180" validate:"gt=0"`
		MinObservations int           `yaml:"min_observations" default:"30" validate:"gt=0"`
		TopN            int           `yaml:"top_n" default:"5" validate:"gt=0"`
		Workers         int           `yaml:"workers" default:"4" validate:"gt=0"`
		AssetTimeout    time.Duration `yaml:"asset_timeout" default:"20s" validate:"gt=0"`
	} `yaml:"scan"`
	Dip struct {
		Window      int    `yaml:"window" default:"7" validate:"gte=2"`
		Horizons    []int  `yaml:"horizons" default:"[30,90,180]" validate:"min=1,dive,gt=0"`
		HorizonMode string `yaml:"horizon_mode" default:"fallback" validate:"oneof=fallback strict"`
		Thresholds  struct {
			Likely   float64 `yaml:"likely" default:"23.5" validate:"gte=0,lte=100"`
			Possible float64 `yaml:"possible" default:"15" validate:"gte=0,lte=100"`
		} `yaml:"thresholds"`
	} `yaml:"dip"`
	Provider struct {
		Type      string        `yaml:"type" default:"yahoo" validate:"oneof=yahoo coingecko alpaca clickhouse"`
		Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		Retries   int           `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
		RateLimit struct {
			RPS   float64 `yaml:"rps" default:"4" validate:"gt=0"`
			Burst int     `yaml:"burst" default:"2" validate:"gt=0"`
		} `yaml:"rate_limit"`
		Breaker struct {
			ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"3" validate:"gt=0"`
			OpenTimeout         time.Duration `yaml:"open_timeout" default:"30s" validate:"gt=0"`
		} `yaml:"breaker"`
		Yahoo struct {
			BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
		} `yaml:"yahoo"`
		CoinGecko struct {
			BaseURL    string `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"url"`
			APIKey     string `yaml:"api_key"`
			VsCurrency string `yaml:"vs_currency" default:"usd"`
		} `yaml:"coingecko"`
		Alpaca struct {
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
			BaseURL   string `yaml:"base_url"`
		} `yaml:"alpaca"`
	} `yaml:"provider"`
	Cache struct {
		Enabled   bool          `yaml:"enabled" default:"true"`
		TTL       time.Duration `yaml:"ttl" default:"1h" validate:"gt=0"`
		MaxSize   int           `yaml:"max_size" default:"256" validate:"gt=0"`
		KeyPrefix string        `yaml:"key_prefix" default:"dipscan"`
		Redis     struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		// CleanupInterval is how often expired entries leave the in-memory cache.
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"5m" validate:"gt=0"`
	} `yaml:"cache"`
	Output struct {
		Dir            string   `yaml:"dir" default:"charts_dip_alert" validate:"required"`
		CSVFile        string   `yaml:"csv_file" default:"dip_signals.csv"`
		JSONFile       string   `yaml:"json_file" default:"dip_signals.json"`
		TrajectoryFile string   `yaml:"trajectory_file" default:"top_cumulative_returns.json"`
		Console        bool     `yaml:"console" default:"true"`
		ChartCommand   []string `yaml:"chart_command"`
	} `yaml:"output"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		ScanInterval    time.Duration `yaml:"scan_interval"`
		ScanOnStart     bool          `yaml:"scan_on_start" default:"true"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"dipscan"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		PriceTable   string        `yaml:"price_table" default:"daily_closes"`
		SignalTable  string        `yaml:"signal_table" default:"dip_signals"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"dipscan.signals"`
		RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
}

// Default returns a fully defaulted configuration scanning the built-in universe.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	c.Universe = DefaultUniverse()
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv loads config from YAML (when path is set), a .env file when present,
// and overrides with environment variables before validating.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var (
		c   *Config
		err error
	)
	if path == "" {
		c = Default()
	} else if c, err = parse(path); err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	c.Universe = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Universe) == 0 {
		c.Universe = DefaultUniverse()
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DIPSCAN_PROVIDER"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("DIPSCAN_TICKERS"); v != "" {
		c.Universe = ParseTickers(v)
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Provider.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.Provider.Alpaca.APISecret = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.Provider.CoinGecko.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	c.Scan.Workers = util.ParseIntDefault(os.Getenv("DIPSCAN_WORKERS"), c.Scan.Workers)
	c.Scan.TopN = util.ParseIntDefault(os.Getenv("DIPSCAN_TOP_N"), c.Scan.TopN)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// ParseTickers turns "BTC-USD, ETH-USD" into universe entries in the given order.
func ParseTickers(raw string) []AssetConfig {
	var out []AssetConfig
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, AssetConfig{Ticker: t, CoinGeckoID: knownCoinGeckoID(t)})
	}
	return out
}

var validate = validator.New()

// Validate checks field constraints and the rules that span several fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Dip.Thresholds.Possible >= c.Dip.Thresholds.Likely {
		return fmt.Errorf("%w: dip.thresholds.possible (%.2f) must be below dip.thresholds.likely (%.2f)",
			ErrInvalidConfig, c.Dip.Thresholds.Possible, c.Dip.Thresholds.Likely)
	}

	seen := make(map[int]struct{}, len(c.Dip.Horizons))
	for _, h := range c.Dip.Horizons {
		if _, dup := seen[h]; dup {
			return fmt.Errorf("%w: dip.horizons contains %d twice", ErrInvalidConfig, h)
		}
		seen[h] = struct{}{}
	}

	tickers := make(map[string]struct{}, len(c.Universe))
	for _, a := range c.Universe {
		if _, dup := tickers[a.Ticker]; dup {
			return fmt.Errorf("%w: universe lists %s twice", ErrInvalidConfig, a.Ticker)
		}
		tickers[a.Ticker] = struct{}{}
	}

	if c.Provider.Type == ProviderClickHouse && !c.ClickHouse.Enabled {
		return fmt.Errorf("%w: provider.type clickhouse requires clickhouse.enabled", ErrInvalidConfig)
	}
	if c.Provider.Type == ProviderAlpaca && (c.Provider.Alpaca.APIKey == "" || c.Provider.Alpaca.APISecret == "") {
		return fmt.Errorf("%w: provider.type alpaca requires provider.alpaca.api_key and api_secret", ErrInvalidConfig)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers cannot be empty when kafka is enabled", ErrInvalidConfig)
	}
	return nil
}
