package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"DipScan/internal/domain/models"
	"DipScan/internal/domain/repository"
	"DipScan/internal/handler/api"
	internalrepo "DipScan/internal/repository"
	"DipScan/internal/repository/report"
	"DipScan/internal/service/breaker"
	"DipScan/internal/service/ratelimit"
	"DipScan/internal/services/dip"
	"DipScan/internal/usecase"
	"DipScan/pkg/cache"
	pkgch "DipScan/pkg/clickhouse"
	"DipScan/pkg/config"
	xhttp "DipScan/pkg/http"
	pkgkafka "DipScan/pkg/kafka"
	applogger "DipScan/pkg/logger"
	"DipScan/pkg/metrics"
	"DipScan/pkg/server"
)

const schemaTimeout = 10 * time.Second

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		NoColor: cfg.Log.NoColor,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics registers the Prometheus collectors on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCache returns nil when caching is disabled, memory only by default, and
// memory in front of Redis when Redis is enabled.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	if !cfg.Cache.Redis.Enabled {
		mem := cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxSize),
			cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
		)
		return mem, func() { _ = mem.Close() }, nil
	}

	rc, err := cache.NewRedisCache(context.Background(),
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.KeyPrefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	layered := cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MaxSize),
		cache.WithLayeredL1TTL(cfg.Cache.TTL),
	)
	return layered, func() { _ = layered.Close() }, nil
}

// ProvideClickHouseClient returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(context.Background(),
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvidePriceStore creates the ClickHouse closes table; nil without ClickHouse.
func ProvidePriceStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (*internalrepo.CHPriceStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHPriceStore(ch, cfg.ClickHouse.PriceTable, l)
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse price schema: %w", err)
	}
	return store, nil
}

// ProvidePriceProvider stacks the configured source with retries, rate limiting,
// a circuit breaker, archiving into ClickHouse and the series cache.
func ProvidePriceProvider(
	cfg *config.Config,
	l *applogger.Logger,
	rec *metrics.Recorder,
	prices *internalrepo.CHPriceStore,
	c cache.Service,
) (repository.PriceHistoryProvider, error) {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout))

	var base repository.PriceHistoryProvider
	switch cfg.Provider.Type {
	case config.ProviderYahoo:
		base = internalrepo.NewYahooProvider(cfg.Provider.Yahoo.BaseURL, client)
	case config.ProviderCoinGecko:
		base = internalrepo.NewCoinGeckoProvider(cfg.Provider.CoinGecko.BaseURL, cfg.Provider.CoinGecko.APIKey, cfg.Provider.CoinGecko.VsCurrency, client)
	case config.ProviderAlpaca:
		base = internalrepo.NewAlpacaProvider(cfg.Provider.Alpaca.APIKey, cfg.Provider.Alpaca.APISecret, cfg.Provider.Alpaca.BaseURL)
	case config.ProviderClickHouse:
		if prices == nil {
			return nil, fmt.Errorf("%w: clickhouse provider needs clickhouse.enabled", config.ErrInvalidConfig)
		}
		base = prices
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalidConfig, cfg.Provider.Type)
	}

	b := breaker.New(breaker.Settings{
		Name:                base.Name(),
		ConsecutiveFailures: cfg.Provider.Breaker.ConsecutiveFailures,
		Timeout:             cfg.Provider.Breaker.OpenTimeout,
		IsSuccessful:        internalrepo.BreakerSuccess,
		OnStateChange: func(name, from, to string) {
			l.Warn("provider breaker state changed",
				applogger.String("provider", name),
				applogger.String("from", from),
				applogger.String("to", to),
			)
		},
	})

	var p repository.PriceHistoryProvider = internalrepo.NewResilientProvider(base,
		internalrepo.WithRetries(cfg.Provider.Retries, 250*time.Millisecond),
		internalrepo.WithLimiter(ratelimit.New(cfg.Provider.RateLimit.RPS, cfg.Provider.RateLimit.Burst)),
		internalrepo.WithBreaker(b),
		internalrepo.WithFetchMetrics(rec),
		internalrepo.WithProviderLogger(l),
	)
	if prices != nil && cfg.Provider.Type != config.ProviderClickHouse {
		p = internalrepo.NewArchivingProvider(p, prices, l)
	}
	if c != nil {
		p = internalrepo.NewCachedProvider(p, c, cfg.Cache.TTL, l)
	}
	return p, nil
}

func ProvideEstimator(cfg *config.Config) (*dip.Estimator, error) {
	return dip.NewEstimator(cfg.Dip.Window, cfg.Dip.Horizons, dip.HorizonMode(cfg.Dip.HorizonMode))
}

func ProvideClassifier(cfg *config.Config) (dip.Classifier, error) {
	return dip.NewClassifier(cfg.Dip.Thresholds.Likely, cfg.Dip.Thresholds.Possible)
}

func ProvideScannerSettings(cfg *config.Config) usecase.ScannerSettings {
	universe := make([]models.Asset, 0, len(cfg.Universe))
	for _, a := range cfg.Universe {
		universe = append(universe, models.NewAsset(a.Ticker, a.Name, a.CoinGeckoID))
	}
	return usecase.ScannerSettings{
		Universe:        universe,
		LookbackDays:    cfg.Scan.LookbackDays,
		MinObservations: cfg.Scan.MinObservations,
		TopN:            cfg.Scan.TopN,
		Workers:         cfg.Scan.Workers,
		AssetTimeout:    cfg.Scan.AssetTimeout,
	}
}

// persistentSinks are the outputs shared by the scan command and the dashboard.
func persistentSinks(cfg *config.Config, l *applogger.Logger, ch *pkgch.Client, producer *pkgkafka.Producer) ([]repository.ReportSink, error) {
	out := func(name string) string { return filepath.Join(cfg.Output.Dir, name) }

	var sinks []repository.ReportSink
	if cfg.Output.CSVFile != "" {
		sinks = append(sinks, report.NewCSVWriter(out(cfg.Output.CSVFile)))
	}
	if cfg.Output.JSONFile != "" {
		sinks = append(sinks, report.NewJSONWriter(out(cfg.Output.JSONFile)))
	}
	if cfg.Output.TrajectoryFile != "" {
		var renderer report.ChartRenderer
		if len(cfg.Output.ChartCommand) > 0 {
			r, err := report.NewExecRenderer(cfg.Output.ChartCommand)
			if err != nil {
				return nil, fmt.Errorf("chart renderer: %w", err)
			}
			renderer = r
		}
		sinks = append(sinks, report.NewTrajectoryWriter(out(cfg.Output.TrajectoryFile), renderer))
	}

	if ch != nil {
		store := internalrepo.NewCHSignalStore(ch, cfg.ClickHouse.SignalTable, l)
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			return nil, fmt.Errorf("clickhouse signal schema: %w", err)
		}
		sinks = append(sinks, store)
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaSignalPublisher(producer))
	}
	return sinks, nil
}

// ProvideScanSinks adds the console summary to the persistent outputs.
func ProvideScanSinks(cfg *config.Config, l *applogger.Logger, ch *pkgch.Client, producer *pkgkafka.Producer) ([]repository.ReportSink, error) {
	sinks, err := persistentSinks(cfg, l, ch, producer)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Console {
		sinks = append(sinks, report.NewConsoleWriter(os.Stdout, cfg.Log.NoColor))
	}
	return sinks, nil
}

// ProvideServeSinks feeds the in-memory store and websocket hub in addition to
// the persistent outputs.
func ProvideServeSinks(
	cfg *config.Config,
	l *applogger.Logger,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	store *usecase.ReportStore,
	hub *api.Hub,
) ([]repository.ReportSink, error) {
	sinks, err := persistentSinks(cfg, l, ch, producer)
	if err != nil {
		return nil, err
	}
	return append([]repository.ReportSink{store, hub}, sinks...), nil
}

func ProvideHub(l *applogger.Logger) *api.Hub {
	return api.NewHub(l)
}

func ProvideDashboardHandler(
	cfg *config.Config,
	l *applogger.Logger,
	store *usecase.ReportStore,
	runner *usecase.ScanRunner,
	hub *api.Hub,
) *api.DashboardHandler {
	return api.NewDashboardHandler(l, store, runner, hub, cfg.Scan.TopN)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder, h *api.DashboardHandler) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORSOrigins...),
		xhttp.WithLogger(l),
		xhttp.WithMetrics(rec, nil),
	)
}

func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	runner *usecase.ScanRunner,
	h *api.DashboardHandler,
	hub *api.Hub,
) *server.App {
	return server.New(cfg, l, srv, runner, h, hub)
}
