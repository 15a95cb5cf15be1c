package di

import (
	"fmt"
	"strings"

	"MarketLens/internal/analyzers"
	"MarketLens/internal/domain/repository"
	"MarketLens/internal/exchange"
	"MarketLens/internal/handler/api"
	"MarketLens/internal/provider"
	"MarketLens/internal/report"
	internalrepo "MarketLens/internal/repository"
	"MarketLens/internal/state"
	"MarketLens/pkg/cache"
	pkgch "MarketLens/pkg/clickhouse"
	"MarketLens/pkg/config"
	xhttp "MarketLens/pkg/http"
	pkgkafka "MarketLens/pkg/kafka"
	"MarketLens/pkg/logger"
	"MarketLens/pkg/metrics"
	"MarketLens/pkg/server"
)

// ProvideLogger creates the application logger. When log aggregation is
// enabled, error logs are collected and flushed in batches over the shared
// Kafka producer.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Log.Aggregate.Enabled && producer != nil {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Log.Aggregate.Interval,
			CountThreshold: cfg.Log.Aggregate.CountThreshold,
			Topic:          cfg.Log.Aggregate.Topic,
			Publisher:      producer,
		})
	}
	return log, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideState creates the shared analysis state. The cache observer feeds
// hit/miss counters, keyed by the data kind encoded in the key prefix.
func ProvideState(cfg *config.Config, m repository.Metrics) *state.State {
	return state.New(cfg.Cache.MaxSize, cache.WithObserver(
		func(key string) { m.RecordCacheHit(keyKind(key)) },
		func(key string) { m.RecordCacheMiss(keyKind(key)) },
	))
}

func keyKind(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// ProvideExchangeClient creates the Binance REST accessor.
func ProvideExchangeClient(cfg *config.Config) repository.ExchangeClient {
	return exchange.NewBinance(
		exchange.WithBaseURL(cfg.Exchange.RESTURL),
		exchange.WithHTTPTimeout(cfg.Exchange.HTTPTimeout),
	)
}

// ProvideProvider creates the cached market data provider.
func ProvideProvider(
	st *state.State,
	ex repository.ExchangeClient,
	log *logger.Logger,
	m repository.Metrics,
	cfg *config.Config,
) *provider.Provider {
	return provider.New(st, ex, log,
		provider.WithOHLCVTTL(cfg.Cache.OHLCVTTL),
		provider.WithTickerTTL(cfg.Cache.TickerTTL),
		provider.WithMetrics(m),
	)
}

// ProvideRegistry registers all analyzer modules. Modules that only read the
// base snapshot are enabled by default; the multi-timeframe ones (which may
// trigger extra fetches) and the composite are opt-in.
func ProvideRegistry(p *provider.Provider, cfg *config.Config) *analyzers.Registry {
	r := analyzers.NewRegistry()
	r.Register(analyzers.Technical{}, true)
	r.Register(analyzers.Signals{}, true)
	r.Register(analyzers.Sentiment{}, true)
	r.Register(analyzers.Structure{}, true)

	sq := analyzers.NewStructureQuality(p, cfg.Analysis.QualityTimeframes)
	r.Register(sq, false)
	r.Register(analyzers.FlowPressure{}, false)
	r.Register(analyzers.NewMarketQuality(sq), false)
	return r
}

// ProvideOrchestrator creates the report orchestrator.
func ProvideOrchestrator(
	p *provider.Provider,
	registry *analyzers.Registry,
	log *logger.Logger,
	m repository.Metrics,
) *report.Orchestrator {
	return report.NewOrchestrator(p, registry, log, report.WithMetrics(m))
}

// ProvideArchive creates the configured report archive backend.
func ProvideArchive(cfg *config.Config) (repository.ReportArchive, error) {
	switch cfg.Archive.Backend {
	case "redis":
		return internalrepo.NewRedisArchive(
			cfg.Archive.Redis.Addr,
			cfg.Archive.Redis.Password,
			cfg.Archive.Redis.DB,
			cfg.Archive.Prefix,
			cfg.Archive.TTL,
		)
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Archive.ClickHouse.Host),
			pkgch.WithPort(cfg.Archive.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Archive.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Archive.ClickHouse.User, cfg.Archive.ClickHouse.Password),
			pkgch.WithHTTP(cfg.Archive.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.Archive.ClickHouse.AsyncInsert, cfg.Archive.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.Archive.ClickHouse.DialTimeout, cfg.Archive.ClickHouse.ReadTimeout, cfg.Archive.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.Archive.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		return internalrepo.NewClickHouseArchive(client, cfg.Archive.Table)
	default:
		return internalrepo.NoopArchive{}, nil
	}
}

// ProvideProducer creates the shared Kafka producer, or nil when
// notifications are disabled. The report publisher and the log collector
// both ride it.
func ProvideProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Notify.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Notify.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Notify.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Notify.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Notify.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Notify.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Notify.Kafka.WriteTimeout, cfg.Notify.Kafka.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Notify.Kafka.MaxAttempts),
		pkgkafka.WithAsync(cfg.Notify.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka report publisher, or nil when
// notifications are disabled.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.ReportPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Notify.Kafka.Topic)
}

// ProvideStream creates the live ticker stream, or nil when disabled.
func ProvideStream(cfg *config.Config, p *provider.Provider, log *logger.Logger) *exchange.Stream {
	if !cfg.Exchange.StreamEnabled {
		return nil
	}
	return exchange.NewStream(cfg.Exchange.Symbols, p, log,
		exchange.WithStreamURL(cfg.Exchange.WebSocketURL),
		exchange.WithPingInterval(cfg.Exchange.PingInterval),
		exchange.WithReconnectDelay(cfg.Exchange.ReconnectDelay),
	)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(
	log *logger.Logger,
	orchestrator *report.Orchestrator,
	registry *analyzers.Registry,
	archive repository.ReportArchive,
	publisher repository.ReportPublisher,
) xhttp.Handler {
	return api.NewAnalysisHandler(log, orchestrator, registry, archive, publisher)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	stream *exchange.Stream,
	archive repository.ReportArchive,
	publisher repository.ReportPublisher,
) *server.App {
	return server.New(cfg, log, handler, stream, archive, publisher)
}
