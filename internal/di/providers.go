package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"WhaleRadar/internal/domain/repository"
	"WhaleRadar/internal/handler/api"
	internalrepo "WhaleRadar/internal/repository"
	"WhaleRadar/internal/service/binance"
	"WhaleRadar/internal/services/engine"
	"WhaleRadar/internal/usecase"
	pkgcache "WhaleRadar/pkg/cache"
	pkgch "WhaleRadar/pkg/clickhouse"
	"WhaleRadar/pkg/config"
	pkgkafka "WhaleRadar/pkg/kafka"
	applogger "WhaleRadar/pkg/logger"
	"WhaleRadar/pkg/metrics"
	"WhaleRadar/pkg/server"
)

// ProvideLogSink creates the in-memory sink backing the debug log API.
func ProvideLogSink() *applogger.MemorySink {
	return applogger.NewMemorySink(500)
}

// ProvideLogger creates the app logger with the log collector wired to
// the in-memory sink.
func ProvideLogger(cfg *config.Config, sink *applogger.MemorySink) (*applogger.Logger, error) {
	format := "json"
	if cfg.Logging.Console {
		format = "console"
	}
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "logs.aggregated",
		Publisher:      sink,
	})
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// database exists. Returns nil when the clickhouse backend is off.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS whaleradar"}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideCandleStore creates the ClickHouse candle store and its
// tables. Returns nil when ClickHouse is off.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) (repository.CandleStore, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("candle store init: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when the
// kafka backend is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalHub creates the WebSocket broadcast hub.
func ProvideSignalHub(l *applogger.Logger) *api.SignalHub {
	return api.NewSignalHub(l)
}

// ProvideSignalPublisher fans signals out to Kafka (when configured)
// and to WebSocket clients.
func ProvideSignalPublisher(producer *pkgkafka.Producer, hub *api.SignalHub, cfg *config.Config) repository.SignalPublisher {
	var kafkaSink repository.SignalPublisher
	if producer != nil {
		kafkaSink = internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
	}
	return internalrepo.NewFanoutPublisher(kafkaSink, hub)
}

// ProvideSignalCache keeps the latest signal per symbol, Redis when
// enabled, in-process memory otherwise.
func ProvideSignalCache(cfg *config.Config) (repository.SignalCache, error) {
	var svc pkgcache.Service
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
	} else {
		svc = pkgcache.NewMemoryCache()
	}
	return internalrepo.NewCachedSignals(svc, cfg.Redis.SignalTTL), nil
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideEngine creates the signal engine from the resolved risk config.
func ProvideEngine(cfg *config.Config, l *applogger.Logger) *engine.Engine {
	return engine.New(cfg.Risk, l)
}

// ProvideScanner creates the per-window scanner.
func ProvideScanner(
	eng *engine.Engine,
	publisher repository.SignalPublisher,
	cache repository.SignalCache,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Scanner {
	return usecase.NewScanner(eng, publisher, cache, m, l, cfg.Account.StartingBalance)
}

// ProvideWindower creates the candle windower feeding the scanner.
func ProvideWindower(
	cfg *config.Config,
	store repository.CandleStore,
	scanner *usecase.Scanner,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.CandleWindower {
	tf := repository.NormalizeTimeframe(cfg.Candles.Timeframe)
	return usecase.NewCandleWindower(tf, cfg.Candles.WindowSize, store, m, l, scanner.OnWindow)
}

// ProvideMarketStream creates the Binance trade stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return binance.New(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideTradeCollector creates the collector pumping the stream into
// the windower.
func ProvideTradeCollector(
	stream repository.MarketStream,
	windower *usecase.CandleWindower,
	m repository.Metrics,
) *usecase.TradeCollector {
	return usecase.NewTradeCollector(stream, windower, m)
}

// ProvideCandlesUseCase creates the candle history usecase.
func ProvideCandlesUseCase(store repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideRadarHandler creates the dashboard API handler.
func ProvideRadarHandler(
	l *applogger.Logger,
	sink *applogger.MemorySink,
	scanner *usecase.Scanner,
	candles *usecase.CandlesUseCase,
	collector *usecase.TradeCollector,
	windower *usecase.CandleWindower,
	cache repository.SignalCache,
) *api.RadarHandler {
	return api.NewRadarHandler(l, scanner, candles, collector, windower, cache, sink)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.TradeCollector,
	chClient *pkgch.Client,
	handler *api.RadarHandler,
	hub *api.SignalHub,
	publisher repository.SignalPublisher,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, collector, chClient, handler, hub, publisher, l)
}
