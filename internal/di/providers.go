package di

import (
	"context"
	"fmt"
	"time"

	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/handler/api"
	internalrepo "TradeDesk/internal/repository"
	"TradeDesk/internal/service/gateway"
	"TradeDesk/internal/service/notify"
	"TradeDesk/internal/service/ratelimit"
	"TradeDesk/internal/usecase"
	"TradeDesk/pkg/cache"
	pkgch "TradeDesk/pkg/clickhouse"
	"TradeDesk/pkg/config"
	xhttp "TradeDesk/pkg/http"
	pkgkafka "TradeDesk/pkg/kafka"
	applogger "TradeDesk/pkg/logger"
	"TradeDesk/pkg/metrics"
	"TradeDesk/pkg/server"
)

const serviceName = "tradedesk"

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the app logger and, when configured, ships aggregated
// error logs to Kafka.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collect.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collect.Interval,
			CountThreshold: cfg.Log.Collect.Threshold,
			Topic:          cfg.Log.Collect.Topic,
			Publisher:      producer,
			IncludeWarn:    cfg.Log.Collect.IncludeWarn,
			Service:        serviceName,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
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
	return client, nil
}

// ProvideBarArchive creates the archive table and returns the archive, or
// nil when archiving is off.
func ProvideBarArchive(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.BarArchive, error) {
	if ch == nil || !cfg.Query.Archive {
		return nil, nil
	}
	table := cfg.ClickHouse.Table
	var stmts []string
	if db := cfg.ClickHouse.Database; db != "" {
		table = db + "." + table
		stmts = append(stmts, "CREATE DATABASE IF NOT EXISTS "+db)
	}
	archive := internalrepo.NewCHBarArchive(ch, table)
	archive.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ch.InitSchema(ctx, append(stmts, archive.SchemaStatements()...)); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideCache returns a Redis-backed layered cache when Redis is enabled
// and an in-process cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Redis.MemorySize)), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, cfg.Redis.MemorySize, time.Minute), nil
}

func ProvideSymbolCache(c cache.Service) repository.SymbolCache {
	return internalrepo.NewCachedSymbols(c)
}

func ProvideLocker(c cache.Service) repository.Locker {
	return c
}

// ProvideEventPublisher returns nil when no events topic is configured.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil || cfg.Kafka.EventsTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideGateway creates the backend gateway with the configured credential.
func ProvideGateway(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *gateway.Client {
	hc := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Backend.Timeout),
		xhttp.WithTokenSource(xhttp.StaticToken(cfg.Backend.Token)),
	)
	return gateway.New(cfg.Backend.BaseURL,
		gateway.WithHTTPClient(hc),
		gateway.WithMetrics(m),
		gateway.WithLogger(l),
	)
}

func ProvideQueryEngine(
	gw repository.Gateway,
	symbols repository.SymbolCache,
	archive repository.BarArchive,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.QueryEngine {
	return usecase.NewQueryEngine(gw, symbols, archive, usecase.QueryConfig{
		DisplayLimit: cfg.Query.DisplayLimit,
		CatalogTTL:   cfg.Query.CatalogTTL,
		Archive:      cfg.Query.Archive,
	}, l)
}

func ProvideRefresher(lc *usecase.LifecycleController, locker repository.Locker, cfg *config.Config, l *applogger.Logger) *usecase.Refresher {
	return usecase.NewRefresher(lc, locker, usecase.RefresherConfig{
		Interval:   cfg.Refresh.Interval,
		LockTTL:    cfg.Refresh.LockTTL,
		Timeout:    cfg.Refresh.Timeout,
		RetryDelay: cfg.Refresh.RetryDelay,
	}, l)
}

// ProvideStatusHandler returns nil when no status topic is consumed.
func ProvideStatusHandler(cfg *config.Config, r *usecase.Refresher, m repository.Metrics) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled || cfg.Kafka.StatusTopic == "" {
		return nil
	}
	return usecase.NewModelStatusHandler(cfg.Kafka.StatusTopic, r, m)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil
// when there is nothing to consume.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.StatusTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerAutoOffsetReset(cfg.Kafka.Consumer.Offset),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewLoggingHook(l, time.Second))
	return consumer, nil
}

// ProvideWatcher returns nil when no notification socket is configured.
func ProvideWatcher(cfg *config.Config, r *usecase.Refresher, l *applogger.Logger) *notify.Watcher {
	if cfg.Notify.WebSocketURL == "" {
		return nil
	}
	return notify.New(cfg.Notify.WebSocketURL, r,
		notify.WithToken(cfg.Backend.Token),
		notify.WithReconnectDelay(cfg.Notify.ReconnectDelay),
		notify.WithPingInterval(cfg.Notify.PingInterval),
		notify.WithLogger(l),
	)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Rate, cfg.RateLimit.Burst)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	router *api.Router,
	refresher *usecase.Refresher,
	query *usecase.QueryEngine,
	status pkgkafka.MessageHandler,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	watcher *notify.Watcher,
	limiter *ratelimit.Limiter,
	c cache.Service,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, server.Components{
		Handler:   router,
		Refresher: refresher,
		Query:     query,
		Status:    status,
		Consumer:  consumer,
		Producer:  producer,
		Watcher:   watcher,
		Limiter:   limiter,
		Cache:     c,
		CH:        ch,
	})
}
