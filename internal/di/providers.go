package di

import (
	"context"
	"fmt"
	"time"

	"LevelWatch/internal/domain/repository"
	"LevelWatch/internal/handler/api"
	mid "LevelWatch/internal/middleware"
	internalrepo "LevelWatch/internal/repository"
	"LevelWatch/internal/service/delta"
	"LevelWatch/internal/service/notify"
	"LevelWatch/internal/service/zones"
	"LevelWatch/internal/usecase"
	pkgcache "LevelWatch/pkg/cache"
	pkgch "LevelWatch/pkg/clickhouse"
	"LevelWatch/pkg/config"
	pkgkafka "LevelWatch/pkg/kafka"
	applogger "LevelWatch/pkg/logger"
	"LevelWatch/pkg/metrics"
	"LevelWatch/pkg/queue"
	"LevelWatch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache connects to Redis.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	cache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return cache, nil
}

// ProvideLevelStore creates the Redis-backed level store.
func ProvideLevelStore(cache *pkgcache.RedisCache, l *applogger.Logger) repository.LevelStore {
	return internalrepo.NewRedisLevelStore(cache, l)
}

// ProvidePriceFeed creates the Delta Exchange price feed.
func ProvidePriceFeed(cfg *config.Config) repository.PriceFeed {
	return delta.New(cfg.Delta.BaseURL, cfg.Delta.Timeout)
}

// ProvideZoneFinder creates the zone-discovery client.
func ProvideZoneFinder(cfg *config.Config) repository.ZoneFinder {
	return zones.New(cfg.Zones.ServiceURL, cfg.Zones.Timeout)
}

// ProvideAlertLog connects the ClickHouse audit log and creates its table.
// Returns nil when disabled: history is then served as unavailable.
func ProvideAlertLog(cfg *config.Config, l *applogger.Logger) (*internalrepo.CHAlertLog, error) {
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
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	log := internalrepo.NewCHAlertLog(client, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := log.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return log, nil
}

// ProvideKafkaPublisher creates the Kafka alert publisher. Returns nil when
// the broker integration is disabled.
func ProvideKafkaPublisher(cfg *config.Config) (*internalrepo.KafkaAlertPublisher, error) {
	if !cfg.Kafka.Enabled {
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
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideNotifyQueue creates the Redis-backed notification queue and
// registers the delivery job.
func ProvideNotifyQueue(cfg *config.Config, cache *pkgcache.RedisCache, l *applogger.Logger) *queue.RedisQueue {
	q := queue.NewRedisQueue(l,
		&queue.QueueConfig{
			Workers:    cfg.Notify.QueueWorkers,
			RetryLimit: cfg.Notify.RetryLimit,
			RetryDelay: cfg.Notify.RetryDelay,
		},
		cache.Client(),
		queue.ModeProducerConsumer,
		queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"),
	)
	q.RegisterJob(notify.NewNotifyJob(notify.NewLogNotifier(l), l))
	return q
}

// ProvideWSHub creates the dashboard websocket hub.
func ProvideWSHub(l *applogger.Logger) *api.WSHub {
	return api.NewWSHub(l)
}

// ProvideAlertPipeline assembles the delivery fan-out: websocket push,
// queued notification, and when enabled the Kafka and ClickHouse channels.
func ProvideAlertPipeline(
	m repository.Metrics,
	hub *api.WSHub,
	q *queue.RedisQueue,
	publisher *internalrepo.KafkaAlertPublisher,
	alertLog *internalrepo.CHAlertLog,
) *mid.AlertPipeline {
	sinks := []repository.Notifier{
		hub,
		notify.NewQueueNotifier(q),
	}
	if publisher != nil {
		sinks = append(sinks, publisher)
	}
	if alertLog != nil {
		sinks = append(sinks, alertLog)
	}
	return mid.NewAlertPipeline(m, sinks, mid.WithBufferSize(2000))
}

// ProvideMonitor assembles the polling engine.
func ProvideMonitor(
	cfg *config.Config,
	store repository.LevelStore,
	feed repository.PriceFeed,
	pipeline *mid.AlertPipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Monitor {
	eval := usecase.NewEvaluator(cfg.Monitor.FarPct, cfg.Monitor.NearPct)
	center := usecase.NewAlertCenter(pipeline, m, l)
	proj := usecase.NewProjector(eval)
	return usecase.NewMonitor(store, feed, center, proj, m, l, usecase.MonitorConfig{
		Interval:     cfg.Monitor.Interval,
		FetchTimeout: cfg.Monitor.FetchTimeout,
	})
}

// ProvideSummaryBroadcaster creates the ambient summary loop.
func ProvideSummaryBroadcaster(cfg *config.Config, monitor *usecase.Monitor, hub *api.WSHub, l *applogger.Logger) *usecase.SummaryBroadcaster {
	return usecase.NewSummaryBroadcaster(monitor, hub, l, cfg.Monitor.SummaryInterval)
}

// ProvideToggleReconciler creates the alert flag reconciler.
func ProvideToggleReconciler(store repository.LevelStore, monitor *usecase.Monitor, l *applogger.Logger) *usecase.ToggleReconciler {
	return usecase.NewToggleReconciler(store, monitor, l)
}

// ProvideHandler creates the REST handler.
func ProvideHandler(
	l *applogger.Logger,
	monitor *usecase.Monitor,
	toggles *usecase.ToggleReconciler,
	store repository.LevelStore,
	feed repository.PriceFeed,
	finder repository.ZoneFinder,
	alertLog *internalrepo.CHAlertLog,
) *api.MonitorEchoHandler {
	var auditLog repository.AlertLog
	if alertLog != nil {
		auditLog = alertLog
	}
	return api.NewMonitorEchoHandler(l, monitor, toggles, store, feed, finder, auditLog)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	monitor *usecase.Monitor,
	summary *usecase.SummaryBroadcaster,
	pipeline *mid.AlertPipeline,
	handler *api.MonitorEchoHandler,
	hub *api.WSHub,
	q *queue.RedisQueue,
	store repository.LevelStore,
	publisher *internalrepo.KafkaAlertPublisher,
	alertLog *internalrepo.CHAlertLog,
) *server.App {
	var closers []server.Closer
	if publisher != nil {
		closers = append(closers, publisher)
	}
	if alertLog != nil {
		closers = append(closers, alertLog)
	}
	return server.New(
		&server.AppConfig{
			Port:            cfg.Server.Port,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		},
		server.Deps{
			Logger:   l,
			Monitor:  monitor,
			Summary:  summary,
			Pipeline: pipeline,
			Handler:  handler,
			WSHub:    hub,
			Queue:    q,
			Store:    store,
			Closers:  closers,
		},
	)
}
