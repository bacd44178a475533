package di

import (
	"fmt"

	"RankPulse/internal/domain/repository"
	"RankPulse/internal/handler/api"
	internalrepo "RankPulse/internal/repository"
	svccache "RankPulse/internal/service/cache"
	"RankPulse/internal/service/ratelimit"
	"RankPulse/internal/service/seranking"
	"RankPulse/internal/services/analytics"
	"RankPulse/internal/usecase"
	pkgcache "RankPulse/pkg/cache"
	"RankPulse/pkg/config"
	xhttp "RankPulse/pkg/http"
	pkgkafka "RankPulse/pkg/kafka"
	xlogger "RankPulse/pkg/logger"
	"RankPulse/pkg/metrics"
	"RankPulse/pkg/server"
)

// serviceVersion is reported on the root endpoint.
const serviceVersion = "1.0.0"

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheStore creates the Redis store when caching is enabled. A nil
// store puts the cache layer in pass-through mode.
func ProvideCacheStore(cfg *config.Config) pkgcache.Store {
	if !cfg.Cache.Enabled {
		return nil
	}
	return pkgcache.NewRedisStore(
		pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
		pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		pkgcache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns, cfg.Cache.Redis.PoolTimeout),
	)
}

// ProvideKeyedCache creates the read-through cache layer.
func ProvideKeyedCache(store pkgcache.Store, cfg *config.Config, l *xlogger.Logger, m repository.Metrics) *svccache.KeyedCache {
	return svccache.NewKeyed(store, cfg, l, m)
}

// ProvideRateLimiter creates the shared provider rate limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.SERanking.MinInterval)
}

// ProvideRankingProvider creates the SEranking client.
func ProvideRankingProvider(cfg *config.Config, limiter *ratelimit.Limiter, l *xlogger.Logger, m repository.Metrics) repository.RankingProvider {
	return seranking.New(cfg, limiter, l, m)
}

// ProvideReportPublisher creates the Kafka handoff when enabled, a no-op
// publisher otherwise.
func ProvideReportPublisher(cfg *config.Config, l *xlogger.Logger) (repository.ReportPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopReportPublisher{}, nil
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
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic, l), nil
}

// ProvideDetector creates the anomaly detector.
func ProvideDetector(cfg *config.Config) *analytics.Detector {
	return analytics.NewDetector(cfg)
}

// ProvideTracker creates the top-N transition tracker.
func ProvideTracker(cfg *config.Config) *analytics.Tracker {
	return analytics.NewTracker(cfg)
}

// ProvideFetchOrchestrator creates the parallel fetch orchestrator.
func ProvideFetchOrchestrator(provider repository.RankingProvider, keyed *svccache.KeyedCache, l *xlogger.Logger, m repository.Metrics) *usecase.FetchOrchestrator {
	return usecase.NewFetchOrchestrator(provider, keyed, l, m)
}

// ProvideReportBuilder creates the report assembler.
func ProvideReportBuilder(detector *analytics.Detector, tracker *analytics.Tracker, l *xlogger.Logger, m repository.Metrics) *usecase.ReportBuilder {
	return usecase.NewReportBuilder(detector, tracker, l, m)
}

// ProvideReportService creates the end-to-end report service.
func ProvideReportService(o *usecase.FetchOrchestrator, b *usecase.ReportBuilder, p repository.ReportPublisher, l *xlogger.Logger) *usecase.ReportService {
	return usecase.NewReportService(o, b, p, l)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(l *xlogger.Logger, reports *usecase.ReportService, keyed *svccache.KeyedCache) xhttp.Handler {
	return api.NewReportHandler(l, reports, keyed, serviceVersion)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *xlogger.Logger,
	handler xhttp.Handler,
	publisher repository.ReportPublisher,
	store pkgcache.Store,
) *server.App {
	return server.New(cfg, l, handler, publisher, store)
}
