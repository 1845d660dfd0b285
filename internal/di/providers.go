package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"PriceBoard/internal/domain/repository"
	"PriceBoard/internal/handler/api"
	"PriceBoard/internal/handler/ws"
	internalrepo "PriceBoard/internal/repository"
	"PriceBoard/internal/scheduler"
	"PriceBoard/internal/service/prediction"
	"PriceBoard/internal/service/ratelimit"
	"PriceBoard/internal/usecase"
	"PriceBoard/pkg/cache"
	pkgch "PriceBoard/pkg/clickhouse"
	"PriceBoard/pkg/config"
	xhttp "PriceBoard/pkg/http"
	pkgkafka "PriceBoard/pkg/kafka"
	applogger "PriceBoard/pkg/logger"
	"PriceBoard/pkg/metrics"
	"PriceBoard/pkg/queue"
	"PriceBoard/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideRedisCache connects to Redis when the layered cache is configured.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if cfg.Cache.Type != "layered" {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(net.JoinHostPort(cfg.Redis.Host, strconv.Itoa(cfg.Redis.Port))),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache returns the memory cache, or memory over Redis when rc is set.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		cache.WithLayeredL1TTL(30*time.Second),
	)
}

// ProvideRefreshQueue creates the Redis refresh queue when enabled.
func ProvideRefreshQueue(cfg *config.Config, rc *cache.RedisCache, log *applogger.Logger, refresh *usecase.RefreshJob) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(log, queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Queue.Prefix))
	q.RegisterJob(usecase.NewRefreshSeriesJob(refresh))
	return q
}

// ProvidePredictionSource creates the upstream prediction API client.
func ProvidePredictionSource(cfg *config.Config) repository.PredictionSource {
	return prediction.NewClient(cfg.Upstream)
}

// ProvideClickHouseClient connects to ClickHouse when it is the archive backend.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Archive.Backend != usecase.BackendClickHouse {
		return nil, nil
	}
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithAddr(ch.Host, ch.Port, ch.UseHTTP),
		pkgch.WithAuth(ch.Database, ch.User, ch.Password),
		pkgch.WithPool(10, 5, 5*time.Minute),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithSettings(pkgch.Settings{
			AsyncInsert:      ch.AsyncInsert,
			WaitAsyncInsert:  ch.WaitForAsync,
			MaxExecutionTime: ch.MaxExecutionTime,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the ClickHouse archive and its schema.
func ProvideArchive(cfg *config.Config, client *pkgch.Client) (repository.Archive, error) {
	if client == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseArchive(client, cfg.ClickHouse.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer when the archive or log shipping needs one.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.KafkaEnabled() {
		return nil, nil
	}
	pp := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, pp.MaxAttempts),
		pkgkafka.WithBatching(pp.BatchSize, pp.BatchBytes, pp.Linger),
		pkgkafka.WithTimeouts(pp.WriteTimeout, pp.ReadTimeout),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithAsync(pp.Async),
		pkgkafka.WithKeyedPartitioning(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka snapshot publisher when Kafka is the archive backend.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil || cfg.Archive.Backend != usecase.BackendKafka {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.SnapshotTopic)
}

func ProvideSnapshotStore() *usecase.SnapshotStore {
	return usecase.NewSnapshotStore()
}

func ProvideArchiveProcessor(cfg *config.Config, pub repository.Publisher, archive repository.Archive, m repository.Metrics) *usecase.ArchiveProcessor {
	return usecase.NewArchiveProcessor(pub, archive, m, cfg.Archive.Backend)
}

func ProvideChartUseCase(
	cfg *config.Config,
	source repository.PredictionSource,
	c cache.Service,
	store *usecase.SnapshotStore,
	archive *usecase.ArchiveProcessor,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.ChartUseCase {
	var sink usecase.SnapshotSink
	if archive.Backend() != usecase.BackendNone {
		sink = archive
	}
	return usecase.NewChartUseCase(source, c, store, sink, m, log, cfg.Cache.PredictionTTL)
}

func ProvideNewsUseCase(cfg *config.Config, source repository.PredictionSource, c cache.Service, m repository.Metrics, log *applogger.Logger) *usecase.NewsUseCase {
	return usecase.NewNewsUseCase(source, c, m, log, cfg.News.PerPage, cfg.Cache.NewsTTL)
}

func ProvideRefreshJob(cfg *config.Config, chart *usecase.ChartUseCase, news *usecase.NewsUseCase, c cache.Service, log *applogger.Logger) *usecase.RefreshJob {
	return usecase.NewRefreshJob(chart, news, c, log, cfg.Refresh.Dev)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideChartHandler(
	cfg *config.Config,
	log *applogger.Logger,
	chart *usecase.ChartUseCase,
	archive *usecase.ArchiveProcessor,
	limiter *ratelimit.Limiter,
	q *queue.RedisQueue,
) *api.ChartHandler {
	h := api.NewChartHandler(log, chart, archive, cfg.Upstream.DevMode, ratelimit.Middleware(limiter))
	if q != nil {
		h.SetRefreshQueue(q)
	}
	return h
}

func ProvideNewsHandler(log *applogger.Logger, news *usecase.NewsUseCase, limiter *ratelimit.Limiter) *api.NewsHandler {
	return api.NewNewsHandler(log, news, ratelimit.Middleware(limiter))
}

func ProvideHub(cfg *config.Config, chart *usecase.ChartUseCase, log *applogger.Logger) *ws.Hub {
	return ws.NewHub(chart, log,
		ws.WithPingInterval(cfg.Websocket.PingInterval),
		ws.WithWriteTimeout(cfg.Websocket.WriteTimeout),
		ws.WithSendBuffer(cfg.Websocket.SendBuffer),
		ws.WithFetchTimeout(cfg.Upstream.Timeout*time.Duration(cfg.Upstream.Attempts)),
		ws.WithDefaultDev(cfg.Upstream.DevMode),
	)
}

// ProvideScheduler schedules the refresh round and rate limiter housekeeping.
func ProvideScheduler(cfg *config.Config, log *applogger.Logger, refresh *usecase.RefreshJob, limiter *ratelimit.Limiter) (*scheduler.Scheduler, error) {
	s := scheduler.New(log, 2*time.Minute)
	if cfg.Refresh.Enabled {
		if err := s.Register("refresh", cfg.Refresh.Cron, refresh); err != nil {
			return nil, err
		}
	}
	if err := s.Register("ratelimit-prune", "0 */5 * * * *", scheduler.JobFunc(func(context.Context) error {
		if n := limiter.Prune(10 * time.Minute); n > 0 {
			log.Debug("pruned idle rate limit buckets", applogger.Int("buckets", n))
		}
		return nil
	})); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideKafkaConsumer creates the prediction.updated consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, chart *usecase.ChartUseCase, m repository.Metrics, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewPredictionUpdatedHandler(cfg.Kafka.Consumer.Topic, chart, m, log))
	return consumer, nil
}

// ProvideHTTPServer builds the echo server with every route.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, chartH *api.ChartHandler, newsH *api.NewsHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{chartH, newsH, hub},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(metricsPath, cfg.Metrics.SlowThreshold),
		xhttp.WithLogger(log),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	sched *scheduler.Scheduler,
	refresh *usecase.RefreshJob,
	archive *usecase.ArchiveProcessor,
	c cache.Service,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	q *queue.RedisQueue,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, log, server.Deps{
		HTTP:      httpServer,
		Hub:       hub,
		Scheduler: sched,
		Refresh:   refresh,
		Archive:   archive,
		Cache:     c,
		Consumer:  consumer,
		Producer:  producer,
		Queue:     q,
		CH:        ch,
	})
}
