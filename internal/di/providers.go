package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"PowerCast/internal/domain/repository"
	"PowerCast/internal/forecast"
	mid "PowerCast/internal/middleware"
	internalrepo "PowerCast/internal/repository"
	"PowerCast/internal/service/gridfeed"
	"PowerCast/internal/service/readers"
	"PowerCast/internal/usecase"
	pkgcache "PowerCast/pkg/cache"
	pkgch "PowerCast/pkg/clickhouse"
	"PowerCast/pkg/config"
	xhttp "PowerCast/pkg/http"
	pkgkafka "PowerCast/pkg/kafka"
	applogger "PowerCast/pkg/logger"
	"PowerCast/pkg/metrics"
	pkgqueue "PowerCast/pkg/queue"
	"PowerCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSeriesStore creates the ClickHouse-backed series store.
func ProvideSeriesStore(chClient *pkgch.Client, l *applogger.Logger) repository.SeriesStore {
	store := internalrepo.NewCHSeriesStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideObservationPublisher creates the Kafka publisher repository. When
// the backend is Kafka, repeated error logs are aggregated and shipped to a
// sibling topic through the same producer.
func ProvideObservationPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.Publisher {
	if cfg.Backend.Type == "kafka" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      logPublisher{producer},
		})
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// logPublisher adapts the Kafka producer to the log collector's sink.
type logPublisher struct{ p *pkgkafka.Producer }

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaObservationsHandler registers the handler for the observations topic.
func ProvideKafkaObservationsHandler(store repository.SeriesStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideGridFeedStream creates the grid operator WebSocket stream.
func ProvideGridFeedStream(cfg *config.Config) repository.MarketStream {
	return gridfeed.New(
		cfg.GridFeed.APIKey,
		cfg.GridFeed.WebSocketURL,
		cfg.GridFeed.Channels,
		cfg.GridFeed.ReconnectDelay,
		cfg.GridFeed.PingInterval,
	)
}

// ProvideObservationProcessor creates the observation processor use case.
func ProvideObservationProcessor(
	pub repository.Publisher,
	store repository.SeriesStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideObservationCollector creates the observation collector use case.
func ProvideObservationCollector(
	stream repository.MarketStream,
	processor *usecase.ObservationProcessor,
	metrics repository.Metrics,
) *usecase.ObservationCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewIngestPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewObservationCollector(stream, processor, metrics, pipe)
}

// ProvideCache creates the cache service: layered Redis+memory when Redis is
// enabled, in-process memory otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache()
	}
	host, port := splitHostPort(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("powercast"),
	)
	if err != nil {
		l.Warn("redis cache unavailable, using memory cache", applogger.Error(err))
		return pkgcache.NewMemoryCache()
	}
	return pkgcache.NewLayeredCache(rc)
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

// ProvideRunQueue creates the Redis queue for asynchronous backtest runs.
// Returns nil when Redis or the queue is disabled; async submissions are then
// rejected.
func ProvideRunQueue(cfg *config.Config, l *applogger.Logger, cache pkgcache.Service) *pkgqueue.RedisQueue {
	if !cfg.Redis.Enabled || !cfg.Backtest.Queue.Enabled {
		return nil
	}
	rc, ok := cache.(interface{ Redis() *pkgcache.RedisCache })
	if !ok {
		return nil
	}
	qcfg := &pkgqueue.QueueConfig{
		Workers:    cfg.Backtest.Queue.Workers,
		RetryLimit: cfg.Backtest.Queue.RetryLimit,
		RetryDelay: cfg.Backtest.Queue.RetryDelay,
	}
	return pkgqueue.NewRedisQueue(l, qcfg, rc.Redis().Client(), pkgqueue.ModeProducerConsumer,
		pkgqueue.WithKeyPrefix("powercast:queue"))
}

// ProvideBacktestRunner creates the backtest orchestration use case.
func ProvideBacktestRunner(
	cfg *config.Config,
	store repository.SeriesStore,
	metrics repository.Metrics,
	cache pkgcache.Service,
	q *pkgqueue.RedisQueue,
	l *applogger.Logger,
) *usecase.BacktestRunner {
	var qsvc pkgqueue.QueueService
	if q != nil {
		qsvc = q
	}
	if remote := cfg.Backtest.Remote; remote.ServiceURL != "" {
		for _, name := range remote.Models {
			forecast.RegisterRemote(name, remote.ServiceURL, remote.Timeout)
		}
		l.Info("remote models registered",
			applogger.String("url", remote.ServiceURL),
			applogger.Strings("models", remote.Models))
	}
	return usecase.NewBacktestRunner(store, metrics, cache, qsvc, l)
}

// ProvideSeriesUseCase creates the series retrieval use case.
func ProvideSeriesUseCase(store repository.SeriesStore) *usecase.SeriesUseCase {
	return usecase.NewSeriesUseCase(store)
}

// ProvideReaders creates the external HTTP readers configured in YAML.
func ProvideReaders(cfg *config.Config, proc *usecase.ObservationProcessor, m repository.Metrics, l *applogger.Logger) (*readers.Collector, error) {
	if !cfg.Readers.Enabled {
		return nil, nil
	}
	client := xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))

	var rs []readers.Reader
	for _, metric := range cfg.Readers.PSE.Metrics {
		r, err := readers.NewPSEReader(client, cfg.Readers.PSE.BaseURL, metric)
		if err != nil {
			return nil, fmt.Errorf("pse reader: %w", err)
		}
		rs = append(rs, r)
	}
	if cfg.Readers.Weather.BaseURL != "" {
		rs = append(rs, readers.NewWeatherReader(client,
			cfg.Readers.Weather.BaseURL, cfg.Readers.Weather.Latitude, cfg.Readers.Weather.Longitude))
	}
	if cfg.Readers.Fuel.BaseURL != "" {
		rs = append(rs, readers.NewFuelReader(client,
			cfg.Readers.Fuel.BaseURL, cfg.Readers.Fuel.APIKey, cfg.Readers.Fuel.Symbols))
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return readers.NewCollector(rs, proc, m, l, cfg.Readers.PollInterval, cfg.Readers.Lookback), nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	chClient *pkgch.Client,
	runner *usecase.BacktestRunner,
	seriesUC *usecase.SeriesUseCase,
	runQueue *pkgqueue.RedisQueue,
	readers *readers.Collector,
	l *applogger.Logger,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient, l)
	app.Runner = runner
	app.SeriesUC = seriesUC
	app.SetRunQueue(runQueue)
	app.SetReaders(readers)
	if collector != nil {
		app.ObsProc = collector.Processor()
	}
	return app
}
