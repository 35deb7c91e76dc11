package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PowerCast/internal/handler/api"
	icache "PowerCast/internal/service/cache"
	"PowerCast/internal/service/readers"
	"PowerCast/internal/usecase"
	pkgch "PowerCast/pkg/clickhouse"
	"PowerCast/pkg/config"
	xhttp "PowerCast/pkg/http"
	pkgkafka "PowerCast/pkg/kafka"
	applogger "PowerCast/pkg/logger"
	pkgqueue "PowerCast/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.ObservationCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	runQueue    *pkgqueue.RedisQueue
	readers     *readers.Collector
	l           *applogger.Logger

	ObsProc  *usecase.ObservationProcessor
	Runner   *usecase.BacktestRunner
	SeriesUC *usecase.SeriesUseCase
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		l:         l,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetRunQueue allows DI to inject the async run queue.
func (a *App) SetRunQueue(q *pkgqueue.RedisQueue) { a.runQueue = q }

// SetReaders allows DI to inject the external data poller.
func (a *App) SetReaders(c *readers.Collector) { a.readers = c }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	httpHandler := a.httpHandler
	if httpHandler == nil && a.Runner != nil {
		h := api.NewBacktestEchoHandler(l, a.Runner, a.SeriesUC)
		if a.SeriesUC != nil {
			raw := api.NewSeriesHandler(a.SeriesUC)
			if a.cfg.Redis.Enabled {
				raw.SetCache(icache.NewRedisCache(icache.RedisConfig{
					Addr:     a.cfg.Redis.Addr,
					Password: a.cfg.Redis.Password,
					DB:       a.cfg.Redis.DB,
				}))
			} else {
				raw.SetCache(icache.NewTTLCache())
			}
			raw.SetLogger(l)
			h.SetRawSeries(raw)
		}
		httpHandler = h
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start the live feed collector when configured
	if a.collector != nil && a.cfg.GridFeed.WebSocketURL != "" {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("channels", a.cfg.GridFeed.Channels))
	}

	// Start historical readers
	if a.readers != nil {
		a.readers.Start(ctx)
		l.Info("readers started")
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start the async run queue workers
	if a.runQueue != nil && a.Runner != nil {
		a.runQueue.RegisterJob(usecase.NewBacktestRunJob(a.Runner))
		if err := a.runQueue.Start(); err != nil {
			l.Error("run queue start error", applogger.Error(err))
		} else {
			l.Info("run queue started")
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	l.Info("shutting down...")

	// Stop readers and collector (pipeline + stream)
	if a.readers != nil {
		a.readers.Stop()
	}
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue workers
	if a.runQueue != nil {
		if err := a.runQueue.Stop(shutdownCtx); err != nil {
			l.Warn("run queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close observation processor resources (publisher/storage)
	if a.ObsProc != nil {
		a.ObsProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
