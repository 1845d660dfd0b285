package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PriceBoard/internal/handler/ws"
	"PriceBoard/internal/scheduler"
	"PriceBoard/internal/usecase"
	"PriceBoard/pkg/cache"
	pkgch "PriceBoard/pkg/clickhouse"
	"PriceBoard/pkg/config"
	xhttp "PriceBoard/pkg/http"
	pkgkafka "PriceBoard/pkg/kafka"
	applogger "PriceBoard/pkg/logger"
	"PriceBoard/pkg/queue"
)

// Deps are the long-lived components the App starts and stops. Optional
// components are nil when their feature is disabled.
type Deps struct {
	HTTP      *xhttp.Server
	Hub       *ws.Hub
	Scheduler *scheduler.Scheduler
	Refresh   *usecase.RefreshJob
	Archive   *usecase.ArchiveProcessor
	Cache     cache.Service

	Consumer *pkgkafka.Consumer
	Producer *pkgkafka.Producer
	Queue    *queue.RedisQueue
	CH       *pkgch.Client
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg  *config.Config
	log  *applogger.Logger
	deps Deps
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, deps Deps) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log, deps: deps}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.start(); err != nil {
		a.shutdown()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	a.shutdown()
	return nil
}

func (a *App) start() error {
	d := a.deps

	if a.cfg.LogShipping.Enabled && d.Producer != nil {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   a.cfg.LogShipping.Interval,
			CountThreshold: a.cfg.LogShipping.CountThreshold,
			Topic:          a.cfg.LogShipping.Topic,
			Service:        "priceboard",
			Publisher:      d.Producer,
		})
		a.log.Info("log shipping enabled", applogger.String("topic", a.cfg.LogShipping.Topic))
	}

	if d.Queue != nil {
		if err := d.Queue.Start(); err != nil {
			return fmt.Errorf("refresh queue: %w", err)
		}
	}

	if d.Hub != nil {
		d.Hub.Start()
	}

	if d.Scheduler != nil {
		d.Scheduler.Start()
		if d.Refresh != nil {
			// warm the store so the first page load does not wait on upstream
			go d.Scheduler.RunNow("refresh-warmup", d.Refresh)
		}
	}

	if d.Consumer != nil {
		if err := d.Consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.Consumer.Topic))
	}

	if err := d.HTTP.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	a.log.Info("priceboard started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("archive", a.cfg.Archive.Backend),
		applogger.String("cache", a.cfg.Cache.Type),
	)
	return nil
}

// shutdown stops inbound traffic first, then workers, then infrastructure clients.
func (a *App) shutdown() {
	d := a.deps
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.log.Info("shutting down...")

	if d.HTTP != nil {
		if err := d.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}
	if d.Hub != nil {
		if err := d.Hub.Stop(ctx); err != nil {
			a.log.Warn("websocket hub stop error", applogger.Error(err))
		}
	}
	if d.Scheduler != nil {
		if err := d.Scheduler.Stop(ctx); err != nil {
			a.log.Warn("scheduler stop error", applogger.Error(err))
		}
	}
	if d.Consumer != nil {
		if err := d.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if d.Queue != nil {
		if err := d.Queue.Stop(ctx); err != nil {
			a.log.Warn("refresh queue stop error", applogger.Error(err))
		}
	}
	if d.Archive != nil {
		d.Archive.Close()
	}

	// flush aggregated logs before the producer goes away
	a.log.RemoveCollector()
	if d.Producer != nil {
		if err := d.Producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if d.CH != nil {
		if err := d.CH.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
