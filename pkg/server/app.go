package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"TradeDesk/internal/service/notify"
	"TradeDesk/internal/service/ratelimit"
	"TradeDesk/internal/usecase"
	"TradeDesk/pkg/cache"
	pkgch "TradeDesk/pkg/clickhouse"
	"TradeDesk/pkg/config"
	xhttp "TradeDesk/pkg/http"
	pkgkafka "TradeDesk/pkg/kafka"
	applogger "TradeDesk/pkg/logger"
)

const limiterSweepInterval = time.Minute

// Components are the long-running parts the App starts and stops. Nil
// entries are features switched off in config.
type Components struct {
	Handler   xhttp.Handler
	Refresher *usecase.Refresher
	Query     *usecase.QueryEngine
	Status    pkgkafka.MessageHandler
	Consumer  *pkgkafka.Consumer
	Producer  *pkgkafka.Producer
	Watcher   *notify.Watcher
	Limiter   *ratelimit.Limiter
	Cache     cache.Service
	CH        *pkgch.Client
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	c          Components
	httpServer *xhttp.Server
	wg         sync.WaitGroup
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, c Components) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, c: c}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext runs until ctx is cancelled, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if a.c.Handler == nil || a.c.Refresher == nil {
		return errors.New("app: handler and refresher are required")
	}
	workCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.c.Handler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithMetricsEndpoint(a.cfg.Metrics.Enabled),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithLogger(a.l),
	)

	a.goRun("refresher", func() error { return a.c.Refresher.Run(workCtx) })
	// initial reconciliation so the registry reflects the backend on boot
	a.c.Refresher.Trigger("startup")

	if a.c.Watcher != nil {
		a.goRun("notify watcher", func() error { return a.c.Watcher.Run(workCtx) })
	}
	if a.c.Limiter != nil {
		a.goRun("limiter sweep", func() error {
			t := time.NewTicker(limiterSweepInterval)
			defer t.Stop()
			for {
				select {
				case <-workCtx.Done():
					return nil
				case <-t.C:
					a.c.Limiter.Sweep()
				}
			}
		})
	}

	if a.c.Consumer != nil && a.c.Status != nil {
		a.c.Consumer.RegisterHandler(a.c.Status)
		if err := a.c.Consumer.Start(); err != nil {
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.c.Status.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) goRun(name string, fn func() error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := fn(); err != nil {
			a.l.Error(name+" stopped", applogger.Error(err))
		}
	}()
}

// shutdown stops intake first, then drains background work, then closes clients.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.wg.Wait()
	if a.c.Query != nil {
		a.c.Query.Close()
	}

	// the producer also carries the log collector, so it closes after it
	a.l.RemoveCollector()
	if a.c.Producer != nil {
		if err := a.c.Producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.c.Cache != nil {
		if err := a.c.Cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.c.CH != nil {
		if err := a.c.CH.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
