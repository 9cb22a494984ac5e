package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LevelWatch/internal/domain/repository"
	"LevelWatch/internal/handler/api"
	mid "LevelWatch/internal/middleware"
	"LevelWatch/internal/usecase"
	xhttp "LevelWatch/pkg/http"
	applogger "LevelWatch/pkg/logger"
	"LevelWatch/pkg/queue"
)

// Closer is any infrastructure handle the app must release on shutdown.
type Closer interface {
	Close() error
}

// Deps carries everything the app lifecycle owns.
type Deps struct {
	Logger   *applogger.Logger
	Monitor  *usecase.Monitor
	Summary  *usecase.SummaryBroadcaster
	Pipeline *mid.AlertPipeline
	Handler  *api.MonitorEchoHandler
	WSHub    *api.WSHub
	Queue    *queue.RedisQueue // nil when background delivery is disabled
	Store    repository.LevelStore
	Closers  []Closer // extra infrastructure handles (kafka, clickhouse)
}

// App encapsulates the application lifecycle.
type App struct {
	cfg        *AppConfig
	deps       Deps
	httpServer *xhttp.Server
}

// AppConfig is the slice of configuration the lifecycle needs.
type AppConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// New creates an App.
func New(cfg *AppConfig, deps Deps) *App {
	return &App{cfg: cfg, deps: deps}
}

// Run starts every component and blocks until an interrupt arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.deps.Logger

	go a.deps.WSHub.Run()

	a.deps.Pipeline.Start(ctx)

	if a.deps.Queue != nil {
		if err := a.deps.Queue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
			return err
		}
	}

	if err := a.deps.Monitor.Start(ctx); err != nil {
		l.Error("monitor start error", applogger.Error(err))
		return err
	}

	a.deps.Summary.Start(ctx)

	a.httpServer = xhttp.NewServer(a.deps.Handler,
		xhttp.WithPort(a.cfg.Port),
		xhttp.WithTimeouts(a.cfg.ReadTimeout, a.cfg.WriteTimeout, a.cfg.ShutdownTimeout),
	)
	a.deps.WSHub.RegisterRoutes(a.httpServer.Echo())

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	l := a.deps.Logger

	// Stop producers of new work first, then drains, then infrastructure.
	a.deps.Summary.Stop()
	a.deps.Monitor.Stop()
	a.deps.Pipeline.Stop()

	if a.deps.Queue != nil {
		if err := a.deps.Queue.Stop(ctx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	a.deps.WSHub.Stop()

	for _, c := range a.deps.Closers {
		if err := c.Close(); err != nil {
			l.Warn("close error", applogger.Error(err))
		}
	}
	if err := a.deps.Store.Close(); err != nil {
		l.Warn("store close error", applogger.Error(err))
	}

	l.Info("shutdown complete")
	return nil
}
