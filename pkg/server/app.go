package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "RankPulse/internal/domain/repository"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/config"
	xhttp "RankPulse/pkg/http"
	"RankPulse/pkg/http/middleware"
	xlogger "RankPulse/pkg/logger"
)

// App owns the process lifecycle: HTTP server up, signal wait, graceful
// teardown of every infrastructure client.
type App struct {
	cfg       *config.Config
	logger    *xlogger.Logger
	handler   xhttp.Handler
	publisher domrepo.ReportPublisher
	store     cache.Store

	httpServer *xhttp.Server
}

// New creates the application with its wired dependencies.
func New(
	cfg *config.Config,
	logger *xlogger.Logger,
	handler xhttp.Handler,
	publisher domrepo.ReportPublisher,
	store cache.Store,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handler:   handler,
		publisher: publisher,
		store:     store,
	}
}

// Run starts the HTTP server and blocks until an interrupt or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)
	a.httpServer.Use(middleware.Metrics(a.logger, 5*time.Second))

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", xlogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		xlogger.Int("port", a.cfg.Server.Port),
		xlogger.String("environment", a.cfg.Environment),
		xlogger.Bool("cache_enabled", a.cfg.Cache.Enabled),
		xlogger.Bool("kafka_enabled", a.cfg.Kafka.Enabled),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops the server and closes infrastructure clients in order.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", xlogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", xlogger.Error(err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("cache close error", xlogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
