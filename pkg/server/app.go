package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"WhaleRadar/internal/domain/repository"
	"WhaleRadar/internal/handler/api"
	"WhaleRadar/internal/usecase"
	pkgch "WhaleRadar/pkg/clickhouse"
	"WhaleRadar/pkg/config"
	xhttp "WhaleRadar/pkg/http"
	applogger "WhaleRadar/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	collector  *usecase.TradeCollector
	chClient   *pkgch.Client
	handler    *api.RadarHandler
	hub        *api.SignalHub
	publisher  repository.SignalPublisher
	logger     *applogger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.TradeCollector,
	chClient *pkgch.Client,
	handler *api.RadarHandler,
	hub *api.SignalHub,
	publisher repository.SignalPublisher,
	logger *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		chClient:  chClient,
		handler:   handler,
		hub:       hub,
		publisher: publisher,
		logger:    logger,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	// The stream endpoint lives outside the REST handler.
	a.hub.RegisterRoutes(a.httpServer.Echo())

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.logger.Error("collector error", applogger.Error(err))
		}
	}()
	a.logger.Info("collector started", applogger.Strings("symbols", a.cfg.Binance.Symbols))

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Stop(); err != nil {
		a.logger.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
