package server

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"DipScan/internal/handler/api"
	"DipScan/internal/usecase"
	"DipScan/pkg/config"
	xhttp "DipScan/pkg/http"
	applogger "DipScan/pkg/logger"
)

// App encapsulates the dashboard lifecycle: HTTP server, scheduled rescans and shutdown.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	runner     *usecase.ScanRunner
	handler    *api.DashboardHandler
	hub        *api.Hub
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	runner *usecase.ScanRunner,
	handler *api.DashboardHandler,
	hub *api.Hub,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		runner:     runner,
		handler:    handler,
		hub:        hub,
	}
}

// Run starts the application and blocks until interrupted or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.handler.WithScanContext(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.cfg.Server.ScanOnStart {
		a.trigger(ctx, "startup")
	}
	if a.cfg.Server.ScanInterval > 0 {
		go a.schedule(ctx, a.cfg.Server.ScanInterval)
		a.l.Info("periodic rescans enabled", applogger.Duration("interval", a.cfg.Server.ScanInterval))
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) schedule(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.trigger(ctx, "schedule")
		}
	}
}

func (a *App) trigger(ctx context.Context, source string) {
	err := a.runner.Trigger(ctx)
	switch {
	case err == nil:
		a.l.Info("scan triggered", applogger.String("source", source))
	case errors.Is(err, usecase.ErrScanInProgress):
		a.l.Debug("scan still running, trigger skipped", applogger.String("source", source))
	default:
		a.l.Error("scan trigger error", applogger.String("source", source), applogger.Error(err))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	a.hub.Close()

	// the scan context is already cancelled, so a running scan returns promptly
	done := make(chan struct{})
	go func() {
		a.runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(a.cfg.Server.ShutdownTimeout):
		a.l.Warn("scan did not finish before shutdown timeout")
	}

	a.l.Info("shutdown complete")
	return nil
}
