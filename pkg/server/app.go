package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockBrief/internal/scheduler"
	"StockBrief/pkg/config"
	xhttp "StockBrief/pkg/http"
	applogger "StockBrief/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	scheduler   *scheduler.Daily
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	closers     []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, sched *scheduler.Daily, handler xhttp.Handler) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		scheduler:   sched,
		httpHandler: handler,
	}
}

// AddCloser registers an infrastructure client to close on shutdown, in reverse order.
func (a *App) AddCloser(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Run starts the HTTP server and the scheduler loop and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with an explicit lifetime.
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Server.Enabled {
		a.httpServer = xhttp.NewServer(a.httpHandler, a.logger,
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
			xhttp.WithMetricsPath(a.cfg.Server.MetricsPath),
		)
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	schedErr := make(chan error, 1)
	go func() {
		schedErr <- a.scheduler.Start(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		<-schedErr
	case err = <-schedErr:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}

	a.shutdown()
	return err
}

// shutdown stops the HTTP server and closes infrastructure clients.
func (a *App) shutdown() {
	a.logger.Info("shutting down...")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("client", nc.name), applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
}
