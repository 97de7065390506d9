// Package app provides the top-level application lifecycle management for the
// order-ticket service. It wires together all dependencies (gateway, caches,
// optional history store) and runs the HTTP API with its WebSocket hub until
// the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/orderpad/internal/config"
	"github.com/quantfold/orderpad/internal/server"
	"github.com/quantfold/orderpad/internal/server/handler"
	"github.com/quantfold/orderpad/internal/server/ws"
	"github.com/quantfold/orderpad/internal/ticket"
)

// shutdownTimeout bounds how long graceful HTTP shutdown may take.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the HTTP
// server and WebSocket hub, and blocks until the context is cancelled or a
// component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("port", a.cfg.Server.Port),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	registry := ticket.NewRegistry(deps.Submitter, a.logger).
		WithDraftCache(deps.DraftCache).
		WithBus(deps.SignalBus)
	if deps.SubmissionStore != nil {
		registry.WithHistory(deps.SubmissionStore)
	}
	a.closers = append(a.closers, registry.CloseAll)

	tickets := handler.NewTicketHandler(registry, a.logger)
	if a.cfg.Ticket.SubmitRateLimit > 0 {
		tickets.WithRateLimiter(
			deps.RateLimiter,
			a.cfg.Ticket.SubmitRateLimit,
			time.Duration(a.cfg.Ticket.SubmitRateWindowSeconds)*time.Second,
		)
	}

	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(a.logger).WithSessionCount(registry.Len),
		Tickets: tickets,
	}
	if deps.SubmissionStore != nil {
		handlers.Submissions = handler.NewSubmissionHandler(deps.SubmissionStore, a.logger)
	}

	hub := ws.NewHub(deps.SignalBus, a.logger).
		WithSessionCount(registry.Len)

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		Limiter:     deps.RateLimiter,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  time.Duration(a.cfg.Server.RateWindowSeconds) * time.Second,
	}, handlers, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("app: run: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
