package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfold/orderpad/internal/cache/redis"
	"github.com/quantfold/orderpad/internal/config"
	"github.com/quantfold/orderpad/internal/domain"
	"github.com/quantfold/orderpad/internal/gateway"
	"github.com/quantfold/orderpad/internal/store/postgres"
	"github.com/quantfold/orderpad/internal/ticket"
)

// Dependencies bundles every domain-level dependency the service needs to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Caches
	DraftCache  domain.DraftCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Stores (nil when the database is disabled)
	SubmissionStore domain.SubmissionStore

	// Gateway
	Submitter ticket.Submitter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis: draft side-channel, rate limiter, event bus ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	draftTTL := time.Duration(cfg.Ticket.DraftTTLHours) * time.Hour
	deps.DraftCache = redis.NewDraftCache(redisClient, draftTTL)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- PostgreSQL submission history (optional) ---
	if cfg.Database.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.SubmissionStore = postgres.NewSubmissionStore(pgClient.Pool())
	} else {
		logger.InfoContext(ctx, "wire: database disabled, submission history unavailable")
	}

	// --- Order gateway ---
	deps.Submitter = gateway.NewClient(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		APIKey:  cfg.Gateway.APIKey,
		Timeout: time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
	})

	return deps, cleanup, nil
}
