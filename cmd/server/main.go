// Package main - точка входа HTTP сервиса рейтингов Focus Hub.
//
// Сервис отдаёт лидерборды по четырём метрикам (XP, фокус-время, серия,
// выполненные задачи) в глобальном, дружеском и страновом разрезе.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alem-hub/focus-leaderboard/config"
	"github.com/alem-hub/focus-leaderboard/internal/application/query"
	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/focus-leaderboard/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/focus-leaderboard/internal/infrastructure/persistence/redis"
	httpserver "github.com/alem-hub/focus-leaderboard/internal/interface/http"
	"github.com/alem-hub/focus-leaderboard/internal/interface/http/handlers"
	"github.com/alem-hub/focus-leaderboard/pkg/circuitbreaker"
	"github.com/alem-hub/focus-leaderboard/pkg/logger"
	"github.com/alem-hub/focus-leaderboard/pkg/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.App.LogLevel)
	opts.AddCaller = cfg.IsDevelopment()
	log := logger.New(opts).With(
		logger.String("service", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
	log.Info("starting leaderboard service",
		logger.String("version", cfg.App.Version),
		logger.String("store", string(cfg.Store.Driver)),
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	stores, closeStore, err := openStores(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer closeStore()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально: сессии и общий rate limit)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache       *redis.Cache
		rateLimiter handlers.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize

		cache, err = redis.NewCache(ctx, redisCfg, retry.New(
			retry.WithMaxAttempts(3),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Warn("redis connect failed, retrying",
					logger.Int("attempt", attempt), logger.Err(err), logger.Duration("delay", delay))
			}),
		))
		if err != nil {
			if cfg.Auth.SessionLookup {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			log.Warn("redis unavailable, falling back to local rate limiting", logger.Err(err))
		} else {
			defer func() { _ = cache.Close() }()
			health.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
			if cfg.HTTP.RateLimitPerMinute > 0 {
				rateLimiter = redis.NewRateLimiter(cache, cfg.HTTP.RateLimitPerMinute, time.Minute)
			}
			log.Info("redis connection established", logger.String("addr", redisCfg.Addr()))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. АУТЕНТИФИКАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	var chain handlers.ChainAuthenticator
	if cfg.Auth.JWTSecret != "" {
		chain = append(chain, handlers.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))
	}
	if cfg.Auth.SessionLookup && cache != nil {
		sessions := redis.NewSessionStore(cache,
			redis.WithLocalCache(cfg.Auth.SessionCacheSize, cfg.Auth.SessionCacheTTL))
		chain = append(chain, handlers.NewSessionAuthenticator(sessions))
	}
	if len(chain) == 0 {
		return errors.New("no authenticator configured")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ДВИЖОК РЕЙТИНГА И HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	leaderboardHandler := query.NewGetLeaderboardHandler(stores,
		query.WithLimits(query.Limits{
			Default: cfg.Leaderboard.DefaultLimit,
			Max:     cfg.Leaderboard.MaxLimit,
		}),
		query.WithQueryTimeout(cfg.Leaderboard.QueryTimeout),
		query.WithLogger(log),
	)

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.AllowedOrigins = cfg.HTTP.CORSOrigins
	serverCfg.EnableCORS = len(cfg.HTTP.CORSOrigins) > 0
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.Version = cfg.App.Version

	server, err := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		Leaderboard:   leaderboardHandler,
		Authenticator: chain,
		RateLimiter:   rateLimiter,
		HealthChecker: health,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("leaderboard service stopped")
	return nil
}

// openStores builds the readers for the configured driver and registers
// the matching health check.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger, health *handlers.CompositeHealthChecker) (leaderboard.Stores, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		store := memory.NewStore()
		if cfg.Store.SeedFile != "" {
			if err := store.LoadFixtureFile(cfg.Store.SeedFile); err != nil {
				return leaderboard.Stores{}, nil, fmt.Errorf("failed to load seed file: %w", err)
			}
			log.Info("memory store seeded", logger.String("file", cfg.Store.SeedFile))
		}
		log.Warn("using in-memory store, data is not persisted")
		return store.Stores(), func() {}, nil

	default:
		dbCfg := postgres.DefaultConfig()
		dbCfg.URL = cfg.Database.URL
		dbCfg.MaxConns = int32(cfg.Database.MaxConns)
		dbCfg.MinConns = int32(cfg.Database.MinConns)
		dbCfg.ConnectTimeout = cfg.Database.ConnectTimeout

		retrier := retry.DatabaseRetrier(func(attempt int, err error, delay time.Duration) {
			log.Warn("database connect failed, retrying",
				logger.Int("attempt", attempt), logger.Err(err), logger.Duration("delay", delay))
		})
		breaker := circuitbreaker.DatabaseBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}, circuitbreaker.WithIsFailure(postgres.IsBreakerFailure))

		log.Info("connecting to database...")
		conn, err := postgres.NewConnection(ctx, dbCfg, retrier, breaker)
		if err != nil {
			return leaderboard.Stores{}, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("database connection established")
		health.AddCheck("database", handlers.NewPingCheck(conn))

		stores := leaderboard.Stores{
			Profiles:    postgres.NewProfileRepository(conn),
			Friendships: postgres.NewFriendshipRepository(conn),
			Sessions:    postgres.NewFocusSessionRepository(conn),
			Tasks:       postgres.NewTaskRepository(conn),
		}
		return stores, func() {
			log.Info("closing database connection...")
			conn.Close()
		}, nil
	}
}
