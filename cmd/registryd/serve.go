package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/nft-registry/internal/app"
	"github.com/odyssey-erp/nft-registry/internal/observability"
	"github.com/odyssey-erp/nft-registry/internal/platform/cache"
	"github.com/odyssey-erp/nft-registry/internal/platform/db"
	"github.com/odyssey-erp/nft-registry/internal/registry"
	registryhttp "github.com/odyssey-erp/nft-registry/internal/registry/http"
	"github.com/odyssey-erp/nft-registry/internal/registry/store"
	"github.com/odyssey-erp/nft-registry/internal/shared"
	"github.com/odyssey-erp/nft-registry/jobs"
	"github.com/odyssey-erp/nft-registry/migrations"
)

// serve runs the HTTP API until ctx ends.
func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	var (
		repo  registry.RepositoryPort
		audit registry.AuditPort
		idem  registryhttp.Idempotency
		ready app.ReadinessFunc
	)
	switch cfg.Store {
	case app.StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGMaxConnLife})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		applied, err := db.Migrate(ctx, pool, migrations.Files)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", slog.Any("files", applied))
		}
		repo = store.NewPostgres(pool)
		audit = shared.NewAuditLogger(pool)
		idem = shared.NewIdempotencyStore(pool)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		}
	default:
		logger.Warn("using in-memory store; state is lost on exit")
		repo = store.NewMemory()
	}

	var (
		publisher  registry.Publisher
		enqueuer   registryhttp.IntegrityEnqueuer
		jobHandler *jobs.Handler
	)
	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable; event publication and jobs disabled", slog.Any("error", err))
	} else {
		defer closeRedis(redisClient, logger)
		publisher = registry.NewRedisPublisher(redisClient)

		jobsClient := jobs.NewClient(redisOpt(cfg))
		defer jobsClient.Close()
		enqueuer = jobsClient

		inspector := asynq.NewInspector(redisOpt(cfg))
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	svc := registry.NewService(repo, audit, publisher, metrics, logger)
	genesis, err := cfg.Genesis()
	if err != nil {
		return err
	}
	if err := svc.Boot(ctx, genesis); err != nil {
		return fmt.Errorf("boot registry: %w", err)
	}

	var resolver registryhttp.CallerResolver = registryhttp.HeaderResolver{}
	if cfg.AuthMode == app.AuthToken {
		resolver = registryhttp.BearerResolver{Tokens: shared.NewCallerTokens(cfg.TokenSecret)}
	}
	handler := registryhttp.NewHandler(svc, registryhttp.Config{
		Logger:      logger,
		Resolver:    resolver,
		Idempotency: idem,
		Integrity:   enqueuer,
		RateLimit:   cfg.RateLimit,
		RateWindow:  cfg.RateWindow,
	})

	server := &http.Server{
		Addr: cfg.AppAddr,
		Handler: app.NewRouter(app.RouterParams{
			Logger:          logger,
			Config:          cfg,
			RegistryHandler: handler,
			JobHandler:      jobHandler,
			Metrics:         metrics,
			Ready:           ready,
		}),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.Store))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
