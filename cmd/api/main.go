package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/channel-token-service/internal/accesstoken"
	httptransport "github.com/spec-kit/channel-token-service/internal/api/http"
	"github.com/spec-kit/channel-token-service/internal/api/http/handlers"
	"github.com/spec-kit/channel-token-service/internal/auth"
	"github.com/spec-kit/channel-token-service/internal/config"
	"github.com/spec-kit/channel-token-service/internal/events"
	"github.com/spec-kit/channel-token-service/internal/observability"
	"github.com/spec-kit/channel-token-service/internal/persistence"
	"github.com/spec-kit/channel-token-service/internal/repository"
	"github.com/spec-kit/channel-token-service/internal/service"
	"github.com/spec-kit/channel-token-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	usageRepo := selectUsageRepository(*cfg, pg, redis, logger)
	usageService := service.NewUsageService(*cfg, usageRepo, dispatcher, metrics)
	worker.StartUsageWorker(usageService)

	if !cfg.Credential.Configured() {
		logger.Warn("APP_ID/APP_CERTIFICATE not set; every signing attempt will fail until they are")
	}
	tokenService := service.NewTokenService(*cfg, accesstoken.NewBuilder(), dispatcher)

	var (
		authHandler    *handlers.AuthHandler
		authMiddleware *auth.AuthMiddleware
	)
	if cfg.Auth.Enabled() {
		secretHash := cfg.Auth.OperatorSecretHash
		if secretHash == "" {
			secretHash, err = auth.HashSecret(cfg.Auth.OperatorSecret, cfg.Auth.BcryptCost)
			if err != nil {
				logger.Fatal("failed to hash operator secret", zap.Error(err))
			}
		}
		tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
		operator := auth.OperatorCredentials{Key: cfg.Auth.OperatorKey, SecretHash: secretHash}
		authHandler = handlers.NewAuthHandler(tokenManager, operator)
		authMiddleware = auth.NewAuthMiddleware(tokenManager)
	} else {
		logger.Warn("operator auth not configured; usage endpoints are unprotected")
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, *cfg)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tokens:         handlers.NewTokensHandler(tokenService),
		Usage:          handlers.NewUsageHandler(usageService),
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// selectUsageRepository picks the telemetry store named by USAGE_BACKEND,
// falling back to the in-memory store when the named backend is unavailable.
func selectUsageRepository(cfg config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) repository.UsageRepository {
	switch cfg.Usage.Backend {
	case "postgres":
		if pool := pg.PoolHandle(); pool != nil {
			return repository.NewUsageRepository(pool)
		}
		logger.Warn("usage backend postgres selected but no pool available; using in-memory store")
	case "redis":
		retention := time.Duration(cfg.Usage.RetentionDays) * 24 * time.Hour
		return repository.NewRedisUsageRepository(redis.Client, retention)
	case "memory":
	default:
		logger.Warn("unknown usage backend; using in-memory store", zap.String("backend", cfg.Usage.Backend))
	}
	return repository.NewMemoryUsageRepository()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
