package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/mission-service/internal/api/http"
	"github.com/spec-kit/mission-service/internal/api/http/handlers"
	"github.com/spec-kit/mission-service/internal/auth"
	"github.com/spec-kit/mission-service/internal/config"
	"github.com/spec-kit/mission-service/internal/events"
	"github.com/spec-kit/mission-service/internal/observability"
	"github.com/spec-kit/mission-service/internal/persistence"
	"github.com/spec-kit/mission-service/internal/ratelimit"
	"github.com/spec-kit/mission-service/internal/repository"
	"github.com/spec-kit/mission-service/internal/service"
	"github.com/spec-kit/mission-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required to serve requests")
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	missionRepo := repository.NewMissionRepository(pool)
	historyRepo := repository.NewMissionHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(logger, metrics, cfg.Notification)
	notifyWorker := worker.StartNotificationWorker(ctx, dispatcher, notifications.Handle, logger, 0)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Logger:   logger,
		Metrics:  metrics,
	})
	missionService := service.NewMissionService(service.MissionDependencies{
		MissionRepo: missionRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	authMiddleware := auth.NewAuthMiddleware(authService, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, loginLimiter(ctx, cfg, redis, logger), logger),
		Missions:       handlers.NewMissionsHandler(missionService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	notifyWorker.Wait()
}

// loginLimiter shares attempt counters through Redis when it is reachable and
// falls back to a per-process limiter otherwise.
func loginLimiter(ctx context.Context, cfg *config.Config, redis *persistence.Redis, logger *zap.Logger) ratelimit.Limiter {
	limits := ratelimit.Config{
		Attempts: cfg.RateLimit.LoginAttempts,
		Window:   cfg.RateLimit.LoginWindow(),
	}
	if redis.Ping(ctx) == nil {
		return ratelimit.NewRedisLimiter(redis.Client, limits)
	}
	logger.Warn("redis unavailable; login throttling is per process")
	return ratelimit.NewLocalLimiter(limits)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
