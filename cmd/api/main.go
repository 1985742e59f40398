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

	httptransport "github.com/forelandmarine/sea-time-tracker/internal/api/http"
	"github.com/forelandmarine/sea-time-tracker/internal/api/http/handlers"
	"github.com/forelandmarine/sea-time-tracker/internal/auth"
	"github.com/forelandmarine/sea-time-tracker/internal/config"
	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/observability"
	"github.com/forelandmarine/sea-time-tracker/internal/persistence"
	"github.com/forelandmarine/sea-time-tracker/internal/repository"
	"github.com/forelandmarine/sea-time-tracker/internal/service"
	"github.com/forelandmarine/sea-time-tracker/internal/worker"
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
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	vesselRepo := repository.NewVesselRepository(pool)
	seaTimeRepo := repository.NewSeaTimeRepository(pool)
	subscriptionReader := repository.NewCachedSubscriptionReader(userRepo, redis.Client, cfg.Subscription.CacheTTL(), logger)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionReader, vesselRepo, dispatcher, logger)
	vesselService := service.NewVesselService(vesselRepo)
	seaTimeService := service.NewSeaTimeService(seaTimeRepo, vesselService)

	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	var sweeper *worker.TrackingSweeper
	if cfg.Tracking.SweepEnabled {
		sweeper = worker.NewTrackingSweeper(vesselRepo, subscriptionReader, subscriptionService, metrics, logger)
		if err := sweeper.Start(cfg.Tracking.SweepSchedule); err != nil {
			logger.Fatal("failed to schedule tracking sweep", zap.Error(err))
		}
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())
	gate := auth.NewSubscriptionGate(subscriptionReader, logger,
		auth.WithGateEvents(dispatcher),
		auth.WithGateMetrics(metrics),
	)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:          handlers.NewMetricsHandler(metrics),
		Users:            handlers.NewUsersHandler(authService),
		Subscription:     handlers.NewSubscriptionHandler(subscriptionService),
		Vessels:          handlers.NewVesselsHandler(vesselService),
		SeaTime:          handlers.NewSeaTimeHandler(seaTimeService),
		AuthMiddleware:   authMiddleware,
		SubscriptionGate: gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if sweeper != nil {
		stopCtx := sweeper.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(10 * time.Second):
			logger.Warn("tracking sweep still running at shutdown")
		}
	}
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
