package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockplace/stockplace-backend/internal/cron"
	"github.com/stockplace/stockplace-backend/internal/events"
	"github.com/stockplace/stockplace-backend/internal/ledger"
	ordersvc "github.com/stockplace/stockplace-backend/internal/orders"
	payoutsvc "github.com/stockplace/stockplace-backend/internal/payouts"
	productsvc "github.com/stockplace/stockplace-backend/internal/products"
	rentalsvc "github.com/stockplace/stockplace-backend/internal/rentals"
	spacesvc "github.com/stockplace/stockplace-backend/internal/storagespaces"
	"github.com/stockplace/stockplace-backend/internal/users"
	stripewebhook "github.com/stockplace/stockplace-backend/internal/webhooks/stripe"
	"github.com/stockplace/stockplace-backend/pkg/config"
	"github.com/stockplace/stockplace-backend/pkg/db"
	"github.com/stockplace/stockplace-backend/pkg/logger"
	"github.com/stockplace/stockplace-backend/pkg/metrics"
	"github.com/stockplace/stockplace-backend/pkg/migrate"
	"github.com/stockplace/stockplace-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	requireResource(logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient)
	requireResource(logg, "migrations", err)

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	spacesRepo := spacesvc.NewRepository(conn)
	rentalsRepo := rentalsvc.NewRepository(conn)
	productsRepo := productsvc.NewRepository(conn)

	usersService, err := users.NewService(users.NewRepository(conn))
	requireResource(logg, "users service", err)

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	requireResource(logg, "ledger service", err)

	rentalsService, err := rentalsvc.NewService(rentalsvc.ServiceParams{
		Repo:   rentalsRepo,
		Spaces: spacesRepo,
		Ledger: ledgerService,
		Tx:     dbClient,
		Logger: logg,
	})
	requireResource(logg, "rentals service", err)

	ordersService, err := ordersvc.NewService(ordersvc.ServiceParams{
		Repo:     ordersvc.NewRepository(conn),
		Products: productsRepo,
		Spaces:   spacesRepo,
		Ledger:   ledgerService,
		Tx:       dbClient,
		Logger:   logg,
	})
	requireResource(logg, "orders service", err)

	payoutsService, err := payoutsvc.NewService(payoutsvc.ServiceParams{
		Repo:   payoutsvc.NewRepository(conn),
		Users:  usersService,
		Ledger: ledgerService,
		Tx:     dbClient,
		Logger: logg,
	})
	requireResource(logg, "payouts service", err)

	eventsService, err := events.NewService(events.NewRepository(conn))
	requireResource(logg, "events service", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Events:  eventsService,
		Rentals: rentalsService,
		Orders:  ordersService,
		Payouts: payoutsService,
		Users:   usersService,
		Logger:  logg,
	})
	requireResource(logg, "webhook service", err)

	activationJob, err := cron.NewRentalActivationJob(cron.RentalActivationJobParams{
		Logger:   logg,
		Rentals:  rentalsService,
		Interval: cfg.Cron.RentalActivationInterval,
	})
	requireResource(logg, "rental activation job", err)

	releaseJob, err := cron.NewRentalReleaseJob(cron.RentalReleaseJobParams{
		Logger:   logg,
		Rentals:  rentalsService,
		Interval: cfg.Cron.RentalReleaseInterval,
	})
	requireResource(logg, "rental release job", err)

	replayJob, err := cron.NewWebhookReplayJob(cron.WebhookReplayJobParams{
		Logger:      logg,
		Events:      eventsService,
		Webhooks:    webhookService,
		MaxAttempts: cfg.Webhook.MaxAttempts,
		BatchSize:   cfg.Cron.WebhookReplayBatchSize,
		Interval:    cfg.Cron.WebhookReplayInterval,
	})
	requireResource(logg, "webhook replay job", err)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	requireResource(logg, "cron lock", err)

	registry := cron.NewRegistry(activationJob, releaseJob, replayJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	requireResource(logg, "cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
