package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/stockplace/stockplace-backend/api/routes"
	adminsvc "github.com/stockplace/stockplace-backend/internal/admin"
	authsvc "github.com/stockplace/stockplace-backend/internal/auth"
	checkoutsvc "github.com/stockplace/stockplace-backend/internal/checkout"
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
	"github.com/stockplace/stockplace-backend/pkg/migrate"
	"github.com/stockplace/stockplace-backend/pkg/redis"
	"github.com/stockplace/stockplace-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	requireResource(logg, "stripe", err)

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	spacesRepo := spacesvc.NewRepository(conn)
	rentalsRepo := rentalsvc.NewRepository(conn)
	productsRepo := productsvc.NewRepository(conn)

	usersService, err := users.NewService(usersRepo)
	requireResource(logg, "users service", err)

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	requireResource(logg, "ledger service", err)

	spacesService, err := spacesvc.NewService(spacesRepo)
	requireResource(logg, "storage space service", err)

	rentalsService, err := rentalsvc.NewService(rentalsvc.ServiceParams{
		Repo:   rentalsRepo,
		Spaces: spacesRepo,
		Ledger: ledgerService,
		Tx:     dbClient,
		Logger: logg,
	})
	requireResource(logg, "rentals service", err)

	rentalChecker, err := rentalsvc.NewUsageChecker(rentalsRepo)
	requireResource(logg, "rental checker", err)

	productsService, err := productsvc.NewService(productsRepo, rentalChecker)
	requireResource(logg, "products service", err)

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

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.GuardTTL, "stripe-webhook")
	requireResource(logg, "webhook guard", err)

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Spaces:   spacesRepo,
		Rentals:  rentalsRepo,
		Products: productsRepo,
		Users:    usersService,
		Stripe:   checkoutsvc.NewStripeClient(stripeClient),
		Config:   cfg.Checkout,
		Logger:   logg,
	})
	requireResource(logg, "checkout service", err)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Users:       usersService,
		JWTConfig:   cfg.JWT,
		PasswordCfg: cfg.Password,
		Logger:      logg,
	})
	requireResource(logg, "auth service", err)

	adminService, err := adminsvc.NewService(adminsvc.ServiceParams{
		Repo:   adminsvc.NewRepository(conn),
		Users:  usersService,
		Ledger: ledgerService,
		Logger: logg,
	})
	requireResource(logg, "admin service", err)

	handler := routes.NewRouter(routes.RouterParams{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		Stripe:       stripeClient,
		Auth:         authService,
		Spaces:       spacesService,
		Products:     productsService,
		Rentals:      rentalsService,
		Orders:       ordersService,
		Checkout:     checkoutService,
		Payouts:      payoutsService,
		Admin:        adminService,
		Webhooks:     webhookService,
		WebhookGuard: webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
