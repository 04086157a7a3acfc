package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/furnhaus/furnhaus-backend/api/routes"
	"github.com/furnhaus/furnhaus-backend/internal/addresses"
	"github.com/furnhaus/furnhaus-backend/internal/cart"
	checkoutsvc "github.com/furnhaus/furnhaus-backend/internal/checkout"
	"github.com/furnhaus/furnhaus-backend/internal/inventory"
	"github.com/furnhaus/furnhaus-backend/internal/notifications"
	ordersvc "github.com/furnhaus/furnhaus-backend/internal/orders"
	paymentsvc "github.com/furnhaus/furnhaus-backend/internal/payments"
	"github.com/furnhaus/furnhaus-backend/internal/products"
	refundsvc "github.com/furnhaus/furnhaus-backend/internal/refunds"
	"github.com/furnhaus/furnhaus-backend/internal/vendors"
	stripewebhook "github.com/furnhaus/furnhaus-backend/internal/webhooks/stripe"
	"github.com/furnhaus/furnhaus-backend/pkg/config"
	"github.com/furnhaus/furnhaus-backend/pkg/db"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
	"github.com/furnhaus/furnhaus-backend/pkg/metrics"
	"github.com/furnhaus/furnhaus-backend/pkg/migrate"
	"github.com/furnhaus/furnhaus-backend/pkg/redis"
	pkgstripe "github.com/furnhaus/furnhaus-backend/pkg/stripe"
)

const webhookGuardScope = "stripe:webhook"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, cfg.App, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	coreMetrics := metrics.NewCheckoutMetrics(registry)

	gdb := dbClient.DB()
	cartRepo := cart.NewRepository(gdb)
	productsRepo := products.NewRepository(gdb)
	vendorsRepo := vendors.NewRepository(gdb)
	addressesRepo := addresses.NewRepository(gdb)
	ordersRepo := ordersvc.NewRepository(gdb)
	notificationsRepo := notifications.NewRepository(gdb)
	ledger := inventory.NewLedger()

	notifier, err := notifications.NewDBGateway(notificationsRepo)
	requireService(logg, "notification gateway", err)

	cartValidator, err := cart.NewValidator(cartRepo)
	requireService(logg, "cart validator", err)

	cartService, err := cart.NewService(cartRepo, productsRepo)
	requireService(logg, "cart service", err)

	pricing, err := checkoutsvc.NewPricing(cfg.Checkout)
	requireService(logg, "checkout pricing", err)

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		cartValidator,
		cartRepo,
		ordersRepo,
		vendorsRepo,
		addressesRepo,
		ledger,
		notifier,
		pricing,
		logg,
		coreMetrics,
	)
	requireService(logg, "checkout service", err)

	paymentsService, err := paymentsvc.NewService(ordersRepo, vendorsRepo, stripeClient, logg)
	requireService(logg, "payments service", err)

	ordersService, err := ordersvc.NewService(ordersRepo, dbClient, ledger, notifier, logg)
	requireService(logg, "orders service", err)

	refundsService, err := refundsvc.NewService(ordersRepo, dbClient, stripeClient, notifier, logg, coreMetrics)
	requireService(logg, "refunds service", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo:        ordersRepo,
		Notifier:          notifier,
		TransactionRunner: dbClient,
		Logger:            logg,
		Metrics:           coreMetrics,
	})
	requireService(logg, "stripe webhook service", err)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookEventTTL, webhookGuardScope)
	requireService(logg, "stripe webhook guard", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:             cfg,
			Logger:             logg,
			DB:                 dbClient,
			Redis:              redisClient,
			Metrics:            registry,
			CartService:        cartService,
			CheckoutService:    checkoutService,
			PaymentsService:    paymentsService,
			OrdersService:      ordersService,
			RefundsService:     refundsService,
			Notifications:      notificationsRepo,
			StripeClient:       stripeClient,
			StripeWebhookSvc:   webhookService,
			StripeWebhookGuard: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(logg.WithField(context.Background(), "component", name), "failed to build component", err)
		os.Exit(1)
	}
}
