package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/biscenic/commerce-backend/api/routes"
	"github.com/biscenic/commerce-backend/internal/cart"
	checkoutsvc "github.com/biscenic/commerce-backend/internal/checkout"
	"github.com/biscenic/commerce-backend/internal/collections"
	"github.com/biscenic/commerce-backend/internal/orders"
	"github.com/biscenic/commerce-backend/internal/products"
	"github.com/biscenic/commerce-backend/pkg/auth"
	"github.com/biscenic/commerce-backend/pkg/config"
	"github.com/biscenic/commerce-backend/pkg/db"
	"github.com/biscenic/commerce-backend/pkg/flutterwave"
	"github.com/biscenic/commerce-backend/pkg/logger"
	"github.com/biscenic/commerce-backend/pkg/metrics"
	"github.com/biscenic/commerce-backend/pkg/migrate"
	"github.com/biscenic/commerce-backend/pkg/redis"
)

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

	sessionManager, err := auth.NewSessionManager(cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gatewayClient, err := flutterwave.NewClient(context.Background(), cfg.Flutterwave, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create flutterwave client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	cartRepo, err := cart.NewRepository(redisClient, cfg.Checkout.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repository", err)
		os.Exit(1)
	}
	checkoutStore, err := checkoutsvc.NewStore(redisClient, cfg.Checkout.SessionTTL, cfg.Checkout.PendingPaymentTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout store", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, checkoutStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewSessionService(checkoutStore, cartService)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	productsService, err := products.NewService(products.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	collectionsService, err := collections.NewService(collections.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create collections service", err)
		os.Exit(1)
	}

	finalizer, err := checkoutsvc.NewFinalizer(
		checkoutStore,
		cartRepo,
		ordersService,
		gatewayClient,
		redisClient,
		cfg.Storefront,
		cfg.Checkout,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create finalizer", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"gateway_env": gatewayClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient, sessionManager, gatewayClient, registry,
			cartService, checkoutService, finalizer,
			ordersService, productsService, collectionsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
