package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/modecraft/storefront-backend/api/routes"
	cartsvc "github.com/modecraft/storefront-backend/internal/cart"
	"github.com/modecraft/storefront-backend/internal/cartstore"
	checkoutsvc "github.com/modecraft/storefront-backend/internal/checkout"
	"github.com/modecraft/storefront-backend/internal/orders"
	"github.com/modecraft/storefront-backend/internal/products"
	"github.com/modecraft/storefront-backend/pkg/auth/session"
	"github.com/modecraft/storefront-backend/pkg/config"
	"github.com/modecraft/storefront-backend/pkg/db"
	"github.com/modecraft/storefront-backend/pkg/logger"
	"github.com/modecraft/storefront-backend/pkg/metrics"
	"github.com/modecraft/storefront-backend/pkg/migrate"
	"github.com/modecraft/storefront-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	sessionManager, err := session.NewManager(cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(registry)

	cartStore, err := cartstore.NewStore(
		cartstore.NewRedisStorage(redisClient),
		cartstore.NewRedisNotifier(redisClient, logg),
		logg,
		cartMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	cartService, err := cartsvc.NewService(cartStore, products.NewLoader(productsRepo), logg, cartMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		cartService,
		ordersRepo,
		checkoutsvc.NewSimulatedGateway(cfg.Checkout.GatewayDelay),
		checkoutsvc.Rates{
			FreeShippingThreshold: cfg.Checkout.FreeShippingThresholdAmount(),
			FlatShippingRate:      cfg.Checkout.FlatShippingRateAmount(),
			TaxRate:               cfg.Checkout.TaxRateAmount(),
		},
		cfg.Checkout.SessionIdleTimeout,
		logg,
		cartMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Sessions:        sessionManager,
			CartStore:       cartStore,
			CartService:     cartService,
			CheckoutService: checkoutService,
			ProductsRepo:    productsRepo,
			OrdersRepo:      ordersRepo,
			Registry:        registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
