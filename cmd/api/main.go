package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/mayakapoor/aurelia-backend/api/routes"
	"github.com/mayakapoor/aurelia-backend/internal/address"
	"github.com/mayakapoor/aurelia-backend/internal/auth"
	"github.com/mayakapoor/aurelia-backend/internal/cart"
	"github.com/mayakapoor/aurelia-backend/internal/catalog"
	"github.com/mayakapoor/aurelia-backend/internal/checkout"
	"github.com/mayakapoor/aurelia-backend/internal/notifications"
	"github.com/mayakapoor/aurelia-backend/internal/orders"
	"github.com/mayakapoor/aurelia-backend/internal/payments"
	"github.com/mayakapoor/aurelia-backend/internal/users"
	"github.com/mayakapoor/aurelia-backend/internal/wishlist"
	"github.com/mayakapoor/aurelia-backend/pkg/config"
	"github.com/mayakapoor/aurelia-backend/pkg/db"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
	"github.com/mayakapoor/aurelia-backend/pkg/metrics"
	"github.com/mayakapoor/aurelia-backend/pkg/migrate"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox"
	"github.com/mayakapoor/aurelia-backend/pkg/razorpay"
	"github.com/mayakapoor/aurelia-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	var gateway *razorpay.Client
	if cfg.Razorpay.Configured() {
		gateway, err = razorpay.NewClient(cfg.Razorpay)
		if err != nil {
			logg.Error(context.Background(), "failed to create razorpay client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "razorpay credentials absent, checkout runs in offline-payment mode")
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		CartRepo:    cartRepo,
		ProductRepo: catalogRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(addressRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:        wishlist.NewRepository(gormDB),
		ProductRepo: catalogRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{OrderRepo: ordersRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutParams := checkout.ServiceParams{
		Tx:             dbClient,
		CartRepo:       cartRepo,
		ProductRepo:    catalogRepo,
		AddressRepo:    addressRepo,
		OrderRepo:      ordersRepo,
		Numbers:        orders.NewNumberAllocator(ordersRepo.ExistsByNumber),
		Outbox:         outboxSvc,
		Metrics:        checkoutMetrics,
		Logger:         logg,
		Checkout:       cfg.Checkout,
		LegacyDiscount: cfg.FeatureFlags.LegacyDiscountTotals,
	}
	if gateway != nil {
		checkoutParams.Gateway = gateway
	}
	checkoutService, err := checkout.NewService(checkoutParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentParams := payments.ServiceParams{
		Tx:        dbClient,
		OrderRepo: ordersRepo,
		CartSvc:   cartService,
		Outbox:    outboxSvc,
		Metrics:   checkoutMetrics,
		Logger:    logg,
	}
	if gateway != nil {
		paymentParams.Verifier = gateway
	}
	paymentService, err := payments.NewService(paymentParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Auth:          authService,
			Catalog:       catalogService,
			Cart:          cartService,
			Address:       addressService,
			Wishlist:      wishlistService,
			Checkout:      checkoutService,
			Payments:      paymentService,
			Orders:        orderService,
			Notifications: notificationService,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		logg.Error(ctx, "api server stopped unexpectedly", err)
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	if err := multierr.Append(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "error closing resources", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
