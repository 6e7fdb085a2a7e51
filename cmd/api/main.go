package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/api/routes"
	"github.com/opticamarket/marketplace-backend/internal/address"
	"github.com/opticamarket/marketplace-backend/internal/credentials"
	"github.com/opticamarket/marketplace-backend/internal/inventory"
	"github.com/opticamarket/marketplace-backend/internal/orders"
	"github.com/opticamarket/marketplace-backend/internal/payments"
	products "github.com/opticamarket/marketplace-backend/internal/products"
	"github.com/opticamarket/marketplace-backend/internal/shipping"
	"github.com/opticamarket/marketplace-backend/internal/users"
	"github.com/opticamarket/marketplace-backend/pkg/carrier"
	"github.com/opticamarket/marketplace-backend/pkg/config"
	"github.com/opticamarket/marketplace-backend/pkg/db"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	"github.com/opticamarket/marketplace-backend/pkg/erp"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/mercadopago"
	"github.com/opticamarket/marketplace-backend/pkg/metrics"
	"github.com/opticamarket/marketplace-backend/pkg/migrate"
	"github.com/opticamarket/marketplace-backend/pkg/redis"
)

const (
	shutdownTimeout   = 15 * time.Second
	webhookDedupTTL   = 24 * time.Hour
	readHeaderTimeout = 10 * time.Second
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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if redis.Configured(cfg.Redis) {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "redis not configured; idempotency keys, webhook dedup and quote cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)
	paymentMetrics := metrics.NewPaymentMetrics(registry)
	shippingMetrics := metrics.NewShippingMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	ledger := inventory.NewLedger()

	addressService, err := address.NewService(address.NewRepository(gormDB), dbClient)
	requireResource(ctx, logg, "address service", err)

	productService, err := buildProductService(ctx, cfg, logg, gormDB, productRepo)
	requireResource(ctx, logg, "product service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Tx:        dbClient,
		Products:  productRepo,
		Addresses: addressService,
		Stock:     ledger,
		Metrics:   orderMetrics,
		Logger:    logg,
	})
	requireResource(ctx, logg, "orders service", err)

	shippingParams := shipping.ServiceParams{
		OriginPostalCode: cfg.Shipping.OriginPostalCode,
		Metrics:          shippingMetrics,
		Logger:           logg,
	}
	if strings.TrimSpace(cfg.Shipping.BaseURL) != "" {
		carrierClient, err := carrier.NewClient(cfg.Shipping.BaseURL, cfg.Shipping.Token, carrier.WithTimeout(cfg.Shipping.Timeout))
		requireResource(ctx, logg, "shipping carrier client", err)
		shippingParams.Carrier = carrierClient
	}
	if redisClient != nil {
		shippingParams.Cache = redisClient
	}
	shippingService, err := shipping.NewService(shippingParams)
	requireResource(ctx, logg, "shipping service", err)

	paymentServices, err := buildPaymentServices(ctx, cfg, logg, dbClient, ordersRepo, userRepo, ledger, redisClient, paymentMetrics)
	requireResource(ctx, logg, "payment services", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			routes.Observability{
				Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
				HTTP:    httpMetrics,
			},
			userRepo,
			productService,
			addressService,
			shippingService,
			ordersService,
			paymentServices,
		),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	if closeErr != nil {
		logg.Error(logCtx, "error during shutdown", closeErr)
		exitCode = 1
	}
	logg.Info(logCtx, "api server stopped")
	os.Exit(exitCode)
}

func buildProductService(ctx context.Context, cfg *config.Config, logg *logger.Logger, gormDB *gorm.DB, repo products.Repository) (products.Service, error) {
	params := products.ServiceParams{
		Repo:       repo,
		ERPEnabled: cfg.FeatureFlags.ERPSync,
		Logger:     logg,
	}
	if !cfg.FeatureFlags.ERPSync {
		return products.NewService(params)
	}

	erpClient, err := erp.NewClient(cfg.ERP.BaseURL, erp.WithTimeout(cfg.ERP.Timeout))
	if err != nil {
		return nil, err
	}
	var opts []credentials.Option
	if strings.TrimSpace(cfg.ERP.TokenURL) != "" {
		opts = append(opts, credentials.WithOAuthConfig(enums.CredentialProviderERP, &oauth2.Config{
			ClientID:     cfg.ERP.ClientID,
			ClientSecret: cfg.ERP.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.ERP.TokenURL},
		}))
	}
	tokens, err := credentials.NewService(credentials.NewRepository(gormDB), logg, opts...)
	if err != nil {
		return nil, err
	}
	platformUser, err := uuid.Parse(strings.TrimSpace(cfg.ERP.AccountUser))
	if err != nil {
		logg.Warn(ctx, "erp account user not set; platform products cannot be pushed")
		platformUser = uuid.Nil
	}

	params.Tokens = tokens
	params.ERP = erpClient
	params.PlatformERPUser = platformUser
	return products.NewService(params)
}

func buildPaymentServices(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	ordersRepo orders.Repository,
	userRepo *users.Repository,
	ledger *inventory.Ledger,
	redisClient *redis.Client,
	paymentMetrics *metrics.PaymentMetrics,
) (routes.PaymentServices, error) {
	var svc routes.PaymentServices
	if strings.TrimSpace(cfg.Payments.AccessToken) == "" {
		logg.Warn(ctx, "payment gateway not configured; checkout and reconciliation disabled")
		return svc, nil
	}

	gateway, err := mercadopago.NewClient(cfg.Payments.AccessToken,
		mercadopago.WithBaseURL(cfg.Payments.BaseURL),
		mercadopago.WithTimeout(cfg.Payments.Timeout),
	)
	if err != nil {
		return svc, err
	}

	reconciler, err := payments.NewReconciler(payments.ReconcilerParams{
		Repo:    ordersRepo,
		Tx:      dbClient,
		Stock:   ledger,
		Gateway: gateway,
		Metrics: paymentMetrics,
		Logger:  logg,
	})
	if err != nil {
		return svc, err
	}
	checkout, err := payments.NewCheckoutService(payments.CheckoutParams{
		Repo:    ordersRepo,
		Users:   userRepo,
		Gateway: gateway,
		Config:  cfg.Payments,
		App:     cfg.App,
		Metrics: paymentMetrics,
		Logger:  logg,
	})
	if err != nil {
		return svc, err
	}

	svc.Checkout = checkout
	svc.Status = reconciler
	svc.Webhook = reconciler
	if redisClient != nil {
		guard, err := payments.NewNotificationGuard(redisClient, webhookDedupTTL, "payments")
		if err != nil {
			return svc, err
		}
		svc.Guard = guard
	}
	if cfg.Payments.WebhookSecret == "" {
		logg.Warn(ctx, "payment webhook secret not set; notifications are not signature-checked")
	}
	return svc, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", name), "failed to initialize resource", err)
	os.Exit(1)
}
