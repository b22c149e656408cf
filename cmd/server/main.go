package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/checkout"
	"pisos_storefront/internal/config"
	"pisos_storefront/internal/database"
	"pisos_storefront/internal/handlers/admin"
	"pisos_storefront/internal/handlers/payment"
	"pisos_storefront/internal/handlers/product"
	"pisos_storefront/internal/handlers/user"
	"pisos_storefront/internal/logger"
	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/routes"
	"pisos_storefront/internal/services/backend"
	paysvc "pisos_storefront/internal/services/payment"
	"pisos_storefront/internal/services/storage"
	"pisos_storefront/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	stripe.Key = cfg.StripeSecretKey
	if stripe.Key == "" {
		zl.Warn("STRIPE_SECRET_KEY not set, payments will fail")
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Exporter:    cfg.TraceExporter,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		zl.Fatal("tracing setup failed", zap.Error(err))
	}

	conns, err := database.Connect(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer conns.Close()

	store := cache.NewStore(conns.Redis, cfg.SessionTTL, zl)
	api := backend.New(cfg.BackendURL, cfg.BackendTimeout, zl)

	// A nil *minio.Client must not end up inside the interface.
	var objects storage.ObjectPutter
	if conns.MinIO != nil {
		objects = conns.MinIO
	}
	images := storage.NewUploader(objects, cfg.MinioEndpoint, cfg.MinioBucket, cfg.MinioSecure, zl)

	orch := checkout.NewOrchestrator(api, cfg.Shipping, zl)
	gateway := paysvc.NewStripe(cfg.Currency, cfg.StripeWebhookSecret, zl)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Gin(zl))

	routes.RegisterRoutes(r, routes.Deps{
		Store: store,
		Session: middleware.SessionOptions{
			Secret: []byte(cfg.SessionSecret),
			TTL:    cfg.SessionTTL,
			Secure: cfg.CookieSecure,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            zl,

		Products: product.NewHandler(api, zl),
		Auth:     user.NewAuthHandler(api, zl),
		Cart:     user.NewCartHandler(api, zl),
		Orders:   user.NewOrderHandler(api, zl),
		Socket:   user.NewSessionSocket(cfg.AllowedOrigins, zl),
		Payment:  payment.NewHandler(orch, gateway, store, zl),
		Admin:    admin.NewHandler(api, images, zl),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           otelhttp.NewHandler(r, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("storefront listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		zl.Error("server failed", zap.Error(err))
	case sig := <-sigCh:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Warn("trace flush failed", zap.Error(err))
	}
}
