package main

import (
	"context"
	"net/http"
	"os"

	"github.com/angelmondragon/shopqr-backend/api/routes"
	"github.com/angelmondragon/shopqr-backend/internal/qrcodes"
	"github.com/angelmondragon/shopqr-backend/pkg/config"
	"github.com/angelmondragon/shopqr-backend/pkg/db"
	"github.com/angelmondragon/shopqr-backend/pkg/logger"
	"github.com/angelmondragon/shopqr-backend/pkg/metrics"
	"github.com/angelmondragon/shopqr-backend/pkg/migrate"
	"github.com/angelmondragon/shopqr-backend/pkg/qrimage"
	"github.com/angelmondragon/shopqr-backend/pkg/redis"
	"github.com/angelmondragon/shopqr-backend/pkg/shopify"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
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

	catalogClient, err := shopify.NewClient(cfg.Shopify)
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	scanMetrics := metrics.NewScanMetrics(registry)

	qrService, err := qrcodes.NewService(qrcodes.ServiceParams{
		Repo:     qrcodes.NewRepository(dbClient.DB()),
		Catalog:  catalogClient,
		Renderer: qrimage.NewRenderer(cfg.QR.ImageSize),
		Metrics:  scanMetrics,
		AppURL:   cfg.App.BaseURL(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create qr code service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, qrService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
