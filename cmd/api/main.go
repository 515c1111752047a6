package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/routes"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/geospatial"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/stores"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/metrics"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/migrate"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/redis"
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

	var redisClient *redis.Client
	var lookupCache *geospatial.LookupCache
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		lookupCache, err = geospatial.NewLookupCache(redisClient, cfg.Geo.CacheTTL, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create lookup cache", err)
			os.Exit(1)
		}
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)
	geoMetrics := metrics.NewGeoQueryMetrics(promRegistry)

	storesRepo := stores.NewRepository(dbClient.DB())
	polygonsRepo := polygons.NewRepository(dbClient.DB())

	storeService, err := stores.NewService(storesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	var invalidator polygons.Invalidator
	if lookupCache != nil {
		invalidator = lookupCache
	}
	polygonService, err := polygons.NewService(polygonsRepo, storesRepo, invalidator)
	if err != nil {
		logg.Error(context.Background(), "failed to create polygon service", err)
		os.Exit(1)
	}

	var cache geospatial.Cache
	if lookupCache != nil {
		cache = lookupCache
	}
	geoService, err := geospatial.NewService(polygonService, storesRepo, cache, geoMetrics, cfg.Geo)
	if err != nil {
		logg.Error(context.Background(), "failed to create geospatial service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			httpMetrics,
			storeService,
			polygonService,
			geoService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
