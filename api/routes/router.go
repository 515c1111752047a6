package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/controllers"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/middleware"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/geospatial"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/stores"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/metrics"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	storeService stores.Service,
	polygonService polygons.Service,
	geoService geospatial.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Get("/", controllers.StoreList(storeService, logg))
		r.Post("/", controllers.StoreCreate(storeService, logg))

		r.Route("/{storeID}", func(r chi.Router) {
			r.Use(middleware.StoreContext(logg))
			r.Get("/", controllers.StoreGet(storeService, logg))
			r.Patch("/", controllers.StoreUpdate(storeService, logg))

			r.Route("/polygons", func(r chi.Router) {
				r.Get("/", controllers.PolygonList(polygonService, logg))
				r.Post("/", controllers.PolygonCreate(polygonService, logg))
				r.Get("/{polygonType}/current", controllers.PolygonCurrent(polygonService, logg))
				r.Get("/{polygonType}/history", controllers.PolygonHistory(polygonService, logg))
			})
		})
	})

	r.Route("/api/v1/polygons/{versionID}", func(r chi.Router) {
		r.Get("/", controllers.PolygonGet(polygonService, logg))
		r.Post("/deactivate", controllers.PolygonDeactivate(polygonService, logg))
	})

	r.Route("/api/v1/geo", func(r chi.Router) {
		r.Get("/point-check", controllers.GeoPointCheck(geoService, logg))
		r.Post("/bulk-point-check", controllers.GeoBulkPointCheck(geoService, logg))
		r.Get("/store-by-point", controllers.GeoStoreForPoint(geoService, logg))
		r.Get("/overlaps", controllers.GeoOverlaps(geoService, logg))
	})

	return r
}
