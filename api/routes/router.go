package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopqr-backend/api/controllers"
	"github.com/angelmondragon/shopqr-backend/api/middleware"
	"github.com/angelmondragon/shopqr-backend/internal/qrcodes"
	"github.com/angelmondragon/shopqr-backend/pkg/config"
	"github.com/angelmondragon/shopqr-backend/pkg/db"
	"github.com/angelmondragon/shopqr-backend/pkg/logger"
	"github.com/angelmondragon/shopqr-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	qrService qrcodes.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	scanPolicy := middleware.NewScanRateLimitPolicy(
		"scan",
		cfg.ScanLimit.Window,
		cfg.ScanLimit.IPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Public surface hit by camera apps; no auth, throttled per IP.
	r.Route("/qrcodes", func(r chi.Router) {
		r.With(middleware.ScanRateLimit(scanPolicy, redisClient, logg)).
			Get("/{id}/scan", controllers.ScanQRCode(qrService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Shopify, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/qrcodes", func(r chi.Router) {
			r.Get("/", controllers.ListQRCodes(qrService, logg))
			r.Post("/", controllers.CreateQRCode(qrService, logg))
			r.Get("/{id}", controllers.GetQRCode(qrService, logg))
			r.Put("/{id}", controllers.UpdateQRCode(qrService, logg))
			r.Delete("/{id}", controllers.DeleteQRCode(qrService, logg))
		})
	})

	return r
}
