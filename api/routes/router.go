package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/hydrus-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/hydrus-backend/api/controllers/webhooks"
	"github.com/angelmondragon/hydrus-backend/api/middleware"
	"github.com/angelmondragon/hydrus-backend/internal/catalog"
	"github.com/angelmondragon/hydrus-backend/internal/customers"
	"github.com/angelmondragon/hydrus-backend/internal/subscriptions"
	"github.com/angelmondragon/hydrus-backend/pkg/auth/session"
	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/metrics"
	"github.com/angelmondragon/hydrus-backend/pkg/redis"
)

type sessionManager interface {
	session.Checker
	session.Revoker
}

// Dependencies carries everything the router hands to controllers.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Sessions sessionManager
	// Idempotency may be nil, which disables response replay.
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Catalog       catalog.Service
	Customers     customers.Service
	Subscriptions subscriptions.Service
	WebhookLogs   controllers.WebhookLogLister

	WebhookVerifier  webhookcontrollers.EventVerifier
	WebhookProcessor webhookcontrollers.EventProcessor
	WebhookMetrics   *metrics.WebhookMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}, logg))
	})

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.WebhookVerifier, deps.WebhookProcessor, deps.WebhookMetrics, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.RequireSession(cfg.Session, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Delete("/session", controllers.AdminSignOut(deps.Sessions, cfg.Session, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.AdminListCustomers(deps.Customers, logg))
			r.Post("/", controllers.AdminCreateCustomer(deps.Customers, logg))
		})
		r.Get("/subscriptions", controllers.AdminListSubscriptions(deps.Subscriptions, logg))
		r.Get("/webhook-logs", controllers.AdminListWebhookLogs(deps.WebhookLogs, logg))
	})

	return r
}
