package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadlinehq/threadline-backend/api/controllers"
	"github.com/threadlinehq/threadline-backend/api/middleware"
	"github.com/threadlinehq/threadline-backend/internal/orders"
	"github.com/threadlinehq/threadline-backend/internal/parties"
	"github.com/threadlinehq/threadline-backend/internal/pricing"
	"github.com/threadlinehq/threadline-backend/pkg/config"
	"github.com/threadlinehq/threadline-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	deps map[string]controllers.Pinger,
	pricingStore *pricing.Store,
	partyService *parties.Service,
	orderService *orders.Service,
	metricsRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/pricing/config", func(r chi.Router) {
			r.Get("/", controllers.PricingConfigFetch(pricingStore, logg))
			r.Put("/", controllers.PricingConfigUpdate(pricingStore, logg))
		})

		r.Route("/parties", func(r chi.Router) {
			r.Get("/", controllers.PartyList(partyService, logg))
			r.Post("/", controllers.PartyCreate(partyService, logg))
			r.Route("/{partyId}", func(r chi.Router) {
				r.Get("/", controllers.PartyDetail(partyService, logg))
				r.Get("/tier", controllers.PartyTierView(partyService, logg))
				r.Put("/relationship-tier", controllers.PartySetRelationshipTier(partyService, logg))
				r.Put("/volume-tier-override", controllers.PartySetVolumeTierOverride(partyService, logg))
				r.Put("/hybrid-override", controllers.PartySetHybridOverride(partyService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(orderService, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(orderService, logg))
				r.Post("/complete", controllers.OrderComplete(orderService, logg))
			})
		})
	})

	return r
}
