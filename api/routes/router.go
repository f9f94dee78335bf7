package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curocart/curocart-backend/api/controllers"
	cartcontrollers "github.com/curocart/curocart-backend/api/controllers/cart"
	"github.com/curocart/curocart-backend/api/middleware"
	cartsvc "github.com/curocart/curocart-backend/internal/cart"
	"github.com/curocart/curocart-backend/pkg/config"
	"github.com/curocart/curocart-backend/pkg/logger"
	"github.com/curocart/curocart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	cartManager *cartsvc.Manager,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CustomerContext(logg))

		r.Get("/", cartcontrollers.CollectionFetch(cartManager, logg))
		r.Post("/", cartcontrollers.CartCreate(cartManager, logg))
		r.Delete("/", cartcontrollers.ClearAll(cartManager, logg))
		r.Get("/previews", cartcontrollers.Previews(cartManager, logg))
		r.Put("/active", cartcontrollers.ActiveSet(cartManager, logg))

		r.Route("/{pharmacyID}", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartManager, logg))
			r.Delete("/", cartcontrollers.CartClear(cartManager, logg))
			r.Get("/validation", cartcontrollers.Validate(cartManager, logg))
			r.Post("/validation", cartcontrollers.ValidationRefresh(cartManager, logg))

			r.Post("/items", cartcontrollers.ItemAdd(cartManager, logg))
			r.Patch("/items/{lineID}", cartcontrollers.ItemQuantityUpdate(cartManager, logg))
			r.Delete("/items/{lineID}", cartcontrollers.ItemRemove(cartManager, logg))
		})
	})

	return r
}
