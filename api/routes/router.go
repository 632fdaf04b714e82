package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/authz"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies bundles everything the HTTP surface needs.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Authz    authz.Authorizer

	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth     auth.Service
	Products product.Service
	Cart     cart.Service
	Orders   orders.Service
	Reviews  reviews.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg, deps.Metrics),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	pingers := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if !cfg.App.IsProd() {
		r.Post("/api/dev/v1/auth/token", controllers.DevIssueToken(deps.Auth, logg))
	}

	// Catalog reads are public.
	r.Get("/api/v1/products", controllers.ProductList(deps.Products, logg))
	r.Get("/api/v1/products/{productId}", controllers.ProductDetail(deps.Products, logg))
	r.Get("/api/v1/products/{productId}/reviews", controllers.ProductReviews(deps.Reviews, logg))

	var limiter redis.RateLimiter
	if deps.Redis != nil {
		limiter = deps.Redis
	}
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutLimit)
	reviewPolicy := middleware.NewRateLimitPolicy("review", cfg.RateLimit.ReviewWindow, cfg.RateLimit.ReviewLimit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Post("/api/v1/auth/logout", controllers.AuthLogout(deps.Auth, logg))

		// Routes stay flat so middleware sees the full route pattern.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSelfOrAdmin(deps.Authz, "userId", logg))
			r.Get("/api/v1/cart/{userId}", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Post("/api/v1/cart/{userId}", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Put("/api/v1/cart/{userId}", cartcontrollers.CartSetQuantity(deps.Cart, logg))
			r.Delete("/api/v1/cart/{userId}", cartcontrollers.CartDelete(deps.Cart, logg))
		})

		r.Get("/api/v1/orders", ordercontrollers.List(deps.Orders, deps.Authz, logg))
		r.Get("/api/v1/orders/{orderId}", ordercontrollers.Detail(deps.Orders, deps.Authz, logg))
		r.With(middleware.RateLimit(checkoutPolicy, limiter, logg)).
			Post("/api/v1/orders", ordercontrollers.Create(deps.Orders, deps.Authz, logg))
		r.With(middleware.RequireAdmin(deps.Authz, logg)).
			Put("/api/v1/orders", ordercontrollers.UpdateStatus(deps.Orders, logg))

		r.With(middleware.RateLimit(reviewPolicy, limiter, logg)).
			Post("/api/v1/reviews", controllers.ReviewSubmit(deps.Reviews, logg))
	})

	return r
}
