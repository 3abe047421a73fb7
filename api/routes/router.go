package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agromarket/agromarket-backend/api/controllers"
	activitycontrollers "github.com/agromarket/agromarket-backend/api/controllers/activity"
	analyticscontrollers "github.com/agromarket/agromarket-backend/api/controllers/analytics"
	authcontrollers "github.com/agromarket/agromarket-backend/api/controllers/auth"
	cartcontrollers "github.com/agromarket/agromarket-backend/api/controllers/cart"
	catalogcontrollers "github.com/agromarket/agromarket-backend/api/controllers/catalog"
	ordercontrollers "github.com/agromarket/agromarket-backend/api/controllers/orders"
	usercontrollers "github.com/agromarket/agromarket-backend/api/controllers/users"
	"github.com/agromarket/agromarket-backend/api/middleware"
	"github.com/agromarket/agromarket-backend/internal/activity"
	"github.com/agromarket/agromarket-backend/internal/analytics"
	"github.com/agromarket/agromarket-backend/internal/auth"
	"github.com/agromarket/agromarket-backend/internal/cart"
	"github.com/agromarket/agromarket-backend/internal/catalog"
	"github.com/agromarket/agromarket-backend/internal/orders"
	"github.com/agromarket/agromarket-backend/internal/users"
	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/enums"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/metrics"
	"github.com/agromarket/agromarket-backend/pkg/session"
)

// NewRouter assembles the HTTP surface. rateStore and metricsHandler may be
// nil; auth rate limiting and /metrics are then disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	rateStore middleware.RateLimitStore,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	cookies session.Cookies,
	authService auth.Service,
	registerService auth.RegisterService,
	usersService users.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	activityService activity.Service,
	analyticsService analytics.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)
	maxUpload := cfg.Media.MaxUploadBytes()
	requireSession := middleware.Session(authService, cookies, logg)
	requireAdmin := middleware.RequireRole(string(enums.RoleAdmin), logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, rateStore, logg)).Post("/register", authcontrollers.Register(registerService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", authcontrollers.Login(authService, cookies, logg))
		r.Post("/logout", authcontrollers.Logout(authService, cookies, logg))
		r.With(requireSession).Get("/check-session", authcontrollers.CheckSession(logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireSession)

		r.Route("/users", func(r chi.Router) {
			r.Get("/profile", usercontrollers.Profile(usersService, logg))
			r.Get("/{id}", usercontrollers.Get(usersService, logg))
			r.Put("/{id}", usercontrollers.Update(usersService, logg))
		})

		r.Get("/categories", catalogcontrollers.ListCategories(catalogService, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogcontrollers.ListProducts(catalogService, logg))
			r.Get("/{id}", catalogcontrollers.GetProduct(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Get(cartService, logg))
			r.Post("/add", cartcontrollers.Add(cartService, logg))
			r.Post("/update", cartcontrollers.Update(cartService, logg))
			r.Delete("/remove/{productId}", cartcontrollers.Remove(cartService, logg))
			r.Delete("/clear", cartcontrollers.Clear(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Get("/{id}", ordercontrollers.Get(ordersService, logg))
			r.Put("/{id}/confirm", ordercontrollers.Confirm(ordersService, logg))
		})

		r.Get("/useractivity", activitycontrollers.ListRecent(activityService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/pending-users", usercontrollers.AdminListPending(usersService, logg))
			r.Get("/users", usercontrollers.AdminList(usersService, logg))
			r.Post("/approve-user", usercontrollers.AdminApprove(usersService, logg))
			r.Put("/block-user/{id}", usercontrollers.AdminBlock(usersService, logg))

			r.Get("/orders", ordercontrollers.AdminList(ordersService, logg))
			r.Put("/orders/{id}/status", ordercontrollers.AdminUpdateStatus(ordersService, logg))

			r.Get("/analytics", analyticscontrollers.Summary(analyticsService, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", catalogcontrollers.ListProducts(catalogService, logg))
				r.Post("/", catalogcontrollers.CreateProduct(catalogService, maxUpload, logg))
				r.Get("/{id}", catalogcontrollers.GetProduct(catalogService, logg))
				r.Put("/{id}", catalogcontrollers.UpdateProduct(catalogService, maxUpload, logg))
				r.Delete("/{id}", catalogcontrollers.DeleteProduct(catalogService, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", catalogcontrollers.CreateCategory(catalogService, logg))
				r.Put("/{id}", catalogcontrollers.UpdateCategory(catalogService, logg))
				r.Delete("/{id}", catalogcontrollers.DeleteCategory(catalogService, logg))
			})
		})
	})

	return r
}
