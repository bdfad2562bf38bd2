package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carnimore/storefront-backend/api/controllers"
	"github.com/carnimore/storefront-backend/api/middleware"
	"github.com/carnimore/storefront-backend/internal/auth"
	"github.com/carnimore/storefront-backend/internal/blog"
	"github.com/carnimore/storefront-backend/internal/cart"
	"github.com/carnimore/storefront-backend/internal/catalog"
	checkoutsvc "github.com/carnimore/storefront-backend/internal/checkout"
	"github.com/carnimore/storefront-backend/internal/ffl"
	"github.com/carnimore/storefront-backend/internal/orders"
	"github.com/carnimore/storefront-backend/internal/payments"
	"github.com/carnimore/storefront-backend/internal/users"
	"github.com/carnimore/storefront-backend/pkg/auth/session"
	"github.com/carnimore/storefront-backend/pkg/config"
	"github.com/carnimore/storefront-backend/pkg/db"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	authService auth.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	paymentService payments.Service,
	orderService orders.Service,
	fflService ffl.Service,
	blogService blog.Service,
	userRepo *users.Repository,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Idempotency(redisClient, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(dbP, redisClient)))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	// storefront surface; anonymous shoppers welcome, tokens attributed
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, sessions, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoriesList(catalogService, logg))
			r.Get("/{slug}", controllers.CategoryFetch(catalogService, logg))
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(catalogService, logg))
			r.Get("/{slug}", controllers.ProductFetch(catalogService, logg))
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(cartService, logg))
			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
				r.Delete("/items", controllers.CartClear(cartService, logg))
			})
		})

		r.Route("/checkout/{cartId}", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(checkoutService, logg))
			r.Get("/", controllers.CheckoutFetch(checkoutService, logg))
			r.Patch("/data", controllers.CheckoutUpdateData(checkoutService, logg))
			r.Post("/complete", controllers.CheckoutCompleteStep(checkoutService, logg))
			r.Put("/step", controllers.CheckoutSetStep(checkoutService, logg))
			r.Delete("/", controllers.CheckoutEnd(checkoutService, logg))
		})

		r.Post("/payments", controllers.PaymentSubmit(paymentService, checkoutService, cartService, logg))
		r.Get("/orders/{orderId}/status", controllers.OrderStatus(orderService, logg))

		r.Route("/ffl", func(r chi.Router) {
			r.Get("/dealers", controllers.FFLSearch(fflService, logg))
			r.Get("/dealers/{dealerId}", controllers.FFLDealerFetch(fflService, logg))
		})

		r.Route("/blog/posts", func(r chi.Router) {
			r.Get("/", controllers.BlogList(blogService, logg))
			r.Get("/{slug}", controllers.BlogFetch(blogService, logg))
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Get("/orders", controllers.MyOrders(orderService, logg))
			r.Get("/orders/{orderId}", controllers.MyOrderDetail(orderService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(orderService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(orderService, logg))
		})
		r.Post("/categories", controllers.AdminCategoryCreate(catalogService, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductsList(catalogService, logg))
			r.Post("/", controllers.AdminProductCreate(catalogService, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(catalogService, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(catalogService, logg))
		})
		r.Route("/blog/posts", func(r chi.Router) {
			r.Get("/", controllers.AdminBlogList(blogService, logg))
			r.Post("/", controllers.AdminBlogCreate(blogService, logg))
			r.Patch("/{postId}", controllers.AdminBlogUpdate(blogService, logg))
			r.Delete("/{postId}", controllers.AdminBlogDelete(blogService, logg))
		})
		r.Post("/ffl/import", controllers.AdminFFLImport(fflService, logg))
		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUsersList(userRepo, logg))
			r.Put("/{userId}/active", controllers.AdminUserSetActive(userRepo, logg))
		})
	})

	return r
}
