package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockplace/stockplace-backend/api/controllers"
	webhookcontrollers "github.com/stockplace/stockplace-backend/api/controllers/webhooks"
	"github.com/stockplace/stockplace-backend/api/middleware"
	adminsvc "github.com/stockplace/stockplace-backend/internal/admin"
	authsvc "github.com/stockplace/stockplace-backend/internal/auth"
	checkoutsvc "github.com/stockplace/stockplace-backend/internal/checkout"
	ordersvc "github.com/stockplace/stockplace-backend/internal/orders"
	payoutsvc "github.com/stockplace/stockplace-backend/internal/payouts"
	productsvc "github.com/stockplace/stockplace-backend/internal/products"
	rentalsvc "github.com/stockplace/stockplace-backend/internal/rentals"
	spacesvc "github.com/stockplace/stockplace-backend/internal/storagespaces"
	stripewebhook "github.com/stockplace/stockplace-backend/internal/webhooks/stripe"
	"github.com/stockplace/stockplace-backend/pkg/config"
	"github.com/stockplace/stockplace-backend/pkg/db"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	"github.com/stockplace/stockplace-backend/pkg/logger"
	"github.com/stockplace/stockplace-backend/pkg/redis"
	"github.com/stockplace/stockplace-backend/pkg/stripe"
)

type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Stripe       *stripe.Client
	Auth         authsvc.Service
	Spaces       spacesvc.Service
	Products     productsvc.Service
	Rentals      rentalsvc.Service
	Orders       ordersvc.Service
	Checkout     checkoutsvc.Service
	Payouts      payoutsvc.Service
	Admin        adminsvc.Service
	Webhooks     *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	// The webhook route sits outside the auth and rate limit groups. The
	// signature check is its authentication.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.Webhooks, p.Stripe, p.WebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/storage-spaces", func(r chi.Router) {
			r.Get("/", controllers.ListStorageSpaces(p.Spaces, logg))
			r.Get("/{spaceId}", controllers.GetStorageSpace(p.Spaces, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.UserRoleLessor)))
				r.Post("/", controllers.CreateStorageSpace(p.Spaces, logg))
				r.Get("/mine", controllers.ListMyStorageSpaces(p.Spaces, logg))
				r.Patch("/{spaceId}", controllers.UpdateStorageSpace(p.Spaces, logg))
				r.Get("/{spaceId}/rentals", controllers.ListStorageSpaceRentals(p.Rentals, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(p.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.UserRoleSupplier)))
				r.Post("/", controllers.CreateProduct(p.Products, logg))
				r.Get("/mine", controllers.ListMyProducts(p.Products, logg))
				r.Patch("/{productId}", controllers.UpdateProduct(p.Products, logg))
			})
		})

		r.Route("/rentals", func(r chi.Router) {
			r.Get("/mine", controllers.ListMyRentals(p.Rentals, logg))
			r.Get("/{rentalId}", controllers.GetRental(p.Rentals, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, string(enums.UserRoleBuyer))).
				Get("/purchases", controllers.ListBuyerOrders(p.Orders, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.UserRoleSupplier)))
				r.Get("/sales", controllers.ListSellerOrders(p.Orders, logg))
				r.Post("/{orderId}/collect", controllers.MarkOrderCollected(p.Orders, logg))
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, string(enums.UserRoleRenter))).
				Post("/rental", controllers.CheckoutRental(p.Checkout, logg))
			r.With(middleware.RequireRole(logg, string(enums.UserRoleBuyer))).
				Post("/product", controllers.CheckoutProduct(p.Checkout, logg))
			r.Get("/confirm", controllers.CheckoutConfirm(p.Checkout, logg))
		})

		r.Get("/payouts/mine", controllers.ListMyPayouts(p.Payouts, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin)))

		r.Get("/dashboard", controllers.AdminDashboard(p.Admin, logg))
		r.Get("/users", controllers.AdminListUsers(p.Admin, logg))
		r.Patch("/users/{userId}", controllers.AdminUpdateUser(p.Admin, logg))
		r.Delete("/{entityType}/{entityId}", controllers.AdminDeleteEntity(p.Admin, logg))
	})

	return r
}
