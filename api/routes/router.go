package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mayakapoor/aurelia-backend/api/controllers"
	"github.com/mayakapoor/aurelia-backend/api/middleware"
	addresssvc "github.com/mayakapoor/aurelia-backend/internal/address"
	authsvc "github.com/mayakapoor/aurelia-backend/internal/auth"
	cartsvc "github.com/mayakapoor/aurelia-backend/internal/cart"
	"github.com/mayakapoor/aurelia-backend/internal/catalog"
	checkoutsvc "github.com/mayakapoor/aurelia-backend/internal/checkout"
	notificationsvc "github.com/mayakapoor/aurelia-backend/internal/notifications"
	orderssvc "github.com/mayakapoor/aurelia-backend/internal/orders"
	paymentsvc "github.com/mayakapoor/aurelia-backend/internal/payments"
	wishlistsvc "github.com/mayakapoor/aurelia-backend/internal/wishlist"
	"github.com/mayakapoor/aurelia-backend/pkg/config"
	"github.com/mayakapoor/aurelia-backend/pkg/db"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
	"github.com/mayakapoor/aurelia-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth          authsvc.Service
	Catalog       catalog.Service
	Cart          cartsvc.Service
	Address       addresssvc.Service
	Wishlist      wishlistsvc.Service
	Checkout      checkoutsvc.Service
	Payments      paymentsvc.Service
	Orders        orderssvc.Service
	Notifications notificationsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRate.LoginWindow,
		cfg.AuthRate.LoginIPLimit,
		cfg.AuthRate.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRate.RegisterWindow,
		cfg.AuthRate.RegisterIPLimit,
		cfg.AuthRate.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg), middleware.Idempotency(redisClient, logg)).
			Post("/register", controllers.Register(svcs.Auth, logg))
	})

	// Public storefront catalog.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(svcs.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(svcs.Catalog, logg))
		r.Get("/{ref}", controllers.GetProduct(svcs.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svcs.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Patch("/items/{itemID}", controllers.UpdateCartItem(svcs.Cart, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(svcs.Cart, logg))
			r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(svcs.Address, logg))
			r.Post("/", controllers.CreateAddress(svcs.Address, logg))
			r.Put("/{addressID}", controllers.UpdateAddress(svcs.Address, logg))
			r.Delete("/{addressID}", controllers.DeleteAddress(svcs.Address, logg))
			r.Post("/{addressID}/default", controllers.SetDefaultAddress(svcs.Address, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.ListWishlist(svcs.Wishlist, logg))
			r.Post("/{productID}", controllers.AddWishlistItem(svcs.Wishlist, logg))
			r.Delete("/{productID}", controllers.RemoveWishlistItem(svcs.Wishlist, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/order", controllers.CreateOrder(svcs.Checkout, logg))
			r.Post("/gateway/create-order", controllers.CreateGatewayOrder(svcs.Checkout, logg))
			r.Post("/payment-success", controllers.PaymentSuccess(svcs.Payments, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{ref}", controllers.GetOrder(svcs.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
