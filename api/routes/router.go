package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modecraft/storefront-backend/api/controllers"
	"github.com/modecraft/storefront-backend/api/middleware"
	cartsvc "github.com/modecraft/storefront-backend/internal/cart"
	"github.com/modecraft/storefront-backend/internal/cartstore"
	checkoutsvc "github.com/modecraft/storefront-backend/internal/checkout"
	"github.com/modecraft/storefront-backend/internal/orders"
	"github.com/modecraft/storefront-backend/internal/products"
	"github.com/modecraft/storefront-backend/pkg/auth/session"
	"github.com/modecraft/storefront-backend/pkg/config"
	"github.com/modecraft/storefront-backend/pkg/db"
	"github.com/modecraft/storefront-backend/pkg/logger"
	"github.com/modecraft/storefront-backend/pkg/redis"
)

// Deps collects everything the router wires together.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	Sessions        *session.Manager
	CartStore       *cartstore.Store
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	ProductsRepo    *products.Repository
	OrdersRepo      *orders.Repository
	Registry        *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.CartStore))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.ProductsRepo, logg))
			r.Post("/", controllers.CreateProduct(deps.ProductsRepo, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.ProductsRepo, logg))
			r.Put("/{productId}", controllers.UpdateProduct(deps.ProductsRepo, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(deps.ProductsRepo, logg))
		})

		r.Get("/categories", controllers.ListCategories(deps.ProductsRepo, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(deps.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.CartService, logg))
				r.Delete("/", controllers.CartClear(deps.CartService, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
				r.Put("/items/{productId}", controllers.CartSetQuantity(deps.CartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.CartService, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.CheckoutBegin(deps.CheckoutService, logg))
				r.Get("/", controllers.CheckoutState(deps.CheckoutService, logg))
				r.Delete("/", controllers.CheckoutAbandon(deps.CheckoutService, logg))
				r.Post("/shipping", controllers.CheckoutShipping(deps.CheckoutService, logg))
				r.Post("/back", controllers.CheckoutBack(deps.CheckoutService, logg))
				r.Post("/payment", controllers.CheckoutPayment(deps.CheckoutService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersRecent(deps.OrdersRepo, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersRepo, logg))
			r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(deps.OrdersRepo, logg))
		})
	})

	return r
}
