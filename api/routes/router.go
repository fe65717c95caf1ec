package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/biscenic/commerce-backend/api/controllers"
	"github.com/biscenic/commerce-backend/api/middleware"
	"github.com/biscenic/commerce-backend/internal/cart"
	checkoutsvc "github.com/biscenic/commerce-backend/internal/checkout"
	"github.com/biscenic/commerce-backend/internal/collections"
	"github.com/biscenic/commerce-backend/internal/orders"
	"github.com/biscenic/commerce-backend/internal/products"
	"github.com/biscenic/commerce-backend/pkg/auth"
	"github.com/biscenic/commerce-backend/pkg/config"
	"github.com/biscenic/commerce-backend/pkg/flutterwave"
	"github.com/biscenic/commerce-backend/pkg/logger"
	"github.com/biscenic/commerce-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	sessionManager *auth.SessionManager,
	gatewayClient *flutterwave.Client,
	metricsRegistry *prometheus.Registry,
	cartService cart.Service,
	checkoutService checkoutsvc.SessionService,
	finalizer checkoutsvc.Finalizer,
	ordersService orders.Service,
	productsService products.Service,
	collectionsService collections.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Storefront),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisClient,
		}))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, cfg.Checkout, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(productsService, logg))
			r.Get("/{idOrSlug}", controllers.ProductsGet(productsService, logg))
		})
		r.Route("/collections", func(r chi.Router) {
			r.Get("/", controllers.CollectionsList(collectionsService, logg))
			r.Get("/{slug}", controllers.CollectionsGet(collectionsService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Post("/", controllers.CartAddItem(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Route("/session", func(r chi.Router) {
				r.Get("/", controllers.CheckoutSessionGet(checkoutService, logg))
				r.Patch("/", controllers.CheckoutSessionUpdate(checkoutService, logg))
				r.Post("/next", controllers.CheckoutNext(checkoutService, logg))
				r.Post("/previous", controllers.CheckoutPrevious(checkoutService, logg))
				r.Post("/goto", controllers.CheckoutGoTo(checkoutService, logg))
				r.Post("/reset", controllers.CheckoutReset(checkoutService, logg))
			})

			r.Post("/place-order", controllers.CheckoutPlaceOrder(finalizer, logg))
			r.Post("/pay", controllers.CheckoutPay(finalizer, logg))
			r.Get("/return", controllers.CheckoutReturn(finalizer, cfg.Storefront, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initialize", controllers.PaymentsInitialize(gatewayClient, cfg.Storefront, cfg.Checkout, logg))
			r.Get("/verify", controllers.PaymentsVerify(gatewayClient, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrdersCreate(ordersService, logg))
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrdersGet(ordersService, logg))
		})
	})

	return r
}
