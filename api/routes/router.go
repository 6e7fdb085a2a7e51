package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opticamarket/marketplace-backend/api/controllers"
	ordercontrollers "github.com/opticamarket/marketplace-backend/api/controllers/orders"
	webhookcontrollers "github.com/opticamarket/marketplace-backend/api/controllers/webhooks"
	"github.com/opticamarket/marketplace-backend/api/middleware"
	"github.com/opticamarket/marketplace-backend/internal/address"
	"github.com/opticamarket/marketplace-backend/internal/orders"
	products "github.com/opticamarket/marketplace-backend/internal/products"
	"github.com/opticamarket/marketplace-backend/internal/shipping"
	"github.com/opticamarket/marketplace-backend/pkg/config"
	"github.com/opticamarket/marketplace-backend/pkg/db"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
	"github.com/opticamarket/marketplace-backend/pkg/metrics"
	"github.com/opticamarket/marketplace-backend/pkg/redis"
)

// Observability carries the scrape endpoint and request metrics. Both are optional.
type Observability struct {
	Handler http.Handler
	HTTP    *metrics.HTTPMetrics
}

// PaymentServices groups the gateway-facing collaborators. Any of them may be nil when the
// gateway is not configured; the handlers then answer with an internal error.
type PaymentServices struct {
	Checkout ordercontrollers.CheckoutService
	Status   ordercontrollers.PaymentStatusService
	Webhook  webhookcontrollers.PaymentNotificationHandler
	Guard    webhookcontrollers.NotificationGuard
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	obs Observability,
	activeUsers middleware.ActiveUserChecker,
	productService products.Service,
	addressService address.Service,
	shippingService shipping.Service,
	ordersService orders.Service,
	paymentServices PaymentServices,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg, obs.HTTP),
		middleware.Recoverer(logg),
	)

	pingers := map[string]controllers.Pinger{}
	if dbP != nil {
		pingers["db"] = dbP
	}
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		pingers["redis"] = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if obs.Handler != nil {
		r.Handle("/metrics", obs.Handler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentWebhook(paymentServices.Webhook, paymentServices.Guard, cfg.Payments.WebhookSecret, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(productService, logg))
		r.Get("/{productId}", controllers.ProductDetail(productService, logg))
	})
	r.Post("/api/v1/shipping/quote", controllers.ShippingQuote(shippingService, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, activeUsers, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/v1/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(addressService, logg))
			r.Post("/", controllers.AddressCreate(addressService, logg))
			r.Post("/{addressId}/default", controllers.AddressSetDefault(addressService, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Post("/{orderId}/checkout", ordercontrollers.Checkout(paymentServices.Checkout, logg))
			r.Get("/{orderId}/payment", ordercontrollers.PaymentStatus(paymentServices.Status, logg))
			r.Post("/{orderId}/payment", ordercontrollers.RecordPayment(paymentServices.Status, logg))
		})

		r.Route("/v1/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleSeller, logg))
			r.Post("/products", controllers.ProductCreate(productService, logg))
			r.Get("/orders", ordercontrollers.SellerList(ordersService, logg))
			r.Patch("/orders/{orderId}/status", ordercontrollers.UpdateStatus(ordersService, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Post("/products", controllers.ProductCreate(productService, logg))
			r.Get("/orders", ordercontrollers.AdminList(ordersService, logg))
			r.Patch("/orders/{orderId}/status", ordercontrollers.UpdateStatus(ordersService, logg))
		})
	})

	return r
}
