package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/furnhaus/furnhaus-backend/api/controllers"
	webhookcontrollers "github.com/furnhaus/furnhaus-backend/api/controllers/webhooks"
	"github.com/furnhaus/furnhaus-backend/api/middleware"
	cartsvc "github.com/furnhaus/furnhaus-backend/internal/cart"
	checkoutsvc "github.com/furnhaus/furnhaus-backend/internal/checkout"
	"github.com/furnhaus/furnhaus-backend/internal/notifications"
	ordersvc "github.com/furnhaus/furnhaus-backend/internal/orders"
	paymentsvc "github.com/furnhaus/furnhaus-backend/internal/payments"
	refundsvc "github.com/furnhaus/furnhaus-backend/internal/refunds"
	stripewebhook "github.com/furnhaus/furnhaus-backend/internal/webhooks/stripe"
	"github.com/furnhaus/furnhaus-backend/pkg/auth"
	"github.com/furnhaus/furnhaus-backend/pkg/config"
	"github.com/furnhaus/furnhaus-backend/pkg/db"
	"github.com/furnhaus/furnhaus-backend/pkg/logger"
	"github.com/furnhaus/furnhaus-backend/pkg/redis"
	pkgstripe "github.com/furnhaus/furnhaus-backend/pkg/stripe"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   redis.Pinger
	Metrics prometheus.Gatherer

	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	PaymentsService paymentsvc.Service
	OrdersService   ordersvc.Service
	RefundsService  refundsvc.Service
	Notifications   notifications.Repository

	StripeClient       *pkgstripe.Client
	StripeWebhookSvc   *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhookSvc, deps.StripeClient, deps.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, auth.RoleCustomer))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(deps.CartService, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.CartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.CartService, logg))
				r.Delete("/", controllers.CartClear(deps.CartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.CheckoutService, deps.PaymentsService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(deps.OrdersService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))
				r.Patch("/{orderId}/cancel", controllers.CancelOrder(deps.OrdersService, logg))
				r.Post("/{orderId}/payment", controllers.InitiatePayment(deps.PaymentsService, logg))
				r.Get("/{orderId}/payment", controllers.PaymentStatus(deps.PaymentsService, logg))
			})

			r.Get("/notifications", controllers.CustomerNotifications(deps.Notifications, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, auth.RoleVendor))
				r.Get("/orders", controllers.VendorListOrders(deps.OrdersService, logg))
				r.Patch("/orders/{orderId}/status", controllers.VendorUpdateOrderStatus(deps.OrdersService, logg))
				r.Get("/notifications", controllers.VendorNotifications(deps.Notifications, logg))
			})
			r.With(middleware.RequireRole(logg, auth.RoleVendor, auth.RoleAdmin)).
				Post("/orders/{orderId}/refund", controllers.RefundOrder(deps.RefundsService, logg))
		})
	})

	return r
}
