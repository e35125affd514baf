// Package router assembles the HTTP routes and middleware.
package router

import (
	"net/http"
	"time"

	"store-api/internal/handler"
	"store-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Products *handler.ProductHandler
	Baskets  *handler.BasketHandler
	Swish    *handler.SwishHandler
	Admin    *handler.AdminHandler
}

// Config holds router settings.
type Config struct {
	APIKey         string
	RequestTimeout time.Duration
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, cfg Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Products.GetAll)
		r.Get("/products/{slug}", h.Products.GetBySlug)

		r.Post("/baskets", h.Baskets.Create)
		r.Route("/baskets/{basketId}", func(r chi.Router) {
			r.Get("/", h.Baskets.Get)
			r.Delete("/", h.Baskets.Delete)
			r.Put("/items", h.Baskets.UpdateItem)
			r.Put("/items/remove", h.Baskets.RemoveItem)
			r.Put("/zone", h.Baskets.UpdateZone)
			r.Post("/checkout", h.Baskets.Checkout)
		})

		r.Get("/swish/payments/{swishId}", h.Swish.PaymentStatus)
		r.Post("/swish/callbacks/payment", h.Swish.PaymentCallback)
		r.Post("/swish/callbacks/refund", h.Swish.RefundCallback)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.APIKey, logger))

			r.Get("/orders", h.Admin.ListOrders)
			r.Get("/orders/{orderId}", h.Admin.GetOrder)
			r.Put("/orders/{orderId}/status", h.Admin.SetStatus)
			r.Post("/orders/{orderId}/refunds", h.Admin.RequestRefund)
			r.Get("/refunds/{refundId}", h.Admin.CheckRefund)
		})
	})

	return r
}
