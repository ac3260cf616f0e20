package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Logger         zerolog.Logger
	JWTSecret      string
	RequestTimeout time.Duration
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready    func(ctx context.Context) error
	Gatherer prometheus.Gatherer

	Orders  *OrdersHandler
	Cart    *CartHandler
	Catalog *CatalogHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware(cfg.JWTSecret))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Ready(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
				respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", cfg.Catalog.ListProducts)
		r.Route("/regions", func(r chi.Router) {
			r.Get("/", cfg.Catalog.ListRegions)
			r.Get("/shipping-cost", cfg.Catalog.ShippingCost)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireBuyer)

			r.Post("/checkout", cfg.Orders.Checkout)
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", cfg.Orders.ListOrders)
				r.Get("/{order_id}", cfg.Orders.GetOrder)
				r.Post("/{order_id}/pay", cfg.Orders.Pay)
				r.Post("/{order_id}/complete", cfg.Orders.ConfirmReceipt)
				r.Post("/{order_id}/cancel", cfg.Orders.CancelOwn)
			})
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.Cart.GetCart)
				r.Delete("/", cfg.Cart.ClearCart)
				r.Post("/items", cfg.Cart.AddItem)
				r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
			})
		})

		r.Route("/seller/orders", func(r chi.Router) {
			r.Use(RequireSeller)

			r.Get("/", cfg.Orders.ListSellerOrders)
			r.Post("/{order_id}/accept", cfg.Orders.Accept)
			r.Post("/{order_id}/ship", cfg.Orders.Ship)
			r.Post("/{order_id}/complete", cfg.Orders.Complete)
			r.Post("/{order_id}/cancel", cfg.Orders.Cancel)
		})
	})

	return otelhttp.NewHandler(r, "seasnacky-api")
}
