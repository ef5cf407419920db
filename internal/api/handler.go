// Package api exposes the storefront HTTP surface: promotion validation,
// the product catalog, and order placement.
package api

import (
	"net/http"

	"github.com/oakmart/promotions/internal/domain/order"
	"github.com/oakmart/promotions/internal/domain/product"
	"github.com/oakmart/promotions/internal/domain/promotion"
	"github.com/oakmart/promotions/pkg/httpmiddleware"
)

// Handler serves the storefront API, delegating business logic to the
// injected domain services.
type Handler struct {
	promotions promotion.Validator
	products   product.Repository
	orders     *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	promotions promotion.Validator,
	products product.Repository,
	orders *order.Service,
) *Handler {
	return &Handler{
		promotions: promotions,
		products:   products,
		orders:     orders,
	}
}

// Routes registers all API routes on mux. Order placement is guarded by the
// given auth middleware; validation and catalog reads are public.
func (h *Handler) Routes(mux *http.ServeMux, requireAuth httpmiddleware.Middleware) {
	mux.HandleFunc("POST /api/promotions/validate", h.ValidatePromotion)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{productID}", h.GetProduct)
	mux.Handle("POST /api/orders", requireAuth(http.HandlerFunc(h.PlaceOrder)))
}
