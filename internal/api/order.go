package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/oakmart/promotions/internal/domain/order"
)

// placeOrderRequest is the body of POST /api/orders.
type placeOrderRequest struct {
	Items     []placeOrderItem `json:"items"`
	PromoCode string           `json:"promoCode,omitempty"`
	UserID    string           `json:"userId,omitempty"`
}

type placeOrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrder places an order, re-validating any promotion code against
// current state before committing.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.Item{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Items:     items,
		PromoCode: req.PromoCode,
		UserID:    req.UserID,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		o := result.Order
		e.ObjStart()
		e.FieldStart("id")
		e.Str(o.ID)
		e.FieldStart("items")
		e.ArrStart()
		for _, item := range o.Items {
			e.ObjStart()
			e.FieldStart("productId")
			e.Str(item.ProductID)
			e.FieldStart("quantity")
			e.Int(item.Quantity)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range result.Products {
			encodeProduct(e, p)
		}
		e.ArrEnd()
		e.FieldStart("subtotal")
		e.Float64(o.Subtotal.InexactFloat64())
		e.FieldStart("discount")
		e.Float64(o.Discount.InexactFloat64())
		e.FieldStart("total")
		e.Float64(o.Total.InexactFloat64())
		if o.PromoCode != "" {
			e.FieldStart("promoCode")
			e.Str(o.PromoCode)
		}
		e.FieldStart("freeShipping")
		e.Bool(o.FreeShipping)
		e.ObjEnd()
	})
}

// writeOrderError maps order placement failures onto HTTP statuses. Promotion
// rejections surface as 422 with the same user-facing message the validate
// endpoint produces, so clients render them identically.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, order.ErrEmptyItems) {
		writeError(w, http.StatusBadRequest, "items required")
		return
	}

	var qtyErr *order.InvalidQuantityError
	if errors.As(err, &qtyErr) {
		writeError(w, http.StatusUnprocessableEntity, qtyErr.Error())
		return
	}

	var notFoundErr *order.ProductNotFoundError
	if errors.As(err, &notFoundErr) {
		writeError(w, http.StatusUnprocessableEntity, notFoundErr.Error())
		return
	}

	if msg, ok := rejectionMessage(err); ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	writeInternalError(w, r, errors.Wrap(err, "place order"))
}
