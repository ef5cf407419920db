package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/oakmart/promotions/internal/domain/promotion"
)

// validateRequest is the body of POST /api/promotions/validate.
type validateRequest struct {
	Code   string               `json:"code"`
	UserID string               `json:"userId,omitempty"`
	Cart   validateCartSnapshot `json:"cart"`
}

type validateCartSnapshot struct {
	Items      []validateCartItem `json:"items"`
	ItemsPrice decimal.Decimal    `json:"itemsPrice,omitempty"`
}

type validateCartItem struct {
	ProductID  string          `json:"productId"`
	CategoryID string          `json:"categoryId"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// ValidatePromotion validates a promotion code against a cart snapshot.
// Every outcome is reported as a structured result body: rejected codes get
// {"success": false, "error": ...} with HTTP 200, so storefront clients
// branch on the success flag rather than on status codes.
func (h *Handler) ValidatePromotion(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	cart := promotion.Cart{
		Items:      make([]promotion.CartItem, len(req.Cart.Items)),
		ItemsPrice: req.Cart.ItemsPrice,
	}
	for i, item := range req.Cart.Items {
		cart.Items[i] = promotion.CartItem{
			ProductID:  item.ProductID,
			CategoryID: item.CategoryID,
			Price:      item.Price,
			Quantity:   item.Quantity,
		}
	}

	result, err := h.promotions.Validate(r.Context(), req.Code, cart, req.UserID)
	labeler, _ := otelhttp.LabelerFromContext(r.Context())
	labeler.Add(attribute.Bool("promotion.valid", err == nil))
	if err != nil {
		if msg, ok := rejectionMessage(err); ok {
			writeValidationFailure(w, http.StatusOK, msg)
			return
		}
		// Collaborator failure: log the detail, keep the body generic.
		writeInternalValidationFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)
		e.FieldStart("discount")
		e.Float64(result.Discount.InexactFloat64())
		e.FieldStart("freeShipping")
		e.Bool(result.FreeShipping)
		e.FieldStart("promotion")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(result.Promotion.ID)
		e.FieldStart("code")
		e.Str(result.Promotion.Code)
		e.FieldStart("type")
		e.Str(string(result.Promotion.Type))
		e.ObjEnd()
		e.ObjEnd()
	})
}

// rejectionMessage maps a validation error to its user-facing message.
// Unknown errors are infrastructure failures and return ok=false.
func rejectionMessage(err error) (string, bool) {
	for _, sentinel := range []error{
		promotion.ErrInvalidCode,
		promotion.ErrExpired,
		promotion.ErrUsageLimitReached,
		promotion.ErrUserLimitReached,
		promotion.ErrNotApplicable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}

	var moErr *promotion.MinOrderError
	if errors.As(err, &moErr) {
		return moErr.Error(), true
	}

	return "", false
}

func writeValidationFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(false)
		e.FieldStart("error")
		e.Str(msg)
		e.ObjEnd()
	})
}

func writeInternalValidationFailure(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Validate promotion", zap.Error(err))
	writeValidationFailure(w, http.StatusInternalServerError, "Unable to validate promotion code")
}
