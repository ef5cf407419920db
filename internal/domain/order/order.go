package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a completed customer order with pricing and discount details.
type Order struct {
	ID           string
	UserID       string
	Items        []Item
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
	PromoCode    string
	PromotionID  string
	FreeShipping bool
	CreatedAt    time.Time
}

// Item represents a single line item in an order.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Repository defines persistence operations for orders.
//
// When an order carries a PromotionID, Create must persist the order and the
// redemption in one transaction, incrementing the promotion's usage counter
// with a conditional update and re-checking the per-user cap on the
// redemption insert. A global counter already at its limit aborts the whole
// transaction with promotion.ErrUsageLimitReached, and a user already at
// their cap aborts it with promotion.ErrUserLimitReached, so two concurrent
// checkouts can never both consume a last slot.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
