package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported promotion discount strategies.
type Type string

const (
	// TypePercentage discounts a percentage of the eligible subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed discounts a fixed amount, capped at the eligible subtotal.
	TypeFixed Type = "fixed"
	// TypeFreeShipping waives shipping; the monetary discount is always zero.
	TypeFreeShipping Type = "free_shipping"
)

// Scope enumerates what part of the cart a promotion applies to.
type Scope string

const (
	// ScopeAll applies the promotion to every item in the cart.
	ScopeAll Scope = "all"
	// ScopeProducts restricts the promotion to an explicit product set.
	ScopeProducts Scope = "products"
	// ScopeCategories restricts the promotion to an explicit category set.
	ScopeCategories Scope = "categories"
)

// Validation failures carry the exact strings shown to customers; the
// storefront displays them verbatim.
var (
	// ErrInvalidCode is returned when a code does not exist or the
	// promotion has been switched off by an administrator.
	ErrInvalidCode = errors.New("Invalid or inactive promotion code")
	// ErrExpired is returned when the current time falls outside the
	// promotion's validity window. Not-yet-started promotions report the
	// same message as ended ones.
	ErrExpired = errors.New("Promotion code has expired")
	// ErrUsageLimitReached is returned when the promotion has exhausted
	// its global redemption cap.
	ErrUsageLimitReached = errors.New("Promotion usage limit reached")
	// ErrUserLimitReached is returned when the requesting user is at
	// their per-user redemption cap.
	ErrUserLimitReached = errors.New("You have reached the usage limit for this promotion code")
	// ErrNotApplicable is returned when the promotion's scope matches no
	// item in the cart.
	ErrNotApplicable = errors.New("Promotion is not applicable to items in your cart")
)

// MinOrderError is returned when the cart subtotal is below the
// promotion's minimum order value.
type MinOrderError struct {
	Min decimal.Decimal
}

func (e *MinOrderError) Error() string {
	return fmt.Sprintf("Minimum order value of %s required", e.Min.StringFixed(2))
}

// Promotion is an administrator-defined discount rule, identified by a
// redeemable code. The zero value of MinOrderValue, MaxDiscountAmount,
// UsageLimit, and UserUsageLimit means "no bound".
type Promotion struct {
	ID        string
	Code      string
	Type      Type
	Value     decimal.Decimal
	Active    bool
	StartDate time.Time
	EndDate   time.Time

	MinOrderValue     decimal.Decimal
	MaxDiscountAmount decimal.Decimal

	UsageLimit     int
	UsedCount      int
	UserUsageLimit int

	AppliesTo            Scope
	ApplicableProducts   []string
	ApplicableCategories []string
}

// CartItem is a cart line item as seen by the evaluation engine.
type CartItem struct {
	ProductID  string
	CategoryID string
	Price      decimal.Decimal
	Quantity   int
}

// Cart is a read-only snapshot of the customer's cart. ItemsPrice is the
// caller's precomputed subtotal; the engine recomputes totals from Items
// and never trusts this field for discount math.
type Cart struct {
	Items      []CartItem
	ItemsPrice decimal.Decimal
}

// Subtotal returns the sum of price * quantity across all cart items.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// Result is a successful validation outcome.
type Result struct {
	Discount     decimal.Decimal
	FreeShipping bool
	Promotion    *Promotion
}

// Repository provides read-only lookup of promotions.
type Repository interface {
	// FindByCode returns the promotion matching code, compared
	// case-insensitively. Returns ErrInvalidCode when no promotion exists.
	FindByCode(ctx context.Context, code string) (*Promotion, error)
}

// UsageCounter counts completed redemptions per user. Counts reflect
// committed orders only; in-flight validations are never recorded.
type UsageCounter interface {
	CountRedemptionsForUser(ctx context.Context, promotionID, userID string) (int, error)
}
