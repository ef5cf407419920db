package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/promotions/internal/domain/product"
	"github.com/oakmart/promotions/internal/domain/promotion"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems = fmt.Errorf("items required")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items     []Item
	PromoCode string
	UserID    string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order    *Order
	Products []product.Product
}

// Service encapsulates order placement business logic.
type Service struct {
	products   product.Repository
	promotions promotion.Validator
	orders     Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	promotions promotion.Validator,
	orders Repository,
) *Service {
	return &Service{
		products:   products,
		promotions: promotions,
		orders:     orders,
	}
}

// PlaceOrder validates items, fetches products in a single batch, re-validates
// the promotion code at commit time, and persists the order together with its
// redemption record.
//
// Any earlier pre-flight validation the storefront performed is advisory:
// the promotion snapshot it saw may be stale, so PlaceOrder always re-runs
// validation against current state before committing.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Validate quantities and collect product IDs.
	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	// Verify every requested product was found and build the cart snapshot.
	products := make([]product.Product, 0, len(req.Items))
	cartItems := make([]promotion.CartItem, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		products = append(products, p)

		cartItems[i] = promotion.CartItem{
			ProductID:  p.ID,
			CategoryID: p.CategoryID,
			Price:      p.Price,
			Quantity:   item.Quantity,
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// Re-validate the promotion against current state.
	discount := decimal.Zero
	freeShipping := false
	promotionID := ""
	if req.PromoCode != "" {
		result, err := s.promotions.Validate(ctx, req.PromoCode,
			promotion.Cart{Items: cartItems, ItemsPrice: subtotal}, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("validate promotion: %w", err)
		}
		discount = result.Discount
		freeShipping = result.FreeShipping
		promotionID = result.Promotion.ID
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Items:        req.Items,
		Subtotal:     subtotal.Round(2),
		Discount:     discount.Round(2),
		Total:        total.Round(2),
		PromoCode:    req.PromoCode,
		PromotionID:  promotionID,
		FreeShipping: freeShipping,
	}
	// Create commits the order and the redemption atomically; a lost race
	// for the last redemption slot surfaces here, not silently at validate.
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &PlaceOrderResult{
		Order:    o,
		Products: products,
	}, nil
}
