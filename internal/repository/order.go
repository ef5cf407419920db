package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/promotions/internal/domain/order"
	"github.com/oakmart/promotions/internal/domain/promotion"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, items, subtotal, discount, total, promo_code, free_shipping)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// The WHERE clause makes the increment conditional: when the counter is
	// already at the limit no row is updated and the transaction aborts.
	// The update also locks the promotion row, serializing concurrent
	// redemptions of the same promotion for the rest of the transaction.
	consumeRedemptionSlotSQL = `UPDATE promotions SET used_count = used_count + 1
	WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)`

	// Conditional on the per-user cap. This runs after the promotion row is
	// locked, so the redemption count reads committed state and two
	// same-user transactions cannot both slip under the limit.
	createRedemptionSQL = `INSERT INTO redemptions (id, promotion_id, order_id, user_id)
	SELECT $1, p.id, $3, $4
	FROM promotions p
	WHERE p.id = $2
	  AND (p.user_usage_limit = 0
	       OR $4 = ''
	       OR (SELECT COUNT(*) FROM redemptions r
	           WHERE r.promotion_id = p.id AND r.user_id = $4) < p.user_usage_limit)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. When the order carries a promotion, the
// redemption is committed in the same transaction: the usage counter is
// bumped with an increment-if-under-limit update, and the redemption row
// insert re-checks the per-user cap against committed redemptions. Losing
// the race for the last global slot rolls everything back with
// promotion.ErrUsageLimitReached; losing the per-user race returns
// promotion.ErrUserLimitReached.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, o.Subtotal, o.Discount, o.Total, o.PromoCode, o.FreeShipping,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if o.PromotionID != "" {
		tag, err := tx.Exec(ctx, consumeRedemptionSlotSQL, o.PromotionID)
		if err != nil {
			return fmt.Errorf("consuming redemption slot for promotion %q: %w", o.PromotionID, err)
		}
		if tag.RowsAffected() == 0 {
			return promotion.ErrUsageLimitReached
		}

		tag, err = tx.Exec(ctx, createRedemptionSQL,
			uuid.New().String(), o.PromotionID, o.ID, o.UserID,
		)
		if err != nil {
			return fmt.Errorf("recording redemption for order %q: %w", o.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return promotion.ErrUserLimitReached
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}
