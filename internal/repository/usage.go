package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/promotions/internal/domain/promotion"
)

const countRedemptionsForUserSQL = `SELECT COUNT(*) FROM redemptions
	WHERE promotion_id = $1 AND user_id = $2`

var _ promotion.UsageCounter = (*UsageRepository)(nil)

// UsageRepository provides redemption counts backed by PostgreSQL.
type UsageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository returns a UsageRepository that uses the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// CountRedemptionsForUser counts completed redemptions of a promotion by one
// user. Only committed orders appear here; validation never writes.
func (r *UsageRepository) CountRedemptionsForUser(ctx context.Context, promotionID, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, countRedemptionsForUserSQL, promotionID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting redemptions for promotion %q user %q: %w", promotionID, userID, err)
	}
	return count, nil
}
