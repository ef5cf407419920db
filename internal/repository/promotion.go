package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oakmart/promotions/internal/domain/promotion"
)

const (
	getPromotionByCodeSQL = `SELECT id, code, type, value, active, start_date, end_date,
		min_order_value, max_discount_amount, usage_limit, used_count, user_usage_limit,
		applies_to, applicable_products, applicable_categories
		FROM promotions WHERE UPPER(code) = UPPER($1)`

	listPromotionCodesSQL = `SELECT code FROM promotions`
)

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// FindByCode looks up a promotion by its code (case-insensitive).
// Returns promotion.ErrInvalidCode when no matching promotion exists. The
// active flag is returned as-is; the evaluator decides what to do with it.
func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, getPromotionByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promotion by code %q: %w", code, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPromotion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promotion.ErrInvalidCode
		}
		return nil, fmt.Errorf("finding promotion by code %q: %w", code, err)
	}
	return &p, nil
}

// ListCodes returns every promotion code, used to warm the code filter.
func (r *PromotionRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listPromotionCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing promotion codes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var (
		p           promotion.Promotion
		typ         string
		scope       string
		value       decimal.Decimal
		minOrder    decimal.Decimal
		maxDiscount decimal.Decimal
		start       time.Time
		end         time.Time
		usageLimit  int32
		usedCount   int32
		userLimit   int32
	)
	err := row.Scan(
		&p.ID, &p.Code, &typ, &value, &p.Active, &start, &end,
		&minOrder, &maxDiscount, &usageLimit, &usedCount, &userLimit,
		&scope, &p.ApplicableProducts, &p.ApplicableCategories,
	)
	p.Type = promotion.Type(typ)
	p.AppliesTo = promotion.Scope(scope)
	p.Value = value
	p.MinOrderValue = minOrder
	p.MaxDiscountAmount = maxDiscount
	p.StartDate = start
	p.EndDate = end
	p.UsageLimit = int(usageLimit)
	p.UsedCount = int(usedCount)
	p.UserUsageLimit = int(userLimit)
	return p, err
}
