package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/promotions/internal/domain/auth"
	"github.com/oakmart/promotions/internal/domain/product"
	"github.com/oakmart/promotions/internal/domain/promotion"
)

const (
	upsertCategorySQL = `INSERT INTO categories (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	upsertProductSQL = `INSERT INTO products (id, name, price, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category_id = EXCLUDED.category_id,
			image_url = EXCLUDED.image_url`

	upsertPromotionSQL = `INSERT INTO promotions (id, code, type, value, active,
			start_date, end_date, min_order_value, max_discount_amount,
			usage_limit, user_usage_limit, applies_to,
			applicable_products, applicable_categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			active = EXCLUDED.active,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			min_order_value = EXCLUDED.min_order_value,
			max_discount_amount = EXCLUDED.max_discount_amount,
			usage_limit = EXCLUDED.usage_limit,
			user_usage_limit = EXCLUDED.user_usage_limit,
			applies_to = EXCLUDED.applies_to,
			applicable_products = EXCLUDED.applicable_products,
			applicable_categories = EXCLUDED.applicable_categories`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key_hash) DO UPDATE SET
			name = EXCLUDED.name,
			scopes = EXCLUDED.scopes,
			active = EXCLUDED.active`
)

// Seeder provides the write operations used by the seed and import tools.
// The serving path never needs these, so they live apart from the
// read-oriented repositories.
type Seeder struct {
	pool *pgxpool.Pool
}

// NewSeeder returns a Seeder that uses the given pool.
func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

// UpsertCategory inserts or updates a product category.
func (s *Seeder) UpsertCategory(ctx context.Context, id, name string) error {
	if _, err := s.pool.Exec(ctx, upsertCategorySQL, id, name); err != nil {
		return fmt.Errorf("upserting category %q: %w", id, err)
	}
	return nil
}

// UpsertProduct inserts or updates a catalog product.
func (s *Seeder) UpsertProduct(ctx context.Context, p product.Product) error {
	if _, err := s.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Price, p.CategoryID, p.ImageURL,
	); err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

// UpsertPromotion inserts or updates a promotion. The used_count column is
// deliberately left out of the update set so reseeding never resets
// redemption accounting.
func (s *Seeder) UpsertPromotion(ctx context.Context, p promotion.Promotion) error {
	if _, err := s.pool.Exec(ctx, upsertPromotionSQL, promotionUpsertArgs(p)...); err != nil {
		return fmt.Errorf("upserting promotion %q: %w", p.Code, err)
	}
	return nil
}

// UpsertPromotionBatch upserts many promotions in a single round trip,
// used by the bulk importer.
func (s *Seeder) UpsertPromotionBatch(ctx context.Context, promos []promotion.Promotion) error {
	batch := &pgx.Batch{}
	for _, p := range promos {
		batch.Queue(upsertPromotionSQL, promotionUpsertArgs(p)...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for _, p := range promos {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting promotion %q: %w", p.Code, err)
		}
	}
	return nil
}

// UpsertAPIKey inserts or updates an API key record.
func (s *Seeder) UpsertAPIKey(ctx context.Context, id string, info auth.APIKeyInfo, active bool) error {
	if _, err := s.pool.Exec(ctx, upsertAPIKeySQL,
		id, info.KeyHash, info.Name, info.Scopes, active,
	); err != nil {
		return fmt.Errorf("upserting api key %q: %w", info.Name, err)
	}
	return nil
}

func promotionUpsertArgs(p promotion.Promotion) []any {
	// The array columns are NOT NULL; a nil slice would arrive as NULL.
	products := p.ApplicableProducts
	if products == nil {
		products = []string{}
	}
	categories := p.ApplicableCategories
	if categories == nil {
		categories = []string{}
	}

	return []any{
		p.ID, p.Code, string(p.Type), p.Value, p.Active,
		p.StartDate, p.EndDate, p.MinOrderValue, p.MaxDiscountAmount,
		int32(p.UsageLimit), int32(p.UserUsageLimit), string(p.AppliesTo),
		products, categories,
	}
}
