package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/promotions/internal/api"
	"github.com/oakmart/promotions/internal/domain/auth"
	"github.com/oakmart/promotions/internal/domain/product"
	"github.com/oakmart/promotions/internal/domain/promotion"
	"github.com/oakmart/promotions/internal/repository"
)

type catalogJSON struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID string          `json:"categoryId"`
	ImageURL   string          `json:"imageUrl"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or PROMO_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PROMO_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("PROMO_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or PROMO_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("PROMO_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seeder := repository.NewSeeder(pool)

	if err := seedCatalog(ctx, seeder, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedPromotions(ctx, seeder); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	if err := seedAPIKey(ctx, seeder, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedCatalog(ctx context.Context, seeder *repository.Seeder, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting categories", slog.Int("count", len(catalog.Categories)))

	for _, c := range catalog.Categories {
		if err := seeder.UpsertCategory(ctx, c.ID, c.Name); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}
	}

	slog.Info("upserting products", slog.Int("count", len(catalog.Products)))

	for _, p := range catalog.Products {
		if err := seeder.UpsertProduct(ctx, product.Product{
			ID:         p.ID,
			Name:       p.Name,
			Price:      p.Price,
			CategoryID: p.CategoryID,
			ImageURL:   p.ImageURL,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedPromotions(ctx context.Context, seeder *repository.Seeder) error {
	slog.Info("seeding demo promotions")

	now := time.Now().UTC()
	year := now.AddDate(1, 0, 0)

	promos := []promotion.Promotion{
		{
			ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("promo:WELCOME10")).String(),
			Code:      "WELCOME10",
			Type:      promotion.TypePercentage,
			Value:     decimal.NewFromInt(10),
			Active:    true,
			StartDate: now,
			EndDate:   year,
			AppliesTo: promotion.ScopeAll,
		},
		{
			ID:                uuid.NewSHA1(uuid.NameSpaceOID, []byte("promo:SAVE25")).String(),
			Code:              "SAVE25",
			Type:              promotion.TypePercentage,
			Value:             decimal.NewFromInt(25),
			Active:            true,
			StartDate:         now,
			EndDate:           year,
			MinOrderValue:     decimal.NewFromInt(100),
			MaxDiscountAmount: decimal.NewFromInt(50),
			AppliesTo:         promotion.ScopeAll,
		},
		{
			ID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte("promo:FREESHIP")).String(),
			Code:          "FREESHIP",
			Type:          promotion.TypeFreeShipping,
			Active:        true,
			StartDate:     now,
			EndDate:       year,
			MinOrderValue: decimal.NewFromInt(50),
			AppliesTo:     promotion.ScopeAll,
		},
		{
			ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("promo:FLASH15")).String(),
			Code:           "FLASH15",
			Type:           promotion.TypeFixed,
			Value:          decimal.NewFromInt(15),
			Active:         true,
			StartDate:      now,
			EndDate:        now.AddDate(0, 0, 7),
			UsageLimit:     500,
			UserUsageLimit: 1,
			AppliesTo:      promotion.ScopeAll,
		},
	}

	for _, p := range promos {
		if err := seeder.UpsertPromotion(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", p.Code)
		}

		slog.Info("upserted promotion", slog.String("code", p.Code), slog.String("type", string(p.Type)))
	}

	return nil
}

func seedAPIKey(ctx context.Context, seeder *repository.Seeder, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	info := auth.APIKeyInfo{
		KeyHash: api.HashAPIKey(apiKey, []byte(pepper)),
		Name:    "Default test key",
		Scopes:  []string{"create_order"},
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("apikey:default")).String()

	if err := seeder.UpsertAPIKey(ctx, id, info, true); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("name", info.Name))

	return nil
}
