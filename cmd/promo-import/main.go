package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/oakmart/promotions/internal/domain/promotion"
	"github.com/oakmart/promotions/internal/repository"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	batchSize     = 1000
	progressEvery = 1_000_000
	minCodeLen    = 4
	maxCodeLen    = 32
)

func main() {
	var (
		databaseURL string
		value       string
		validDays   int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&value, "percent", "10", "percentage discount applied to imported codes")
	flag.IntVar(&validDays, "valid-days", 30, "how long imported promotions stay valid")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("at least one codes file is required: promo-import [flags] codes1.gz [codes2.gz ...]")
		os.Exit(1)
	}

	percent, err := decimal.NewFromString(value)
	if err != nil {
		slog.Error("invalid --percent value", slog.String("value", value))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args(), percent, validDays); err != nil {
		slog.Error("promo import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, percent decimal.Decimal, validDays int) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	imp := &importer{
		seeder:    repository.NewSeeder(pool),
		seen:      bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		percent:   percent,
		validFrom: time.Now().UTC(),
		validDays: validDays,
	}

	// Files stream concurrently; the shared dedupe filter and the batch
	// buffer are guarded by the importer's mutex.
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(imp.importFile(ctx, f))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := imp.flush(ctx); err != nil {
		return errors.Wrap(err, "flush final batch")
	}

	slog.Info("imported promotions", slog.Uint64("total", imp.total))
	return nil
}

// importer accumulates deduplicated codes into batches and writes each full
// batch to the database. The bloom filter stands in for an exact seen-set:
// at a hundred million codes a map would not fit in memory, and a false
// positive only means one valid code gets skipped.
type importer struct {
	seeder    *repository.Seeder
	percent   decimal.Decimal
	validFrom time.Time
	validDays int

	mu    sync.Mutex
	seen  *bloom.BloomFilter
	batch []promotion.Promotion
	total uint64
}

func (imp *importer) importFile(ctx context.Context, path string) func() error {
	return func() error {
		var lines uint64

		err := streamGzFile(ctx, path, func(code string) error {
			lines++
			if lines%progressEvery == 0 {
				slog.Info("import progress", slog.String("file", path), slog.Uint64("lines", lines))
			}

			code = strings.ToUpper(strings.TrimSpace(code))
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return nil
			}
			return imp.add(ctx, code)
		})
		if err != nil {
			return errors.Wrapf(err, "import %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Uint64("lines", lines))
		return nil
	}
}

// add records one code, flushing a full batch inline so memory stays bounded
// no matter how large the input files are.
func (imp *importer) add(ctx context.Context, code string) error {
	imp.mu.Lock()
	if imp.seen.TestAndAddString(code) {
		imp.mu.Unlock()
		return nil
	}

	imp.batch = append(imp.batch, imp.promotionFor(code))
	imp.total++

	var full []promotion.Promotion
	if len(imp.batch) >= batchSize {
		full = imp.batch
		imp.batch = nil
	}
	imp.mu.Unlock()

	if full == nil {
		return nil
	}
	return imp.seeder.UpsertPromotionBatch(ctx, full)
}

func (imp *importer) flush(ctx context.Context) error {
	imp.mu.Lock()
	rest := imp.batch
	imp.batch = nil
	imp.mu.Unlock()

	if len(rest) == 0 {
		return nil
	}
	return imp.seeder.UpsertPromotionBatch(ctx, rest)
}

func (imp *importer) promotionFor(code string) promotion.Promotion {
	return promotion.Promotion{
		// Deterministic IDs keep re-imports idempotent under ON CONFLICT.
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("promo:"+code)).String(),
		Code:      code,
		Type:      promotion.TypePercentage,
		Value:     imp.percent,
		Active:    true,
		StartDate: imp.validFrom,
		EndDate:   imp.validFrom.AddDate(0, 0, imp.validDays),
		AppliesTo: promotion.ScopeAll,
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
