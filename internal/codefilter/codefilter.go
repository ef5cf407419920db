// Package codefilter keeps an in-memory bloom filter of known promotion
// codes so that lookups for codes that definitely do not exist can be
// rejected without a database roundtrip. Promotion code fields are a popular
// target for brute-force guessing; the filter absorbs that traffic.
package codefilter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/oakmart/promotions/internal/domain/promotion"
)

// CodeLister enumerates every known promotion code, used to warm the filter.
type CodeLister interface {
	ListCodes(ctx context.Context) ([]string, error)
}

// Filter is a concurrency-safe bloom filter over normalized promotion codes.
// False positives fall through to the underlying repository, so the filter
// can only ever save work, never change behavior. Rewarm replaces the filter
// wholesale, which also handles deleted codes.
type Filter struct {
	capacity uint
	fpRate   float64

	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// New creates a Filter sized for the expected number of codes.
func New(capacity uint, fpRate float64) *Filter {
	return &Filter{
		capacity: capacity,
		fpRate:   fpRate,
		bf:       bloom.NewWithEstimates(capacity, fpRate),
	}
}

// Warm rebuilds the filter from the full code listing.
func (f *Filter) Warm(ctx context.Context, lister CodeLister) error {
	codes, err := lister.ListCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list codes")
	}

	bf := bloom.NewWithEstimates(f.capacity, f.fpRate)
	for _, code := range codes {
		bf.AddString(normalize(code))
	}

	f.mu.Lock()
	f.bf = bf
	f.mu.Unlock()
	return nil
}

// Add records a single code, for callers that create codes after warming.
func (f *Filter) Add(code string) {
	f.mu.Lock()
	f.bf.AddString(normalize(code))
	f.mu.Unlock()
}

// MayContain reports whether code could be a known promotion code.
// A false return is definitive; a true return must be confirmed by lookup.
func (f *Filter) MayContain(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(normalize(code))
}

// RewarmEvery rebuilds the filter on a fixed interval until ctx is canceled,
// picking up codes created by the admin flow or the bulk importer.
func (f *Filter) RewarmEvery(ctx context.Context, interval time.Duration, lister CodeLister) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Warm(ctx, lister); err != nil {
				zctx.From(ctx).Warn("Rewarm code filter", zap.Error(err))
			}
		}
	}
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GuardedRepository wraps a promotion.Repository with a filter pre-check.
type GuardedRepository struct {
	inner  promotion.Repository
	filter *Filter
}

var _ promotion.Repository = (*GuardedRepository)(nil)

// Guard wraps repo so that definite-miss codes short-circuit with
// promotion.ErrInvalidCode.
//
// The guard is only as fresh as the filter: a code inserted after the last
// Warm is rejected until the next rewarm. Any path that creates codes while
// the server is running must call Filter.Add, or accept a staleness window
// of up to the rewarm interval.
func Guard(repo promotion.Repository, filter *Filter) *GuardedRepository {
	return &GuardedRepository{inner: repo, filter: filter}
}

// FindByCode consults the filter before delegating to the wrapped repository.
func (r *GuardedRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	if !r.filter.MayContain(code) {
		return nil, promotion.ErrInvalidCode
	}
	return r.inner.FindByCode(ctx, code)
}
