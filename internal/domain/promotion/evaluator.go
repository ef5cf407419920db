package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator validates a promotion code against a cart snapshot and returns
// the computed discount.
type Validator interface {
	Validate(ctx context.Context, code string, cart Cart, userID string) (*Result, error)
}

// Evaluator implements Validator by composing the eligibility checks in a
// fixed order so the first failing check short-circuits with a specific,
// user-facing error. Validation is read-only and advisory: it never consumes
// a redemption slot, and a concurrent checkout can still lose the race for
// the last slot. The order-commit path re-checks caps atomically.
type Evaluator struct {
	repo  Repository
	usage UsageCounter
	now   func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given collaborators.
func NewEvaluator(repo Repository, usage UsageCounter) *Evaluator {
	return &Evaluator{repo: repo, usage: usage, now: time.Now}
}

// Validate checks code against cart for the optionally identified user.
//
// Check order: lookup and active flag, validity window, minimum order value,
// global usage cap, per-user usage cap, scope eligibility, discount
// computation. The minimum order value gates on the whole cart subtotal;
// only the discount itself is computed from the scoped eligible subtotal.
func (e *Evaluator) Validate(ctx context.Context, code string, cart Cart, userID string) (*Result, error) {
	p, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup promotion")
	}
	if !p.Active {
		return nil, ErrInvalidCode
	}

	now := e.now()
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return nil, ErrExpired
	}

	if p.MinOrderValue.IsPositive() && cart.Subtotal().LessThan(p.MinOrderValue) {
		return nil, &MinOrderError{Min: p.MinOrderValue}
	}

	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	if p.UserUsageLimit > 0 && userID != "" {
		used, err := e.usage.CountRedemptionsForUser(ctx, p.ID, userID)
		if err != nil {
			return nil, errors.Wrap(err, "count user redemptions")
		}
		if used >= p.UserUsageLimit {
			return nil, ErrUserLimitReached
		}
	}

	applies, eligible := EligibleSubtotal(p, cart.Items)
	if !applies {
		return nil, ErrNotApplicable
	}

	return &Result{
		Discount:     ComputeDiscount(p.Type, p.Value, p.MaxDiscountAmount, eligible),
		FreeShipping: p.Type == TypeFreeShipping,
		Promotion:    p,
	}, nil
}
