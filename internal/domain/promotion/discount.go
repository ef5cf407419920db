package promotion

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount calculates the monetary discount for a promotion type
// against an eligible subtotal, then applies the promotion's cap.
//
// A zero maxDiscount means uncapped: the cap is applied only when
// maxDiscount is strictly positive. A fixed discount is additionally clamped
// to the eligible subtotal itself, independent of the cap. Free-shipping
// promotions always yield a zero monetary discount; the shipping effect is
// reported separately by the evaluator.
//
// The result is rounded half-up to 2 decimal places and never negative.
func ComputeDiscount(typ Type, value, maxDiscount, eligibleSubtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal

	switch typ {
	case TypePercentage:
		amount = eligibleSubtotal.Mul(value).Div(hundred)
	case TypeFixed:
		amount = decimal.Min(value, eligibleSubtotal)
	case TypeFreeShipping:
		return decimal.Zero
	default:
		return decimal.Zero
	}

	// maxDiscount == 0 means uncapped. Comparing before checking the
	// sentinel would zero out every uncapped discount.
	if maxDiscount.IsPositive() && amount.GreaterThan(maxDiscount) {
		amount = maxDiscount
	}

	return floorAtZero(amount).Round(2)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
