package promotion

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EligibleSubtotal determines whether the promotion's scope covers any item
// in the cart and returns the subtotal of only the covered items.
//
// Product and category identifiers are normalized to a canonical string form
// before comparison, so ids that arrive with surrounding whitespace or in a
// different case still match. ScopeAll always applies, even to an empty cart
// (yielding a zero subtotal).
func EligibleSubtotal(p *Promotion, items []CartItem) (applies bool, subtotal decimal.Decimal) {
	subtotal = decimal.Zero

	switch p.AppliesTo {
	case ScopeProducts:
		wanted := normalizeIDSet(p.ApplicableProducts)
		for _, item := range items {
			if _, ok := wanted[normalizeID(item.ProductID)]; ok {
				applies = true
				subtotal = subtotal.Add(lineTotal(item))
			}
		}
		return applies, subtotal

	case ScopeCategories:
		wanted := normalizeIDSet(p.ApplicableCategories)
		for _, item := range items {
			if _, ok := wanted[normalizeID(item.CategoryID)]; ok {
				applies = true
				subtotal = subtotal.Add(lineTotal(item))
			}
		}
		return applies, subtotal

	default:
		// ScopeAll, and the safe fallback for unknown scopes coming from
		// older records.
		for _, item := range items {
			subtotal = subtotal.Add(lineTotal(item))
		}
		return true, subtotal
	}
}

func lineTotal(item CartItem) decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// normalizeID converts an identifier to its canonical comparison form.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeIDSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if n := normalizeID(id); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
