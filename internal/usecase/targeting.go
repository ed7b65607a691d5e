package usecase

import (
	"settlement-engine/internal/domain"
	"settlement-engine/pkg/money"
)

// matchesTarget reports whether a single line falls under the target.
func matchesTarget(item domain.CartItem, t domain.VariantTarget) bool {
	if item.ProductID != t.ProductID {
		return false
	}
	if t.VariantMode != domain.VariantModeSpecific {
		return true
	}
	return containsString(t.VariantIDs, item.Variant())
}

// matchesAnyTarget reports whether the line is covered by at least one target.
func matchesAnyTarget(item domain.CartItem, targets []domain.VariantTarget) bool {
	for _, t := range targets {
		if matchesTarget(item, t) {
			return true
		}
	}
	return false
}

// variantEligible is true when any target is satisfied by any line.
func variantEligible(items []domain.CartItem, targets []domain.VariantTarget) bool {
	for _, t := range targets {
		for _, item := range items {
			if matchesTarget(item, t) {
				return true
			}
		}
	}
	return false
}

func lineTotal(item domain.CartItem) float64 {
	return money.Mul(item.Price, item.Quantity)
}

func subtotalOf(items []domain.CartItem) float64 {
	amounts := make([]float64, 0, len(items))
	for _, item := range items {
		amounts = append(amounts, lineTotal(item))
	}
	return money.Sum(amounts...)
}

func totalQuantity(items []domain.CartItem) int {
	var qty int
	for _, item := range items {
		qty += item.Quantity
	}
	return qty
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if containsString(b, v) {
			return true
		}
	}
	return false
}
