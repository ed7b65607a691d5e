package usecase

import (
	"math"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/money"
)

// ShippingCalculator prices freight by cart weight. It is pure: the active
// rules are passed in by the caller.
type ShippingCalculator struct {
	legacySingle  float64
	legacyMulti   float64
	defaultWeight float64
}

func NewShippingCalculator(legacySingle, legacyMulti, defaultWeight float64) *ShippingCalculator {
	if defaultWeight <= 0 {
		defaultWeight = 1.0
	}
	return &ShippingCalculator{
		legacySingle:  legacySingle,
		legacyMulti:   legacyMulti,
		defaultWeight: defaultWeight,
	}
}

// CartWeight sums weight x quantity, using the default weight for lines
// the catalog has no weight for.
func (c *ShippingCalculator) CartWeight(items []domain.CartItem) float64 {
	var w float64
	for _, item := range items {
		unit := item.Weight
		if unit <= 0 {
			unit = c.defaultWeight
		}
		w += unit * float64(item.Quantity)
	}
	// grams precision, so 0.1*3 does not spill into the next kg
	return math.Round(w*1000) / 1000
}

// Fee returns the shipping cost for weight. Inactive rules are ignored.
// With no active rules the legacy flat table is used, keyed on how many
// units are in the cart.
func (c *ShippingCalculator) Fee(weight float64, itemCount int, rules []domain.ShippingRule) float64 {
	var (
		matched *domain.ShippingRule
		widest  *domain.ShippingRule
	)
	for i := range rules {
		r := &rules[i]
		if !r.IsActive {
			continue
		}
		if matched == nil && weight >= r.MinWeight && weight < r.MaxWeight {
			matched = r
		}
		if widest == nil || r.MaxWeight > widest.MaxWeight {
			widest = r
		}
	}

	switch {
	case matched != nil:
		return ruleCost(*matched, weight)
	case widest != nil:
		// heavier than every band: price with the top band
		return ruleCost(*widest, weight)
	}

	switch {
	case itemCount <= 0:
		return 0
	case itemCount == 1:
		return c.legacySingle
	default:
		return c.legacyMulti
	}
}

// Quote is CartWeight followed by Fee.
func (c *ShippingCalculator) Quote(items []domain.CartItem, rules []domain.ShippingRule) (fee, weight float64) {
	weight = c.CartWeight(items)
	return c.Fee(weight, totalQuantity(items), rules), weight
}

func ruleCost(r domain.ShippingRule, weight float64) float64 {
	if !r.IsIncremental {
		return r.Rate
	}
	extra := math.Ceil(math.Max(0, weight-r.BaseWeight))
	return money.Sum(r.Rate, extra*r.PerKgRate)
}
