package usecase

import (
	"settlement-engine/internal/domain"
	"settlement-engine/pkg/money"
)

// percentageDiscount applies pct to base and caps it at maxDiscount when set.
func percentageDiscount(base, pct float64, maxDiscount *float64) float64 {
	d := money.Percent(base, pct)
	if maxDiscount != nil && d > *maxDiscount {
		d = *maxDiscount
	}
	return d
}

// actionDiscount evaluates a promotion action over the targeted subtotal.
// Fixed amounts are taken as configured, same as fixed coupons.
func actionDiscount(a domain.Action, base float64) float64 {
	switch a.Type {
	case domain.ActionPercentageOff:
		return percentageDiscount(base, a.Value, a.MaxDiscount)
	case domain.ActionFixedOff:
		return money.Round(a.Value)
	default:
		return 0
	}
}
