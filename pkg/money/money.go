// Package money does currency arithmetic on decimals so that float64 amounts
// round to two places the same way everywhere.
package money

import "github.com/shopspring/decimal"

// Round rounds to two decimal places.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Percent returns pct percent of base.
func Percent(base, pct float64) float64 {
	return decimal.NewFromFloat(base).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

// Sum adds amounts without float drift.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// Mul multiplies a unit amount by a quantity.
func Mul(v float64, qty int) float64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(int64(qty))).Round(2).InexactFloat64()
}

// Within reports whether |a-b| <= tolerance.
func Within(a, b, tolerance float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tolerance))
}
