package usecase

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/money"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genEligible() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(domain.EligiblePromotion{}), map[string]gopter.Gen{
		"Priority":  gen.IntRange(0, 20),
		"Stackable": gen.Bool(),
		"Discount":  gen.Float64Range(1, 500),
	})).Map(func(ps []domain.EligiblePromotion) []domain.EligiblePromotion {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Priority > ps[j].Priority })
		for i := range ps {
			ps[i].PromotionID = fmt.Sprintf("P%d", i)
			ps[i].Discount = money.Round(ps[i].Discount)
		}
		return ps
	})
}

// TestResolveStackingProperties checks the stacking rules over random
// eligible lists already in evaluation order.
func TestResolveStackingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a non-stackable leader applies alone", prop.ForAll(
		func(ps []domain.EligiblePromotion) bool {
			if len(ps) == 0 || ps[0].Stackable {
				return true
			}
			res := ResolveStacking(ps)
			return res.Kind() == domain.ResolutionSingle && res.Discount() == ps[0].Discount
		},
		genEligible(),
	))

	properties.Property("a stackable leader sums every stackable entry", prop.ForAll(
		func(ps []domain.EligiblePromotion) bool {
			if len(ps) == 0 || !ps[0].Stackable {
				return true
			}
			var want []float64
			for _, p := range ps {
				if p.Stackable {
					want = append(want, p.Discount)
				}
			}
			res := ResolveStacking(ps)
			return res.Kind() == domain.ResolutionStacked && money.Within(res.Discount(), money.Sum(want...), 0.001)
		},
		genEligible(),
	))

	properties.Property("a stacked result never carries a non-stackable promotion", prop.ForAll(
		func(ps []domain.EligiblePromotion) bool {
			res := ResolveStacking(ps)
			if res.Kind() != domain.ResolutionStacked {
				return true
			}
			for _, p := range res.Applied() {
				if !p.Stackable {
					return false
				}
			}
			return true
		},
		genEligible(),
	))

	properties.Property("the applied discount never exceeds the eligible sum", prop.ForAll(
		func(ps []domain.EligiblePromotion) bool {
			var total float64
			for _, p := range ps {
				total += p.Discount
			}
			return ResolveStacking(ps).Discount() <= total+0.001
		},
		genEligible(),
	))

	properties.TestingRun(t)
}
