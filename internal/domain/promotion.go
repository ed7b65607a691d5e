package domain

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Condition types
const (
	ConditionMinAmount       = "min_amount"
	ConditionMinQuantity     = "min_quantity"
	ConditionSpecificProduct = "specific_product"
	ConditionCustomerTag     = "customer_tag"
)

// Action types
const (
	ActionPercentageOff = "percentage_off"
	ActionFixedOff      = "fixed_off"
)

type Condition struct {
	Type      string  `json:"type"`
	Threshold float64 `json:"threshold,omitempty"`
	// ProductIDs narrows min_quantity, or lists the products for specific_product.
	ProductIDs []string `json:"productIds,omitempty"`
	// VariantIDs makes specific_product strict: a line must match product and variant.
	VariantIDs []string `json:"variantIds,omitempty"`
	Tag        string   `json:"tag,omitempty"`
}

type Action struct {
	Type        string   `json:"type"`
	Value       float64  `json:"value"`
	MaxDiscount *float64 `json:"maxDiscount,omitempty"`
}

type Promotion struct {
	ID                        string          `json:"id"`
	Name                      string          `json:"name"`
	Priority                  int             `json:"priority"` // higher evaluated first
	Stackable                 bool            `json:"stackable"`
	IsActive                  bool            `json:"isActive"`
	StartDate                 *time.Time      `json:"startDate"`
	EndDate                   *time.Time      `json:"endDate"`
	Conditions                []Condition     `json:"conditions"`
	Actions                   []Action        `json:"actions"`
	ApplicableProductVariants []VariantTarget `json:"applicableProductVariants"`
	IsDeleted                 bool            `json:"-"`
}

// EligiblePromotion is a promotion that passed every condition with a positive discount.
type EligiblePromotion struct {
	PromotionID string  `json:"promotionId"`
	Name        string  `json:"name"`
	Priority    int     `json:"priority"`
	Stackable   bool    `json:"stackable"`
	Discount    float64 `json:"discount"`
}

type ResolutionKind int

const (
	ResolutionNone ResolutionKind = iota
	ResolutionSingle
	ResolutionStacked
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionSingle:
		return "single"
	case ResolutionStacked:
		return "stacked"
	default:
		return "none"
	}
}

// Resolution is the applied outcome of stacking. Build it with NoResolution,
// SingleResolution or StackedResolution.
type Resolution struct {
	kind    ResolutionKind
	applied []EligiblePromotion
}

func NoResolution() Resolution {
	return Resolution{kind: ResolutionNone}
}

func SingleResolution(p EligiblePromotion) Resolution {
	return Resolution{kind: ResolutionSingle, applied: []EligiblePromotion{p}}
}

func StackedResolution(ps []EligiblePromotion) Resolution {
	if len(ps) == 0 {
		return NoResolution()
	}
	applied := make([]EligiblePromotion, len(ps))
	copy(applied, ps)
	return Resolution{kind: ResolutionStacked, applied: applied}
}

func (r Resolution) Kind() ResolutionKind { return r.kind }

func (r Resolution) Applied() []EligiblePromotion {
	out := make([]EligiblePromotion, len(r.applied))
	copy(out, r.applied)
	return out
}

func (r Resolution) Discount() float64 {
	var total float64
	for _, p := range r.applied {
		total += p.Discount
	}
	return total
}

func (r Resolution) PromotionIDs() []string {
	ids := make([]string, 0, len(r.applied))
	for _, p := range r.applied {
		ids = append(ids, p.PromotionID)
	}
	return ids
}

func (r Resolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       string              `json:"kind"`
		Promotions []EligiblePromotion `json:"promotions"`
		Discount   float64             `json:"discount"`
	}{
		Kind:       r.kind.String(),
		Promotions: r.Applied(),
		Discount:   r.Discount(),
	})
}

type PromotionRepository interface {
	// ListActivePromotions returns active, non-tombstoned promotions.
	ListActivePromotions(ctx context.Context) ([]Promotion, error)
}
