package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"settlement-engine/internal/domain"
)

// PromotionEngine matches promotions against a cart and resolves stacking.
type PromotionEngine struct {
	userRepo domain.UserRepository
	now      func() time.Time
}

func NewPromotionEngine(userRepo domain.UserRepository) *PromotionEngine {
	return &PromotionEngine{userRepo: userRepo, now: time.Now}
}

type PromotionInput struct {
	Items     []domain.CartItem
	CartTotal float64
	UserID    string
}

// Evaluate returns the eligible promotions in evaluation order (highest
// priority first). Ties keep the order the promotions were given in.
func (e *PromotionEngine) Evaluate(ctx context.Context, in PromotionInput, promotions []domain.Promotion) ([]domain.EligiblePromotion, error) {
	ordered := make([]domain.Promotion, len(promotions))
	copy(ordered, promotions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	user, err := e.resolveUser(ctx, in.UserID, ordered)
	if err != nil {
		return nil, err
	}

	now := e.now()
	eligible := make([]domain.EligiblePromotion, 0)
	for _, p := range ordered {
		if !p.IsActive || p.IsDeleted {
			continue
		}
		if p.StartDate != nil && now.Before(*p.StartDate) {
			continue
		}
		if p.EndDate != nil && now.After(*p.EndDate) {
			continue
		}
		if len(p.ApplicableProductVariants) > 0 && !variantEligible(in.Items, p.ApplicableProductVariants) {
			continue
		}
		if !conditionsMet(p, in, user) {
			continue
		}
		if len(p.Actions) == 0 {
			continue
		}

		base := subtotalOf(targetedLines(p, in.Items))
		discount := actionDiscount(p.Actions[0], base)
		if discount <= 0 {
			continue
		}
		eligible = append(eligible, domain.EligiblePromotion{
			PromotionID: p.ID,
			Name:        p.Name,
			Priority:    p.Priority,
			Stackable:   p.Stackable,
			Discount:    discount,
		})
	}
	return eligible, nil
}

// Apply evaluates and resolves in one call.
func (e *PromotionEngine) Apply(ctx context.Context, in PromotionInput, promotions []domain.Promotion) ([]domain.EligiblePromotion, domain.Resolution, error) {
	eligible, err := e.Evaluate(ctx, in, promotions)
	if err != nil {
		return nil, domain.NoResolution(), err
	}
	return eligible, ResolveStacking(eligible), nil
}

// ResolveStacking picks what actually applies from the eligible list.
// A non-stackable leader applies alone. A stackable leader combines with
// every other stackable entry, and non-stackable ones are dropped.
func ResolveStacking(eligible []domain.EligiblePromotion) domain.Resolution {
	if len(eligible) == 0 {
		return domain.NoResolution()
	}
	first := eligible[0]
	if !first.Stackable {
		return domain.SingleResolution(first)
	}
	stacked := make([]domain.EligiblePromotion, 0, len(eligible))
	for _, p := range eligible {
		if p.Stackable {
			stacked = append(stacked, p)
		}
	}
	return domain.StackedResolution(stacked)
}

// resolveUser loads the profile only when some promotion checks a tag.
func (e *PromotionEngine) resolveUser(ctx context.Context, userID string, promotions []domain.Promotion) (*domain.User, error) {
	if userID == "" || e.userRepo == nil {
		return nil, nil
	}
	needed := false
	for _, p := range promotions {
		for _, c := range p.Conditions {
			if c.Type == domain.ConditionCustomerTag {
				needed = true
			}
		}
	}
	if !needed {
		return nil, nil
	}
	user, err := e.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// specificProductSet aggregates product ids across every specific_product condition.
func specificProductSet(p domain.Promotion) ([]string, bool) {
	var (
		ids   []string
		found bool
	)
	for _, c := range p.Conditions {
		if c.Type == domain.ConditionSpecificProduct {
			found = true
			ids = append(ids, c.ProductIDs...)
		}
	}
	return ids, found
}

func conditionsMet(p domain.Promotion, in PromotionInput, user *domain.User) bool {
	specificIDs, hasSpecific := specificProductSet(p)

	for _, c := range p.Conditions {
		switch c.Type {
		case domain.ConditionMinAmount:
			if in.CartTotal < c.Threshold {
				return false
			}

		case domain.ConditionMinQuantity:
			// With a specific_product condition present, only those products count.
			scope := c.ProductIDs
			if hasSpecific {
				scope = specificIDs
			}
			wholeCart := len(scope) == 0 && !hasSpecific
			var qty int
			for _, item := range in.Items {
				if wholeCart || containsString(scope, item.ProductID) {
					qty += item.Quantity
				}
			}
			if float64(qty) < c.Threshold {
				return false
			}

		case domain.ConditionSpecificProduct:
			if len(c.VariantIDs) > 0 {
				if !anyLine(in.Items, func(item domain.CartItem) bool {
					return containsString(c.ProductIDs, item.ProductID) && containsString(c.VariantIDs, item.Variant())
				}) {
					return false
				}
			} else if !anyLine(in.Items, func(item domain.CartItem) bool {
				return containsString(specificIDs, item.ProductID)
			}) {
				return false
			}

		case domain.ConditionCustomerTag:
			if user == nil || !user.HasTag(c.Tag) {
				return false
			}

		default:
			return false
		}
	}
	return true
}

// targetedLines narrows the cart to what the promotion discounts:
// variant targets, else the specific_product set, else everything.
func targetedLines(p domain.Promotion, items []domain.CartItem) []domain.CartItem {
	if len(p.ApplicableProductVariants) > 0 {
		out := make([]domain.CartItem, 0, len(items))
		for _, item := range items {
			if matchesAnyTarget(item, p.ApplicableProductVariants) {
				out = append(out, item)
			}
		}
		return out
	}
	if ids, ok := specificProductSet(p); ok {
		out := make([]domain.CartItem, 0, len(items))
		for _, item := range items {
			if containsString(ids, item.ProductID) {
				out = append(out, item)
			}
		}
		return out
	}
	return items
}
