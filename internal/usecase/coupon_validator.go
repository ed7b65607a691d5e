package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/money"
)

// CouponValidator runs a single code through the eligibility gates and
// computes its discount.
// L9: Gates are ordered and short-circuit; the first failure is the reason shown.
type CouponValidator struct {
	couponRepo  domain.CouponRepository
	orderRepo   domain.OrderRepository
	catalogRepo domain.CatalogReader
	now         func() time.Time
}

func NewCouponValidator(couponRepo domain.CouponRepository, orderRepo domain.OrderRepository, catalogRepo domain.CatalogReader) *CouponValidator {
	return &CouponValidator{
		couponRepo:  couponRepo,
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		now:         time.Now,
	}
}

// CouponInput is what the validator needs. Items must already carry
// catalog prices.
type CouponInput struct {
	Code      string
	UserID    string
	CartTotal float64
	Items     []domain.CartItem
}

func couponRejected(code, reason string) error {
	return &domain.IneligibleError{Subject: "coupon", Code: code, Reason: reason}
}

// Validate returns the coupon result, or an IneligibleError naming the
// first gate that failed. Store errors are returned wrapped.
func (v *CouponValidator) Validate(ctx context.Context, in CouponInput) (*domain.CouponResult, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, &domain.ValidationError{Field: "couponCode", Message: "is empty"}
	}

	// 1. Exists and not tombstoned
	coupon, err := v.couponRepo.GetCouponByCode(ctx, code)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, couponRejected(code, "invalid coupon code")
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if coupon.IsDeleted {
		return nil, couponRejected(code, "invalid coupon code")
	}

	// 2. Active
	if !coupon.IsActive {
		return nil, couponRejected(code, "coupon is inactive")
	}

	// 3. Validity window
	now := v.now()
	if coupon.StartDate != nil && now.Before(*coupon.StartDate) {
		return nil, couponRejected(code, "coupon is not active yet")
	}
	if coupon.EndDate != nil && now.After(*coupon.EndDate) {
		return nil, couponRejected(code, "coupon has expired")
	}

	// 4. Global usage limit
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return nil, couponRejected(code, "coupon usage limit reached")
	}

	// 5. Restricted audience
	if len(coupon.RestrictedToUsers) > 0 && !containsString(coupon.RestrictedToUsers, in.UserID) {
		return nil, couponRejected(code, "coupon is not available for this account")
	}

	// 6. Per-user limit
	if coupon.PerUserLimit > 0 {
		if in.UserID == "" {
			return nil, couponRejected(code, "sign in to use this coupon")
		}
		used, err := v.couponRepo.CountUserUsage(ctx, coupon.ID, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to count coupon usage: %w", err)
		}
		if used >= coupon.PerUserLimit {
			return nil, couponRejected(code, "you have already used this coupon")
		}
	}

	// 7. Minimum spend
	if coupon.MinOrderAmount > 0 && in.CartTotal < coupon.MinOrderAmount {
		return nil, couponRejected(code, fmt.Sprintf("minimum order amount is %.2f", coupon.MinOrderAmount))
	}

	// 8. Minimum quantity
	if coupon.MinQuantity > 0 && totalQuantity(in.Items) < coupon.MinQuantity {
		return nil, couponRejected(code, fmt.Sprintf("minimum quantity is %d", coupon.MinQuantity))
	}

	// 9. Product targeting, variant level first
	if len(coupon.ApplicableProductVariants) > 0 {
		if !variantEligible(in.Items, coupon.ApplicableProductVariants) {
			return nil, couponRejected(code, "coupon does not apply to items in your cart")
		}
	} else if len(coupon.ApplicableProducts) > 0 {
		if !anyLine(in.Items, func(item domain.CartItem) bool {
			return containsString(coupon.ApplicableProducts, item.ProductID)
		}) {
			return nil, couponRejected(code, "coupon does not apply to items in your cart")
		}
	}

	// 10. Category targeting
	var categories map[string][]string
	if len(coupon.ApplicableCategories) > 0 {
		categories, err = v.lineCategories(ctx, in.Items)
		if err != nil {
			return nil, err
		}
		if !anyLine(in.Items, func(item domain.CartItem) bool {
			return intersects(categories[item.ProductID], coupon.ApplicableCategories)
		}) {
			return nil, couponRejected(code, "coupon does not apply to these categories")
		}
	}

	// 11. Exclusions, only when nothing is left
	if len(coupon.ExcludedProducts) > 0 && len(in.Items) > 0 {
		if !anyLine(in.Items, func(item domain.CartItem) bool {
			return !containsString(coupon.ExcludedProducts, item.ProductID)
		}) {
			return nil, couponRejected(code, "all items in your cart are excluded from this coupon")
		}
	}

	// 12. First order
	if coupon.FirstOrderOnly {
		if in.UserID == "" {
			return nil, couponRejected(code, "sign in to use this coupon")
		}
		n, err := v.orderRepo.CountActiveOrdersByUser(ctx, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to count orders: %w", err)
		}
		if n > 0 {
			return nil, couponRejected(code, "coupon is valid on first order only")
		}
	}

	res := &domain.CouponResult{
		Valid:        true,
		CouponID:     coupon.ID,
		Code:         coupon.Code,
		DiscountType: coupon.DiscountType,
	}
	switch coupon.DiscountType {
	case domain.DiscountTypeFixed:
		res.Discount = money.Round(coupon.DiscountValue)
	case domain.DiscountTypePercentage:
		base := eligibleSubtotal(coupon, in.Items, categories)
		res.Discount = percentageDiscount(base, coupon.DiscountValue, coupon.MaxDiscount)
	case domain.DiscountTypeFreeShipping:
		// caller zeroes shipping
		res.FreeShipping = true
	default:
		return nil, fmt.Errorf("coupon %s has unknown discount type %q", code, coupon.DiscountType)
	}
	return res, nil
}

// Result is Validate folded into a CouponResult: ineligibility becomes
// Valid=false with the reason, other errors are returned.
func (v *CouponValidator) Result(ctx context.Context, in CouponInput) (*domain.CouponResult, error) {
	res, err := v.Validate(ctx, in)
	if err == nil {
		return res, nil
	}
	var ineligible *domain.IneligibleError
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &ineligible):
		return &domain.CouponResult{Code: ineligible.Code, Reason: ineligible.Reason}, nil
	case errors.As(err, &invalid):
		return &domain.CouponResult{Code: in.Code, Reason: invalid.Message}, nil
	}
	return nil, err
}

// lineCategories resolves category ids per product from the catalog.
func (v *CouponValidator) lineCategories(ctx context.Context, items []domain.CartItem) (map[string][]string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := v.catalogRepo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve categories: %w", err)
	}
	out := make(map[string][]string, len(products))
	for id, p := range products {
		out[id] = p.CategoryIDs
	}
	return out, nil
}

// eligibleSubtotal sums the lines the coupon targets, minus excluded products.
func eligibleSubtotal(c *domain.Coupon, items []domain.CartItem, categories map[string][]string) float64 {
	amounts := make([]float64, 0, len(items))
	for _, item := range items {
		if len(c.ApplicableProductVariants) > 0 {
			if !matchesAnyTarget(item, c.ApplicableProductVariants) {
				continue
			}
		} else if len(c.ApplicableProducts) > 0 && !containsString(c.ApplicableProducts, item.ProductID) {
			continue
		}
		if len(c.ApplicableCategories) > 0 && !intersects(categories[item.ProductID], c.ApplicableCategories) {
			continue
		}
		if containsString(c.ExcludedProducts, item.ProductID) {
			continue
		}
		amounts = append(amounts, lineTotal(item))
	}
	return money.Sum(amounts...)
}

func anyLine(items []domain.CartItem, pred func(domain.CartItem) bool) bool {
	for _, item := range items {
		if pred(item) {
			return true
		}
	}
	return false
}
