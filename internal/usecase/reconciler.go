package usecase

import (
	"context"
	"fmt"
	"math"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/logger"
	"settlement-engine/pkg/metrics"
	"settlement-engine/pkg/money"
)

// Reconciler recomputes an order total from the catalog and the discount
// rules, then compares it with what the client submitted.
type Reconciler struct {
	catalog        domain.CatalogReader
	coupons        *CouponValidator
	promotions     *PromotionEngine
	shipping       *ShippingCalculator
	masterData     *MasterData
	tolerance      float64
	comboTolerance float64
}

func NewReconciler(
	catalog domain.CatalogReader,
	coupons *CouponValidator,
	promotions *PromotionEngine,
	shipping *ShippingCalculator,
	masterData *MasterData,
	tolerance, comboTolerance float64,
) *Reconciler {
	return &Reconciler{
		catalog:        catalog,
		coupons:        coupons,
		promotions:     promotions,
		shipping:       shipping,
		masterData:     masterData,
		tolerance:      tolerance,
		comboTolerance: comboTolerance,
	}
}

// Reconciliation is the server-side view of a cart.
type Reconciliation struct {
	Items        []domain.CartItem
	Subtotal     float64
	ItemDiscount float64
	Coupon       *domain.CouponResult
	Eligible     []domain.EligiblePromotion
	Resolution   domain.Resolution
	Weight       float64
	ShippingFee  float64
	PaymentFee   float64
	// Total assumes line discounts already carry promotions.
	Total float64
	// TotalWithPromotion subtracts the resolved promotion discount on top.
	TotalWithPromotion float64
	// Accepted is the candidate the submitted total matched.
	Accepted             float64
	PromotionsPreApplied bool
}

func (r *Reconciliation) CouponDiscount() float64 {
	if r.Coupon == nil || !r.Coupon.Valid {
		return 0
	}
	return r.Coupon.Discount
}

// Compute runs the pricing steps without comparing totals. With lenient
// coupons an ineligible code is reported in the result instead of failing.
func (r *Reconciler) Compute(ctx context.Context, req *domain.SettlementRequest, lenientCoupon bool) (*Reconciliation, error) {
	// 1. Re-price from the catalog
	items, err := r.reprice(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	rec := &Reconciliation{
		Items:      items,
		Subtotal:   subtotalOf(items),
		Resolution: domain.NoResolution(),
	}
	discounts := make([]float64, 0, len(items))
	for _, item := range items {
		discounts = append(discounts, item.LineDiscount)
	}
	rec.ItemDiscount = money.Sum(discounts...)

	// 2. Combo discounts must match the configured bundle price
	if err := r.checkCombos(ctx, items); err != nil {
		return nil, err
	}

	// 3. Coupon
	if req.CouponCode != "" {
		in := CouponInput{Code: req.CouponCode, UserID: req.UserID, CartTotal: rec.Subtotal, Items: items}
		if lenientCoupon {
			rec.Coupon, err = r.coupons.Result(ctx, in)
		} else {
			rec.Coupon, err = r.coupons.Validate(ctx, in)
		}
		if err != nil {
			return nil, err
		}
	}

	// 4. Promotions are a website concern; POS staff apply discounts by hand
	if req.Channel == domain.ChannelWebsite {
		promos, err := r.masterData.ActivePromotions(ctx)
		if err != nil {
			return nil, err
		}
		rec.Eligible, rec.Resolution, err = r.promotions.Apply(ctx, PromotionInput{
			Items:     items,
			CartTotal: rec.Subtotal,
			UserID:    req.UserID,
		}, promos)
		if err != nil {
			return nil, err
		}
	}

	// 5. Shipping
	rules, err := r.masterData.ActiveShippingRules(ctx)
	if err != nil {
		return nil, err
	}
	rec.ShippingFee, rec.Weight = r.shipping.Quote(items, rules)
	if rec.Coupon != nil && rec.Coupon.Valid && rec.Coupon.FreeShipping {
		rec.ShippingFee = 0
	}

	// 6. Payment fee: trust the client's rate, not its base
	rec.PaymentFee = paymentFee(req.Items, req.PaymentFee, rec.Subtotal)

	// 7. Candidates
	rec.Total = money.Sum(rec.Subtotal, -rec.ItemDiscount, rec.ShippingFee, rec.PaymentFee, -rec.CouponDiscount())
	rec.TotalWithPromotion = money.Sum(rec.Total, -rec.Resolution.Discount())
	return rec, nil
}

// Reconcile computes and then accepts the request only when one of the
// two candidates is within tolerance of the submitted total.
func (r *Reconciler) Reconcile(ctx context.Context, req *domain.SettlementRequest) (*Reconciliation, error) {
	rec, err := r.Compute(ctx, req, false)
	if err != nil {
		return nil, err
	}

	switch {
	case money.Within(rec.Total, req.Total, r.tolerance):
		rec.Accepted = rec.Total
		rec.PromotionsPreApplied = rec.Resolution.Discount() > 0
	case money.Within(rec.TotalWithPromotion, req.Total, r.tolerance):
		rec.Accepted = rec.TotalWithPromotion
	default:
		metrics.PriceMismatch()
		logger.WithContext(ctx).Warn().
			Str("order_id", req.OrderID).
			Str("channel", string(req.Channel)).
			Float64("submitted", req.Total).
			Float64("computed", rec.Total).
			Float64("computed_with_promotion", rec.TotalWithPromotion).
			Msg("Submitted total does not reconcile")
		return nil, &domain.PriceMismatchError{
			Submitted:     req.Total,
			Computed:      rec.Total,
			WithPromotion: rec.TotalWithPromotion,
			Tolerance:     r.tolerance,
		}
	}
	return rec, nil
}

// reprice overwrites price, cost, weight and categories from the catalog.
// Quantity, size, line discount and combo linkage come from the request.
func (r *Reconciler) reprice(ctx context.Context, submitted []domain.CartItem) ([]domain.CartItem, error) {
	ids := make([]string, 0, len(submitted))
	for _, item := range submitted {
		ids = append(ids, item.ProductID)
	}
	products, err := r.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	items := make([]domain.CartItem, 0, len(submitted))
	for _, in := range submitted {
		p, ok := products[in.ProductID]
		if !ok {
			return nil, &domain.NotFoundError{Resource: "product", ID: in.ProductID}
		}

		price := p.BasePrice
		if p.SalePrice != nil {
			price = *p.SalePrice
		}
		var weight float64
		if p.Weight != nil {
			weight = *p.Weight
		}

		if vid := in.Variant(); vid != "" {
			v, ok := findVariant(p, vid)
			if !ok {
				return nil, &domain.NotFoundError{Resource: "variant", ID: vid}
			}
			if v.Price != nil {
				price = *v.Price
			}
			if v.SalePrice != nil {
				price = *v.SalePrice
			}
			if v.Weight != nil {
				weight = *v.Weight
			}
		}

		out := in
		out.Price = price
		out.BuyingCost = p.BuyingCost
		out.Weight = weight
		out.CategoryIDs = p.CategoryIDs
		items = append(items, out)
	}
	return items, nil
}

func findVariant(p domain.CatalogProduct, id string) (domain.CatalogVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return domain.CatalogVariant{}, false
}

// checkCombos compares the claimed discount of each combo with
// (original - combo price) x sets, where sets is the smallest line quantity.
func (r *Reconciler) checkCombos(ctx context.Context, items []domain.CartItem) error {
	type claim struct {
		discount float64
		sets     int
	}
	claims := make(map[string]*claim)
	var order []string
	for _, item := range items {
		if !item.IsComboItem || item.ComboID == nil {
			continue
		}
		id := *item.ComboID
		c, ok := claims[id]
		if !ok {
			c = &claim{sets: math.MaxInt}
			claims[id] = c
			order = append(order, id)
		}
		c.discount = money.Sum(c.discount, item.LineDiscount)
		if item.Quantity < c.sets {
			c.sets = item.Quantity
		}
	}
	if len(claims) == 0 {
		return nil
	}

	combos, err := r.catalog.GetCombosByIDs(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to load combos: %w", err)
	}
	for _, id := range order {
		combo, ok := combos[id]
		if !ok {
			return &domain.NotFoundError{Resource: "combo", ID: id}
		}
		c := claims[id]
		expected := money.Mul(money.Sum(combo.OriginalPrice, -combo.ComboPrice), c.sets)
		if !money.Within(c.discount, expected, r.comboTolerance) {
			metrics.PriceMismatch()
			logger.WithContext(ctx).Warn().
				Str("combo_id", id).
				Float64("claimed", c.discount).
				Float64("expected", expected).
				Msg("Combo discount does not match bundle price")
			return &domain.PriceMismatchError{
				Submitted:     c.discount,
				Computed:      expected,
				WithPromotion: expected,
				Tolerance:     r.comboTolerance,
			}
		}
	}
	return nil
}

// paymentFee re-derives the client's fee rate against its own subtotal and
// applies it to the authoritative one.
func paymentFee(submitted []domain.CartItem, clientFee, subtotal float64) float64 {
	if clientFee <= 0 {
		return 0
	}
	clientSubtotal := subtotalOf(submitted)
	if clientSubtotal <= 0 {
		return 0
	}
	return money.Round(clientFee / clientSubtotal * subtotal)
}
