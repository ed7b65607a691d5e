package usecase

import (
	"testing"

	"settlement-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func websiteRequest(total float64, items ...domain.CartItem) *domain.SettlementRequest {
	return &domain.SettlementRequest{
		OrderID: "o-1",
		Channel: domain.ChannelWebsite,
		Items:   items,
		Total:   total,
	}
}

func TestReconciler_AcceptsWithinTolerance(t *testing.T) {
	env := newTestEnv(t)

	// 2 x 1000 + legacy multi-unit shipping 500
	for _, total := range []float64{2500, 2501, 2499} {
		rec, err := env.reconciler.Reconcile(t.Context(), websiteRequest(total, shirtLine(2)))
		require.NoError(t, err, "total %v", total)
		assert.Equal(t, 2500.0, rec.Accepted)
		assert.Equal(t, 2000.0, rec.Subtotal)
		assert.Equal(t, 500.0, rec.ShippingFee)
		assert.Equal(t, 1.0, rec.Weight)
	}
}

func TestReconciler_RejectsMismatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reconciler.Reconcile(t.Context(), websiteRequest(2502, shirtLine(2)))

	var mismatch *domain.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2502.0, mismatch.Submitted)
	assert.Equal(t, 2500.0, mismatch.Computed)
}

func TestReconciler_IgnoresClientPrices(t *testing.T) {
	env := newTestEnv(t)

	cheap := shirtLine(2)
	cheap.Price = 1
	_, err := env.reconciler.Reconcile(t.Context(), websiteRequest(502, cheap))
	var mismatch *domain.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)

	red := shirtLine(1)
	red.VariantID = ptr("shirt-red")
	rec, err := env.reconciler.Reconcile(t.Context(), websiteRequest(1580, red))
	require.NoError(t, err)
	assert.Equal(t, 1200.0, rec.Items[0].Price)
	assert.Equal(t, 600.0, rec.Items[0].BuyingCost)
}

func TestReconciler_PromotionCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.store.PutPromotion(domain.Promotion{ID: "ten", Name: "Ten off", Priority: 1, Stackable: true, IsActive: true, Actions: percentOff(10)})

	t.Run("promotion subtracted by the server", func(t *testing.T) {
		rec, err := env.reconciler.Reconcile(t.Context(), websiteRequest(2300, shirtLine(2)))
		require.NoError(t, err)
		assert.Equal(t, 2500.0, rec.Total)
		assert.Equal(t, 2300.0, rec.TotalWithPromotion)
		assert.Equal(t, 2300.0, rec.Accepted)
		assert.False(t, rec.PromotionsPreApplied)
	})

	t.Run("promotion already folded into line discounts", func(t *testing.T) {
		line := shirtLine(2)
		line.LineDiscount = 200
		rec, err := env.reconciler.Reconcile(t.Context(), websiteRequest(2300, line))
		require.NoError(t, err)
		assert.Equal(t, 2300.0, rec.Accepted)
		assert.True(t, rec.PromotionsPreApplied)
		assert.Equal(t, 200.0, rec.Resolution.Discount())
	})

	t.Run("store channel skips promotions", func(t *testing.T) {
		req := websiteRequest(2500, shirtLine(2))
		req.Channel = domain.ChannelStore
		rec, err := env.reconciler.Reconcile(t.Context(), req)
		require.NoError(t, err)
		assert.Empty(t, rec.Eligible)
		assert.Equal(t, domain.ResolutionNone, rec.Resolution.Kind())
	})
}

func TestReconciler_PaymentFeeRate(t *testing.T) {
	env := newTestEnv(t)

	// client thinks the shirt costs 900 and adds 1%: 18 on 1800
	line := shirtLine(2)
	line.Price = 900
	req := websiteRequest(2520, line)
	req.PaymentFee = 18

	rec, err := env.reconciler.Reconcile(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 20.0, rec.PaymentFee)
}

func TestReconciler_Coupons(t *testing.T) {
	env := newTestEnv(t)
	env.store.PutCoupon(domain.Coupon{Code: "SHIPFREE", DiscountType: domain.DiscountTypeFreeShipping, IsActive: true})
	env.store.PutCoupon(domain.Coupon{Code: "FLAT100", DiscountType: domain.DiscountTypeFixed, DiscountValue: 100, IsActive: true})
	env.store.PutCoupon(domain.Coupon{Code: "DEAD", DiscountType: domain.DiscountTypeFixed, DiscountValue: 100})

	req := websiteRequest(2000, shirtLine(2))
	req.CouponCode = "shipfree"
	rec, err := env.reconciler.Reconcile(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.ShippingFee)

	req = websiteRequest(2400, shirtLine(2))
	req.CouponCode = "FLAT100"
	rec, err = env.reconciler.Reconcile(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rec.CouponDiscount())

	req = websiteRequest(2500, shirtLine(2))
	req.CouponCode = "DEAD"
	_, err = env.reconciler.Reconcile(t.Context(), req)
	var ineligible *domain.IneligibleError
	assert.ErrorAs(t, err, &ineligible)

	rec, err = env.reconciler.Compute(t.Context(), req, true)
	require.NoError(t, err)
	assert.False(t, rec.Coupon.Valid)
	assert.Equal(t, 0.0, rec.CouponDiscount())
}

func TestReconciler_Combos(t *testing.T) {
	env := newTestEnv(t)

	comboLines := func(shirtDiscount, mugDiscount float64) []domain.CartItem {
		shirt := shirtLine(1)
		shirt.ComboID, shirt.IsComboItem, shirt.LineDiscount = ptr("breakfast"), true, shirtDiscount
		mug := mugLine(1)
		mug.ComboID, mug.IsComboItem, mug.LineDiscount = ptr("breakfast"), true, mugDiscount
		return []domain.CartItem{shirt, mug}
	}

	// 1250 - 150 bundle saving + 500 shipping
	rec, err := env.reconciler.Reconcile(t.Context(), websiteRequest(1600, comboLines(100, 50)...))
	require.NoError(t, err)
	assert.Equal(t, 150.0, rec.ItemDiscount)

	_, err = env.reconciler.Reconcile(t.Context(), websiteRequest(1550, comboLines(150, 50)...))
	var mismatch *domain.PriceMismatchError
	assert.ErrorAs(t, err, &mismatch)

	lines := comboLines(100, 50)
	lines[0].ComboID, lines[1].ComboID = ptr("brunch"), ptr("brunch")
	_, err = env.reconciler.Reconcile(t.Context(), websiteRequest(1600, lines...))
	assert.True(t, domain.IsNotFound(err))
}

func TestReconciler_UnknownProductOrVariant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reconciler.Reconcile(t.Context(), websiteRequest(100, domain.CartItem{ProductID: "hat", Quantity: 1}))
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Resource)

	line := shirtLine(1)
	line.VariantID = ptr("shirt-gold")
	_, err = env.reconciler.Reconcile(t.Context(), websiteRequest(100, line))
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "variant", nf.Resource)
}
