package usecase

import (
	"context"
	"fmt"
	"time"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/logger"
	"settlement-engine/pkg/metrics"

	"github.com/google/uuid"
)

// SettlementUsecase turns a submitted cart into a committed order:
// reconcile, commit, then record coupon usage and the integrity hash.
type SettlementUsecase struct {
	reconciler      *Reconciler
	committer       *Committer
	ledger          *IntegrityLedger
	couponRepo      domain.CouponRepository
	orderRepo       domain.OrderRepository
	defaultLocation string
	now             func() time.Time
}

func NewSettlementUsecase(
	reconciler *Reconciler,
	committer *Committer,
	ledger *IntegrityLedger,
	couponRepo domain.CouponRepository,
	orderRepo domain.OrderRepository,
	defaultLocation string,
) *SettlementUsecase {
	return &SettlementUsecase{
		reconciler:      reconciler,
		committer:       committer,
		ledger:          ledger,
		couponRepo:      couponRepo,
		orderRepo:       orderRepo,
		defaultLocation: defaultLocation,
		now:             time.Now,
	}
}

// QuoteResult is a read-only preview of what settle would charge.
type QuoteResult struct {
	Subtotal           float64                    `json:"subtotal"`
	ItemDiscount       float64                    `json:"itemDiscount"`
	EligiblePromotions []domain.EligiblePromotion `json:"eligiblePromotions"`
	Resolution         domain.Resolution          `json:"resolution"`
	PromotionDiscount  float64                    `json:"promotionDiscount"`
	Coupon             *domain.CouponResult       `json:"coupon,omitempty"`
	CouponDiscount     float64                    `json:"couponDiscount"`
	Weight             float64                    `json:"weight"`
	ShippingFee        float64                    `json:"shippingFee"`
	PaymentFee         float64                    `json:"paymentFee"`
	Total              float64                    `json:"total"`
}

// Quote prices the cart the way Settle would, without comparing totals or
// writing anything. An ineligible coupon is reported, not raised.
func (u *SettlementUsecase) Quote(ctx context.Context, req domain.SettlementRequest) (*QuoteResult, error) {
	if err := validateCart(&req); err != nil {
		return nil, err
	}
	rec, err := u.reconciler.Compute(ctx, &req, true)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		Subtotal:           rec.Subtotal,
		ItemDiscount:       rec.ItemDiscount,
		EligiblePromotions: rec.Eligible,
		Resolution:         rec.Resolution,
		PromotionDiscount:  rec.Resolution.Discount(),
		Coupon:             rec.Coupon,
		CouponDiscount:     rec.CouponDiscount(),
		Weight:             rec.Weight,
		ShippingFee:        rec.ShippingFee,
		PaymentFee:         rec.PaymentFee,
		Total:              rec.TotalWithPromotion,
	}, nil
}

// CheckCoupon runs the cart's coupon code through the validator against
// catalog prices. Ineligibility is reported in the result.
func (u *SettlementUsecase) CheckCoupon(ctx context.Context, req domain.SettlementRequest) (*domain.CouponResult, error) {
	if req.CouponCode == "" {
		return nil, &domain.ValidationError{Field: "couponCode", Message: "is required"}
	}
	if err := validateCart(&req); err != nil {
		return nil, err
	}
	items, err := u.reconciler.reprice(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	return u.reconciler.coupons.Result(ctx, CouponInput{
		Code:      req.CouponCode,
		UserID:    req.UserID,
		CartTotal: subtotalOf(items),
		Items:     items,
	})
}

// Settle reconciles and commits the order. Every failure is one of the
// typed errors in domain; retries on write conflicts happen inside.
func (u *SettlementUsecase) Settle(ctx context.Context, req domain.SettlementRequest) (order *domain.Order, err error) {
	start := u.now()
	defer func() {
		outcome := "committed"
		if err != nil {
			outcome = domain.RejectionFromError(err).Reason
		}
		metrics.Settlement(string(req.Channel), outcome)
		logger.Settlement(ctx, req.OrderID, string(req.Channel), outcome, time.Since(start))
	}()

	if err := u.validateSettlement(&req); err != nil {
		return nil, err
	}

	// 1. Reconcile
	rec, err := u.reconciler.Reconcile(ctx, &req)
	if err != nil {
		return nil, err
	}

	// 2. Build the order from the server view
	now := u.now().UTC()
	order = &domain.Order{
		ID:                  req.OrderID,
		Channel:             req.Channel,
		UserID:              req.UserID,
		Status:              domain.OrderStatusPending,
		Items:               rec.Items,
		Customer:            req.Customer,
		AppliedPromotionIDs: rec.Resolution.PromotionIDs(),
		Discounts: domain.DiscountBreakdown{
			ItemDiscount:         rec.ItemDiscount,
			CouponDiscount:       rec.CouponDiscount(),
			PromotionDiscount:    rec.Resolution.Discount(),
			PromotionsPreApplied: rec.PromotionsPreApplied,
		},
		Subtotal:      rec.Subtotal,
		ShippingFee:   rec.ShippingFee,
		PaymentFee:    rec.PaymentFee,
		Total:         rec.Accepted,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		StockLocation: req.StockLocation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Channel == domain.ChannelStore {
		order.Status = domain.OrderStatusCompleted
	}
	if rec.Coupon != nil && rec.Coupon.Valid {
		couponID := rec.Coupon.CouponID
		order.AppliedCouponID = &couponID
		order.AppliedCouponCode = rec.Coupon.Code
		order.Discounts.FreeShipping = rec.Coupon.FreeShipping
	}

	// 3. Commit stock and order atomically
	if err := u.committer.Commit(ctx, order); err != nil {
		return nil, err
	}

	// 4. After commit. Neither step can undo the order.
	u.recordCouponUsage(ctx, order)
	if err := u.ledger.Record(ctx, order); err != nil {
		logger.WithContext(ctx).Error().Err(err).Str("order_id", order.ID).Msg("Failed to record integrity hash")
	}

	return order, nil
}

// recordCouponUsage bumps the counter and writes the per-user record.
// It runs outside the stock transaction, so concurrent orders at the
// usage limit can each pass validation and overshoot it.
func (u *SettlementUsecase) recordCouponUsage(ctx context.Context, order *domain.Order) {
	if order.AppliedCouponID == nil {
		return
	}
	log := logger.WithContext(ctx)
	if err := u.couponRepo.IncrementCouponUsage(ctx, *order.AppliedCouponID); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Str("coupon", order.AppliedCouponCode).Msg("Failed to increment coupon usage")
	}
	if order.UserID == "" {
		return
	}
	usage := &domain.CouponUsage{
		ID:             uuid.New(),
		CouponID:       *order.AppliedCouponID,
		Code:           order.AppliedCouponCode,
		UserID:         order.UserID,
		OrderID:        order.ID,
		DiscountAmount: order.Discounts.CouponDiscount,
		UsedAt:         order.CreatedAt,
	}
	if err := u.couponRepo.RecordCouponUsage(ctx, usage); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Str("coupon", order.AppliedCouponCode).Msg("Failed to record coupon usage")
	}
}

func (u *SettlementUsecase) VerifyIntegrity(ctx context.Context, orderID string) (bool, error) {
	if orderID == "" {
		return false, &domain.ValidationError{Field: "orderId", Message: "is required"}
	}
	return u.ledger.Verify(ctx, orderID)
}

func (u *SettlementUsecase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, &domain.ValidationError{Field: "orderId", Message: "is required"}
	}
	return u.orderRepo.GetOrderByID(ctx, orderID)
}

// --- Validation ---

func validateCart(req *domain.SettlementRequest) error {
	if !req.Channel.Valid() {
		return &domain.ValidationError{Field: "channel", Message: fmt.Sprintf("must be %q or %q", domain.ChannelStore, domain.ChannelWebsite)}
	}
	if len(req.Items) == 0 {
		return &domain.ValidationError{Field: "items", Message: "must not be empty"}
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].productId", i), Message: "is required"}
		}
		if item.Quantity <= 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be greater than 0"}
		}
		if item.LineDiscount < 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].lineDiscount", i), Message: "must not be negative"}
		}
		if item.IsComboItem && (item.ComboID == nil || *item.ComboID == "") {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].comboId", i), Message: "is required for combo items"}
		}
	}
	if req.PaymentFee < 0 {
		return &domain.ValidationError{Field: "paymentFee", Message: "must not be negative"}
	}
	return nil
}

func (u *SettlementUsecase) validateSettlement(req *domain.SettlementRequest) error {
	if req.OrderID == "" {
		return &domain.ValidationError{Field: "orderId", Message: "is required"}
	}
	if err := validateCart(req); err != nil {
		return err
	}
	if req.StockLocation == "" {
		req.StockLocation = u.defaultLocation
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = domain.PaymentStatusPending
	}
	if !containsString(domain.PaymentStatuses, req.PaymentStatus) {
		return &domain.ValidationError{Field: "paymentStatus", Message: "is not a known status"}
	}
	if req.PaymentMethod != "" && !containsString(domain.PaymentMethods, req.PaymentMethod) {
		return &domain.ValidationError{Field: "paymentMethod", Message: "is not a known method"}
	}
	return nil
}
