package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/logger"
	"settlement-engine/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/gowebpki/jcs"
)

// IntegrityLedger keeps a keyed hash of every committed order so that
// edits made outside this service can be detected.
type IntegrityLedger struct {
	repo   domain.IntegrityRepository
	orders domain.OrderRepository
	secret string
	now    func() time.Time
}

func NewIntegrityLedger(repo domain.IntegrityRepository, orders domain.OrderRepository, secret string) *IntegrityLedger {
	return &IntegrityLedger{repo: repo, orders: orders, secret: secret, now: time.Now}
}

// orderFingerprint is the hashed projection of an order. Timestamps are
// left out so rewriting the same order does not change its hash.
type orderFingerprint struct {
	ID                  string                   `json:"id"`
	Channel             domain.Channel           `json:"channel"`
	UserID              string                   `json:"userId"`
	Status              string                   `json:"status"`
	Items               []itemFingerprint        `json:"items"`
	Customer            domain.JSONB             `json:"customer"`
	AppliedCouponID     string                   `json:"appliedCouponId"`
	AppliedPromotionIDs []string                 `json:"appliedPromotionIds"`
	Discounts           domain.DiscountBreakdown `json:"discounts"`
	Subtotal            float64                  `json:"subtotal"`
	ShippingFee         float64                  `json:"shippingFee"`
	PaymentFee          float64                  `json:"paymentFee"`
	Total               float64                  `json:"total"`
	PaymentMethod       string                   `json:"paymentMethod"`
	PaymentStatus       string                   `json:"paymentStatus"`
	StockLocation       string                   `json:"stockLocation"`
}

type itemFingerprint struct {
	ProductID    string  `json:"productId"`
	VariantID    string  `json:"variantId"`
	Size         string  `json:"size"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	LineDiscount float64 `json:"lineDiscount"`
	ComboID      string  `json:"comboId"`
}

// Canonical returns the RFC 8785 form of the order's hashed fields.
func Canonical(order *domain.Order) ([]byte, error) {
	fp := orderFingerprint{
		ID:                  order.ID,
		Channel:             order.Channel,
		UserID:              order.UserID,
		Status:              order.Status,
		Customer:            order.Customer,
		AppliedPromotionIDs: order.AppliedPromotionIDs,
		Discounts:           order.Discounts,
		Subtotal:            order.Subtotal,
		ShippingFee:         order.ShippingFee,
		PaymentFee:          order.PaymentFee,
		Total:               order.Total,
		PaymentMethod:       order.PaymentMethod,
		PaymentStatus:       order.PaymentStatus,
		StockLocation:       order.StockLocation,
	}
	if order.AppliedCouponID != nil {
		fp.AppliedCouponID = order.AppliedCouponID.String()
	}
	if fp.AppliedPromotionIDs == nil {
		fp.AppliedPromotionIDs = []string{}
	}
	fp.Items = make([]itemFingerprint, 0, len(order.Items))
	for _, item := range order.Items {
		it := itemFingerprint{
			ProductID:    item.ProductID,
			VariantID:    item.Variant(),
			Size:         item.Size,
			Quantity:     item.Quantity,
			Price:        item.Price,
			LineDiscount: item.LineDiscount,
		}
		if item.ComboID != nil {
			it.ComboID = *item.ComboID
		}
		fp.Items = append(fp.Items, it)
	}

	raw, err := json.Marshal(fp)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// Hash is hex(sha256(canonical || secret)).
func (l *IntegrityLedger) Hash(order *domain.Order) (string, error) {
	canonical, err := Canonical(order)
	if err != nil {
		return "", fmt.Errorf("canonicalize order %s: %w", order.ID, err)
	}
	sum := sha256.Sum256(append(canonical, l.secret...))
	return hex.EncodeToString(sum[:]), nil
}

// Record stores the order's hash, replacing any earlier one.
func (l *IntegrityLedger) Record(ctx context.Context, order *domain.Order) error {
	hash, err := l.Hash(order)
	if err != nil {
		return err
	}
	return l.repo.PutIntegrityRecord(ctx, &domain.IntegrityRecord{
		OrderID:   order.ID,
		Hash:      hash,
		CreatedAt: l.now().UTC(),
	})
}

// Verify re-reads the order and compares hashes. A mismatch or a missing
// record is reported as false, never as an error.
func (l *IntegrityLedger) Verify(ctx context.Context, orderID string) (bool, error) {
	order, err := l.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	stored, err := l.repo.GetIntegrityRecord(ctx, orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			logger.WithContext(ctx).Warn().Str("order_id", orderID).Msg("No integrity record for order")
			return false, nil
		}
		return false, fmt.Errorf("failed to load integrity record: %w", err)
	}
	computed, err := l.Hash(order)
	if err != nil {
		return false, err
	}
	if computed != stored.Hash {
		metrics.IntegrityMismatch()
		mismatch := &domain.IntegrityMismatchError{OrderID: orderID, Stored: stored.Hash, Computed: computed}
		logger.WithContext(ctx).Warn().Err(mismatch).
			Str("stored", stored.Hash).
			Str("computed", computed).
			Msg("Order integrity check failed")
		return false, nil
	}
	return true, nil
}
