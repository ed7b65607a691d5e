package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	DiscountType  string    `json:"discountType"` // percentage, fixed, free_shipping
	DiscountValue float64   `json:"discountValue"`
	MaxDiscount   *float64  `json:"maxDiscount"`
	// Zero means the gate is not configured.
	MinOrderAmount float64 `json:"minOrderAmount"`
	MinQuantity    int     `json:"minQuantity"`
	UsageLimit     int     `json:"usageLimit"`
	UsageCount     int     `json:"usageCount"`
	PerUserLimit   int     `json:"perUserLimit"`

	ApplicableProducts        []string        `json:"applicableProducts"` // legacy product-level targeting
	ApplicableProductVariants []VariantTarget `json:"applicableProductVariants"`
	ApplicableCategories      []string        `json:"applicableCategories"`
	ExcludedProducts          []string        `json:"excludedProducts"`

	RestrictedToUsers []string   `json:"restrictedToUsers"`
	FirstOrderOnly    bool       `json:"firstOrderOnly"`
	StartDate         *time.Time `json:"startDate"`
	EndDate           *time.Time `json:"endDate"`
	IsActive          bool       `json:"isActive"`
	IsDeleted         bool       `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// CouponUsage is one redemption of a coupon by a user for an order.
type CouponUsage struct {
	ID             uuid.UUID `json:"id"`
	CouponID       uuid.UUID `json:"couponId"`
	Code           string    `json:"code"`
	UserID         string    `json:"userId"`
	OrderID        string    `json:"orderId"`
	DiscountAmount float64   `json:"discountAmount"`
	UsedAt         time.Time `json:"usedAt"`
}

// CouponResult is the outcome of running a code through the validator.
type CouponResult struct {
	Valid        bool      `json:"valid"`
	CouponID     uuid.UUID `json:"couponId,omitempty"`
	Code         string    `json:"code"`
	DiscountType string    `json:"discountType,omitempty"`
	Discount     float64   `json:"discount"`
	FreeShipping bool      `json:"freeShipping"`
	Reason       string    `json:"reason,omitempty"`
}

type CouponRepository interface {
	// GetCouponByCode returns a NotFoundError for unknown or tombstoned codes.
	GetCouponByCode(ctx context.Context, code string) (*Coupon, error)
	CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error)
	IncrementCouponUsage(ctx context.Context, id uuid.UUID) error
	RecordCouponUsage(ctx context.Context, usage *CouponUsage) error
}
