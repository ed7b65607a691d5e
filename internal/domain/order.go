package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Cart Entities ---

// CartItem is a settlement line. Price, BuyingCost, Weight and CategoryIDs
// are overwritten from the catalog before any computation.
type CartItem struct {
	ProductID    string   `json:"productId"`
	VariantID    *string  `json:"variantId,omitempty"`
	Size         string   `json:"size"`
	Quantity     int      `json:"quantity"`
	Price        float64  `json:"price"`
	BuyingCost   float64  `json:"buyingCost"`
	Weight       float64  `json:"weight"`
	CategoryIDs  []string `json:"categoryIds,omitempty"`
	LineDiscount float64  `json:"lineDiscount,omitempty"` // whole-line amount, not per unit
	ComboID      *string  `json:"comboId,omitempty"`
	IsComboItem  bool     `json:"isComboItem,omitempty"`
}

func (c CartItem) Variant() string {
	if c.VariantID == nil {
		return ""
	}
	return *c.VariantID
}

// SettlementRequest is the order as submitted by a checkout or POS client.
type SettlementRequest struct {
	OrderID       string     `json:"orderId"`
	Channel       Channel    `json:"channel"`
	Items         []CartItem `json:"items"`
	CouponCode    string     `json:"couponCode,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	Customer      JSONB      `json:"customer,omitempty"`
	PaymentMethod string     `json:"paymentMethod"`
	PaymentFee    float64    `json:"paymentFee"`
	PaymentStatus string     `json:"paymentStatus"`
	StockLocation string     `json:"stockLocation"`
	Total         float64    `json:"total"`
}

// --- Order Entities ---

type DiscountBreakdown struct {
	ItemDiscount      float64 `json:"itemDiscount"`
	CouponDiscount    float64 `json:"couponDiscount"`
	PromotionDiscount float64 `json:"promotionDiscount"`
	// PromotionsPreApplied is true when the submitted total matched the
	// candidate that treats line discounts as already carrying promotions.
	PromotionsPreApplied bool `json:"promotionsPreApplied"`
	FreeShipping         bool `json:"freeShipping"`
}

type Order struct {
	ID                  string            `json:"id"`
	Channel             Channel           `json:"channel"`
	UserID              string            `json:"userId"`
	Status              string            `json:"status"`
	Items               []CartItem        `json:"items"`
	Customer            JSONB             `json:"customer"`
	AppliedCouponID     *uuid.UUID        `json:"appliedCouponId"`
	AppliedCouponCode   string            `json:"appliedCouponCode,omitempty"`
	AppliedPromotionIDs []string          `json:"appliedPromotionIds"`
	Discounts           DiscountBreakdown `json:"discounts"`
	Subtotal            float64           `json:"subtotal"`
	ShippingFee         float64           `json:"shippingFee"`
	PaymentFee          float64           `json:"paymentFee"`
	Total               float64           `json:"total"`
	PaymentMethod       string            `json:"paymentMethod"`
	PaymentStatus       string            `json:"paymentStatus"`
	StockLocation       string            `json:"stockLocation"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// --- Interfaces ---

type OrderRepository interface {
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	// CountActiveOrdersByUser counts the user's orders that are not cancelled.
	CountActiveOrdersByUser(ctx context.Context, userID string) (int, error)
}
