package pgstore

import (
	"context"
	"fmt"

	"settlement-engine/internal/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

const getOrderByID = `
SELECT id, channel, user_id, status, items, customer, applied_coupon_id, applied_coupon_code,
       applied_promotion_ids, discounts, subtotal, shipping_fee, payment_fee, total,
       payment_method, payment_status, stock_location, created_at, updated_at
FROM orders
WHERE id = $1`

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var (
		o                          domain.Order
		channel                    string
		items, customer, discounts []byte
		couponID                   pgtype.UUID
	)
	err := conn(ctx, r.db).QueryRow(ctx, getOrderByID, id).Scan(
		&o.ID, &channel, &o.UserID, &o.Status, &items, &customer, &couponID, &o.AppliedCouponCode,
		&o.AppliedPromotionIDs, &discounts, &o.Subtotal, &o.ShippingFee, &o.PaymentFee, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.StockLocation, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	o.Channel = domain.Channel(channel)
	if couponID.Valid {
		cid := uuid.UUID(couponID.Bytes)
		o.AppliedCouponID = &cid
	}
	if err := unmarshalJSONB(items, &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", id, err)
	}
	if err := unmarshalJSONB(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("order %s customer: %w", id, err)
	}
	if err := unmarshalJSONB(discounts, &o.Discounts); err != nil {
		return nil, fmt.Errorf("order %s discounts: %w", id, err)
	}
	return &o, nil
}

func (r *orderRepository) CountActiveOrdersByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status <> $2`,
		userID, domain.OrderStatusCancelled,
	).Scan(&n)
	return n, err
}

// upsertOrder writes the order under its caller-supplied id. A resubmitted
// id overwrites the previous document.
func upsertOrder(ctx context.Context, q DBTX, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	discounts, err := json.Marshal(o.Discounts)
	if err != nil {
		return err
	}
	var couponID pgtype.UUID
	if o.AppliedCouponID != nil {
		couponID = pgtype.UUID{Bytes: *o.AppliedCouponID, Valid: true}
	}
	promotionIDs := o.AppliedPromotionIDs
	if promotionIDs == nil {
		promotionIDs = []string{}
	}

	_, err = q.Exec(ctx, `
		INSERT INTO orders (
			id, channel, user_id, status, items, customer, applied_coupon_id, applied_coupon_code,
			applied_promotion_ids, discounts, subtotal, shipping_fee, payment_fee, total,
			payment_method, payment_status, stock_location, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			channel = EXCLUDED.channel,
			user_id = EXCLUDED.user_id,
			status = EXCLUDED.status,
			items = EXCLUDED.items,
			customer = EXCLUDED.customer,
			applied_coupon_id = EXCLUDED.applied_coupon_id,
			applied_coupon_code = EXCLUDED.applied_coupon_code,
			applied_promotion_ids = EXCLUDED.applied_promotion_ids,
			discounts = EXCLUDED.discounts,
			subtotal = EXCLUDED.subtotal,
			shipping_fee = EXCLUDED.shipping_fee,
			payment_fee = EXCLUDED.payment_fee,
			total = EXCLUDED.total,
			payment_method = EXCLUDED.payment_method,
			payment_status = EXCLUDED.payment_status,
			stock_location = EXCLUDED.stock_location,
			updated_at = EXCLUDED.updated_at`,
		o.ID, string(o.Channel), o.UserID, o.Status, items, customer, couponID, o.AppliedCouponCode,
		promotionIDs, discounts, o.Subtotal, o.ShippingFee, o.PaymentFee, o.Total,
		o.PaymentMethod, o.PaymentStatus, o.StockLocation, o.CreatedAt, o.UpdatedAt,
	)
	return err
}
