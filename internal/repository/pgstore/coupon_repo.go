package pgstore

import (
	"context"
	"fmt"
	"time"

	"settlement-engine/internal/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type couponRepository struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) domain.CouponRepository {
	return &couponRepository{db: db}
}

const getCouponByCode = `
SELECT id, code, discount_type, discount_value, max_discount, min_order_amount,
       min_quantity, usage_limit, usage_count, per_user_limit,
       applicable_products, applicable_product_variants, applicable_categories,
       excluded_products, restricted_to_users, first_order_only,
       start_date, end_date, is_active, created_at
FROM coupons
WHERE code = $1 AND is_deleted = FALSE`

func (r *couponRepository) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var (
		c        domain.Coupon
		id       pgtype.UUID
		variants []byte
		start    pgtype.Timestamptz
		end      pgtype.Timestamptz
	)
	err := conn(ctx, r.db).QueryRow(ctx, getCouponByCode, code).Scan(
		&id, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MaxDiscount, &c.MinOrderAmount,
		&c.MinQuantity, &c.UsageLimit, &c.UsageCount, &c.PerUserLimit,
		&c.ApplicableProducts, &variants, &c.ApplicableCategories,
		&c.ExcludedProducts, &c.RestrictedToUsers, &c.FirstOrderOnly,
		&start, &end, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "coupon", code)
	}
	c.ID = uuid.UUID(id.Bytes)
	c.StartDate = toTimePtr(start)
	c.EndDate = toTimePtr(end)
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &c.ApplicableProductVariants); err != nil {
			return nil, fmt.Errorf("coupon %s: bad variant targeting: %w", code, err)
		}
	}
	return &c, nil
}

func (r *couponRepository) CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2`,
		pgtype.UUID{Bytes: couponID, Valid: true}, userID,
	).Scan(&n)
	return n, err
}

func (r *couponRepository) IncrementCouponUsage(ctx context.Context, id uuid.UUID) error {
	// Convert uuid.UUID -> pgtype.UUID
	pgUUID := pgtype.UUID{Bytes: id, Valid: true}
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE coupons SET usage_count = usage_count + 1 WHERE id = $1`, pgUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "coupon", ID: id.String()}
	}
	return nil
}

func (r *couponRepository) RecordCouponUsage(ctx context.Context, u *domain.CouponUsage) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO coupon_usages (id, coupon_id, code, user_id, order_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pgtype.UUID{Bytes: u.ID, Valid: true},
		pgtype.UUID{Bytes: u.CouponID, Valid: true},
		u.Code, u.UserID, u.OrderID, u.DiscountAmount, u.UsedAt,
	)
	return err
}

func toTimePtr(t pgtype.Timestamptz) *time.Time {
	if t.Valid {
		return &t.Time
	}
	return nil
}
