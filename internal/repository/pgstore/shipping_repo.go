package pgstore

import (
	"context"

	"settlement-engine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type shippingRuleRepository struct {
	db *pgxpool.Pool
}

func NewShippingRuleRepository(db *pgxpool.Pool) domain.ShippingRuleRepository {
	return &shippingRuleRepository{db: db}
}

func (r *shippingRuleRepository) GetActiveShippingRules(ctx context.Context) ([]domain.ShippingRule, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id, label, min_weight, max_weight, rate, is_incremental,
		       base_weight, per_kg_rate, is_active, created_at, updated_at
		FROM shipping_rules
		WHERE is_active = TRUE
		ORDER BY min_weight`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ShippingRule, 0)
	for rows.Next() {
		var z domain.ShippingRule
		if err := rows.Scan(&z.ID, &z.Label, &z.MinWeight, &z.MaxWeight, &z.Rate, &z.IsIncremental,
			&z.BaseWeight, &z.PerKgRate, &z.IsActive, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, z)
	}
	return result, rows.Err()
}
