package pgstore

import (
	"context"
	"fmt"

	"settlement-engine/internal/domain"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type promotionRepository struct {
	db *pgxpool.Pool
}

func NewPromotionRepository(db *pgxpool.Pool) domain.PromotionRepository {
	return &promotionRepository{db: db}
}

const listActivePromotions = `
SELECT id, name, priority, stackable, start_date, end_date,
       conditions, actions, applicable_product_variants
FROM promotions
WHERE is_active = TRUE AND is_deleted = FALSE
ORDER BY priority DESC, id`

func (r *promotionRepository) ListActivePromotions(ctx context.Context) ([]domain.Promotion, error) {
	rows, err := conn(ctx, r.db).Query(ctx, listActivePromotions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Promotion
	for rows.Next() {
		var (
			p                            domain.Promotion
			start, end                   pgtype.Timestamptz
			conditions, actions, targets []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Priority, &p.Stackable, &start, &end,
			&conditions, &actions, &targets); err != nil {
			return nil, err
		}
		p.IsActive = true
		p.StartDate = toTimePtr(start)
		p.EndDate = toTimePtr(end)
		if err := unmarshalJSONB(conditions, &p.Conditions); err != nil {
			return nil, fmt.Errorf("promotion %s conditions: %w", p.ID, err)
		}
		if err := unmarshalJSONB(actions, &p.Actions); err != nil {
			return nil, fmt.Errorf("promotion %s actions: %w", p.ID, err)
		}
		if err := unmarshalJSONB(targets, &p.ApplicableProductVariants); err != nil {
			return nil, fmt.Errorf("promotion %s targeting: %w", p.ID, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func unmarshalJSONB(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
