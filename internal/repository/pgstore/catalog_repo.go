package pgstore

import (
	"context"

	"settlement-engine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) domain.CatalogReader {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.CatalogProduct, error) {
	result := make(map[string]domain.CatalogProduct, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	q := conn(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, base_price, sale_price, buying_cost, weight, category_ids, stock
		FROM products
		WHERE id = ANY($1) AND is_deleted = FALSE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.CatalogProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.BasePrice, &p.SalePrice, &p.BuyingCost,
			&p.Weight, &p.CategoryIDs, &p.Stock); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// L9: One round trip for every variant of the requested products
	vrows, err := q.Query(ctx, `
		SELECT id, product_id, price, sale_price, weight
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, id`, ids)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var v domain.CatalogVariant
		if err := vrows.Scan(&v.ID, &v.ProductID, &v.Price, &v.SalePrice, &v.Weight); err != nil {
			return nil, err
		}
		if p, ok := result[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
			result[v.ProductID] = p
		}
	}
	return result, vrows.Err()
}

func (r *catalogRepository) GetCombosByIDs(ctx context.Context, ids []string) (map[string]domain.Combo, error) {
	result := make(map[string]domain.Combo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id, name, original_price, combo_price
		FROM combos
		WHERE id = ANY($1) AND is_deleted = FALSE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Combo
		if err := rows.Scan(&c.ID, &c.Name, &c.OriginalPrice, &c.ComboPrice); err != nil {
			return nil, err
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}
