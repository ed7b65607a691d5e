package pgstore

import (
	"context"

	"settlement-engine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

const inventoryLogReason = "order_placed"

type inventoryRepository struct {
	db *pgxpool.Pool
	tx domain.TransactionManager
}

func NewInventoryRepository(db *pgxpool.Pool, tx domain.TransactionManager) domain.InventoryStore {
	return &inventoryRepository{db: db, tx: tx}
}

func (r *inventoryRepository) GetInventory(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	rec := &domain.InventoryRecord{}
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, product_id, variant_id, size, stock_location, quantity, version, updated_at
		FROM inventory
		WHERE product_id = $1 AND variant_id = $2 AND size = $3 AND stock_location = $4`,
		key.ProductID, key.VariantID, key.Size, key.StockLocation,
	).Scan(&rec.ID, &rec.Key.ProductID, &rec.Key.VariantID, &rec.Key.Size, &rec.Key.StockLocation,
		&rec.Quantity, &rec.Version, &rec.UpdatedAt)
	if err != nil {
		return nil, classify("read inventory", notFound(err, "inventory", key.String()))
	}
	return rec, nil
}

func (r *inventoryRepository) GetProductStock(ctx context.Context, productID string) (*domain.ProductStock, error) {
	ps := &domain.ProductStock{}
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, stock, version FROM products WHERE id = $1 AND is_deleted = FALSE`, productID,
	).Scan(&ps.ProductID, &ps.Stock, &ps.Version)
	if err != nil {
		return nil, classify("read product stock", notFound(err, "product", productID))
	}
	return ps, nil
}

// ApplySettlement writes every row guarded by its read version. Any guard
// that matches nothing rolls the whole batch back as a conflict.
func (r *inventoryRepository) ApplySettlement(ctx context.Context, batch domain.SettlementBatch) error {
	return r.tx.Do(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		orderID := ""
		if batch.Order != nil {
			orderID = batch.Order.ID
		}

		for _, w := range batch.Inventory {
			tag, err := q.Exec(ctx, `
				UPDATE inventory
				SET quantity = $1, version = version + 1, updated_at = NOW()
				WHERE id = $2 AND version = $3`,
				w.NewQuantity, w.RecordID, w.ExpectedVersion)
			if err != nil {
				return classify("write inventory", err)
			}
			if tag.RowsAffected() == 0 {
				return &domain.ConflictError{Op: "write inventory " + w.Key.String()}
			}
			if _, err := q.Exec(ctx, `
				INSERT INTO inventory_logs (inventory_id, order_id, change, reason)
				VALUES ($1, $2, $3, $4)`,
				w.RecordID, orderID, w.Delta, inventoryLogReason); err != nil {
				return classify("write inventory log", err)
			}
		}

		for _, w := range batch.Products {
			tag, err := q.Exec(ctx, `
				UPDATE products
				SET stock = $1, version = version + 1, updated_at = NOW()
				WHERE id = $2 AND version = $3`,
				w.NewStock, w.ProductID, w.ExpectedVersion)
			if err != nil {
				return classify("write product stock", err)
			}
			if tag.RowsAffected() == 0 {
				return &domain.ConflictError{Op: "write product stock " + w.ProductID}
			}
		}

		if batch.Order != nil {
			if err := upsertOrder(ctx, q, batch.Order); err != nil {
				return classify("write order", err)
			}
		}
		return nil
	})
}
