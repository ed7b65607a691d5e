package pgstore

import (
	"context"

	"settlement-engine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type integrityRepository struct {
	db *pgxpool.Pool
}

func NewIntegrityRepository(db *pgxpool.Pool) domain.IntegrityRepository {
	return &integrityRepository{db: db}
}

func (r *integrityRepository) PutIntegrityRecord(ctx context.Context, rec *domain.IntegrityRecord) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO order_integrity (key, order_id, hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET hash = EXCLUDED.hash, created_at = EXCLUDED.created_at`,
		domain.IntegrityKey(rec.OrderID), rec.OrderID, rec.Hash, rec.CreatedAt)
	return err
}

func (r *integrityRepository) GetIntegrityRecord(ctx context.Context, orderID string) (*domain.IntegrityRecord, error) {
	rec := &domain.IntegrityRecord{}
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT order_id, hash, created_at FROM order_integrity WHERE key = $1`,
		domain.IntegrityKey(orderID),
	).Scan(&rec.OrderID, &rec.Hash, &rec.CreatedAt)
	if err != nil {
		return nil, notFound(err, "integrity record", orderID)
	}
	return rec, nil
}
