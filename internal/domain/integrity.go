package domain

import (
	"context"
	"time"
)

const integrityKeyPrefix = "hash_"

func IntegrityKey(orderID string) string {
	return integrityKeyPrefix + orderID
}

type IntegrityRecord struct {
	OrderID   string    `json:"orderId"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// IntegrityRepository stores one record per order under IntegrityKey,
// overwriting any previous one.
type IntegrityRepository interface {
	PutIntegrityRecord(ctx context.Context, rec *IntegrityRecord) error
	GetIntegrityRecord(ctx context.Context, orderID string) (*IntegrityRecord, error)
}
