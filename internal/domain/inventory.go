package domain

import (
	"context"
	"fmt"
	"time"
)

// InventoryKey addresses one stock row.
type InventoryKey struct {
	ProductID     string `json:"productId"`
	VariantID     string `json:"variantId"`
	Size          string `json:"size"`
	StockLocation string `json:"stockLocation"`
}

func (k InventoryKey) String() string {
	return fmt.Sprintf("%s/%s/%s@%s", k.ProductID, k.VariantID, k.Size, k.StockLocation)
}

type InventoryRecord struct {
	ID        string       `json:"id"`
	Key       InventoryKey `json:"key"`
	Quantity  int          `json:"quantity"` // never negative
	Version   int64        `json:"version"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ProductStock is the product-level aggregate counter kept next to the rows.
type ProductStock struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
	Version   int64  `json:"version"`
}

type InventoryWrite struct {
	RecordID        string
	Key             InventoryKey
	ExpectedVersion int64
	NewQuantity     int
	Delta           int
}

type ProductStockWrite struct {
	ProductID       string
	ExpectedVersion int64
	NewStock        int
}

// SettlementBatch is everything one commit writes: all of it or none of it.
type SettlementBatch struct {
	Inventory []InventoryWrite
	Products  []ProductStockWrite
	Order     *Order
}

type InventoryStore interface {
	GetInventory(ctx context.Context, key InventoryKey) (*InventoryRecord, error)
	GetProductStock(ctx context.Context, productID string) (*ProductStock, error)
	// ApplySettlement writes the batch atomically. A version that moved since
	// it was read fails the whole batch with a ConflictError.
	ApplySettlement(ctx context.Context, batch SettlementBatch) error
}
