package domain

import (
	"context"
)

// --- Interfaces ---

type TransactionManager interface {
	// Do runs fn as a single atomic unit.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// DoSerializable runs fn in a serializable transaction. A lost race
	// surfaces as a ConflictError so the caller can rerun the whole body.
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

type CatalogVariant struct {
	ID        string   `json:"id"`
	ProductID string   `json:"productId"`
	Price     *float64 `json:"price"` // Override base price
	SalePrice *float64 `json:"salePrice"`
	Weight    *float64 `json:"weight"`
}

// CatalogProduct is the authoritative pricing snapshot of a product.
type CatalogProduct struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	BasePrice   float64          `json:"basePrice"`
	SalePrice   *float64         `json:"salePrice"`
	BuyingCost  float64          `json:"buyingCost"`
	Weight      *float64         `json:"weight"`
	CategoryIDs []string         `json:"categoryIds"`
	Variants    []CatalogVariant `json:"variants"`
	Stock       int              `json:"stock"` // aggregate across inventory rows
	IsDeleted   bool             `json:"-"`
}

type Combo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	OriginalPrice float64 `json:"originalPrice"`
	ComboPrice    float64 `json:"comboPrice"`
	IsDeleted     bool    `json:"-"`
}

type CatalogReader interface {
	// GetProductsByIDs skips ids that do not exist or are tombstoned.
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]CatalogProduct, error)
	GetCombosByIDs(ctx context.Context, ids []string) (map[string]Combo, error)
}
