package memory

import (
	"context"
	"time"

	"settlement-engine/internal/domain"
)

const inventoryLogReason = "order_placed"

// --- domain.InventoryStore ---

func (s *Store) GetInventory(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.inventory[key]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "inventory", ID: key.String()}
	}
	return &rec, nil
}

func (s *Store) GetProductStock(ctx context.Context, productID string) (*domain.ProductStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok || p.IsDeleted {
		return nil, &domain.NotFoundError{Resource: "product", ID: productID}
	}
	return &domain.ProductStock{ProductID: productID, Stock: p.Stock, Version: s.versions[productID]}, nil
}

// ApplySettlement checks every expected version before touching anything,
// so a conflict leaves the store exactly as it was.
func (s *Store) ApplySettlement(ctx context.Context, batch domain.SettlementBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range batch.Inventory {
		rec, ok := s.inventory[w.Key]
		if !ok {
			return &domain.NotFoundError{Resource: "inventory", ID: w.Key.String()}
		}
		if rec.Version != w.ExpectedVersion {
			return &domain.ConflictError{Op: "write inventory " + w.Key.String()}
		}
		if w.NewQuantity < 0 {
			return &domain.InsufficientStockError{Key: w.Key, Available: rec.Quantity, Requested: rec.Quantity - w.NewQuantity}
		}
	}
	for _, w := range batch.Products {
		if _, ok := s.products[w.ProductID]; !ok {
			return &domain.NotFoundError{Resource: "product", ID: w.ProductID}
		}
		if s.versions[w.ProductID] != w.ExpectedVersion {
			return &domain.ConflictError{Op: "write product stock " + w.ProductID}
		}
	}

	now := time.Now().UTC()
	orderID := ""
	if batch.Order != nil {
		orderID = batch.Order.ID
	}
	for _, w := range batch.Inventory {
		rec := s.inventory[w.Key]
		rec.Quantity = w.NewQuantity
		rec.Version++
		rec.UpdatedAt = now
		s.inventory[w.Key] = rec
		s.logs = append(s.logs, InventoryLog{
			InventoryID: rec.ID,
			OrderID:     orderID,
			Change:      w.Delta,
			Reason:      inventoryLogReason,
			CreatedAt:   now,
		})
	}
	for _, w := range batch.Products {
		p := s.products[w.ProductID]
		p.Stock = w.NewStock
		s.products[w.ProductID] = p
		s.versions[w.ProductID]++
	}
	if batch.Order != nil {
		s.orders[batch.Order.ID] = copyOrder(*batch.Order)
	}
	return nil
}
