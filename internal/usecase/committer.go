package usecase

import (
	"context"
	"fmt"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/logger"
	"settlement-engine/pkg/metrics"
)

// Committer decrements inventory and writes the order as one atomic batch.
// Store orders read outside a transaction and rely on the versioned batch
// write. Website orders run read and write inside a serializable
// transaction so two checkouts can never both see the last unit.
type Committer struct {
	store     domain.InventoryStore
	txManager domain.TransactionManager
	policy    RetryPolicy
}

func NewCommitter(store domain.InventoryStore, txManager domain.TransactionManager, policy RetryPolicy) *Committer {
	return &Committer{store: store, txManager: txManager, policy: policy}
}

// Commit retries the whole read-validate-write cycle on conflicts.
func (c *Committer) Commit(ctx context.Context, order *domain.Order) error {
	channel := string(order.Channel)
	return c.policy.Run(ctx, func(ctx context.Context, attempt int) error {
		metrics.CommitAttempt(channel)
		var err error
		if order.Channel == domain.ChannelWebsite {
			err = c.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
				return c.attempt(txCtx, order)
			})
		} else {
			err = c.attempt(ctx, order)
		}
		if err != nil && domain.IsConflict(err) {
			logger.WithContext(ctx).Warn().
				Err(err).
				Str("order_id", order.ID).
				Int("attempt", attempt).
				Msg("Settlement commit conflicted")
		}
		return err
	})
}

type stockDemand struct {
	key       domain.InventoryKey
	requested int
}

// attempt is one Start -> ReadInventory -> Validate -> Write pass.
func (c *Committer) attempt(ctx context.Context, order *domain.Order) error {
	// Same SKU on two lines is one demand
	demands := make([]*stockDemand, 0, len(order.Items))
	byKey := make(map[domain.InventoryKey]*stockDemand)
	perProduct := make(map[string]int)
	var products []string
	for _, item := range order.Items {
		key := domain.InventoryKey{
			ProductID:     item.ProductID,
			VariantID:     item.Variant(),
			Size:          item.Size,
			StockLocation: order.StockLocation,
		}
		d, ok := byKey[key]
		if !ok {
			d = &stockDemand{key: key}
			byKey[key] = d
			demands = append(demands, d)
		}
		d.requested += item.Quantity
		if _, seen := perProduct[item.ProductID]; !seen {
			products = append(products, item.ProductID)
		}
		perProduct[item.ProductID] += item.Quantity
	}

	batch := domain.SettlementBatch{Order: order}

	for _, d := range demands {
		rec, err := c.store.GetInventory(ctx, d.key)
		if err != nil {
			return fmt.Errorf("read inventory %s: %w", d.key, err)
		}
		remaining := rec.Quantity - d.requested
		if remaining < 0 {
			return &domain.InsufficientStockError{Key: d.key, Available: rec.Quantity, Requested: d.requested}
		}
		batch.Inventory = append(batch.Inventory, domain.InventoryWrite{
			RecordID:        rec.ID,
			Key:             d.key,
			ExpectedVersion: rec.Version,
			NewQuantity:     remaining,
			Delta:           -d.requested,
		})
	}

	for _, productID := range products {
		ps, err := c.store.GetProductStock(ctx, productID)
		if err != nil {
			return fmt.Errorf("read product stock %s: %w", productID, err)
		}
		requested := perProduct[productID]
		remaining := ps.Stock - requested
		if remaining < 0 {
			return &domain.InsufficientStockError{
				Key:       domain.InventoryKey{ProductID: productID, StockLocation: order.StockLocation},
				Available: ps.Stock,
				Requested: requested,
			}
		}
		batch.Products = append(batch.Products, domain.ProductStockWrite{
			ProductID:       productID,
			ExpectedVersion: ps.Version,
			NewStock:        remaining,
		})
	}

	return c.store.ApplySettlement(ctx, batch)
}
