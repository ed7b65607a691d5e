package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"settlement-engine/internal/domain"
	"settlement-engine/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(id string, channel domain.Channel, items ...domain.CartItem) *domain.Order {
	return &domain.Order{
		ID:            id,
		Channel:       channel,
		Status:        domain.OrderStatusPending,
		Items:         items,
		StockLocation: testLocation,
	}
}

var (
	mugKey    = domain.InventoryKey{ProductID: "mug", StockLocation: testLocation}
	shirtMKey = domain.InventoryKey{ProductID: "shirt", Size: "M", StockLocation: testLocation}
)

func TestCommitter_DecrementsStockAndWritesOrder(t *testing.T) {
	env := newTestEnv(t)

	order := testOrder("o-1", domain.ChannelStore, shirtLine(2), shirtLine(1), mugLine(1))
	require.NoError(t, env.committer.Commit(t.Context(), order))

	assert.Equal(t, 7, inventoryQty(t, env.store, shirtMKey))
	assert.Equal(t, 2, inventoryQty(t, env.store, mugKey))

	ps, err := env.store.GetProductStock(t.Context(), "shirt")
	require.NoError(t, err)
	assert.Equal(t, 27, ps.Stock)
	assert.Equal(t, int64(1), ps.Version)

	stored, err := env.store.GetOrderByID(t.Context(), "o-1")
	require.NoError(t, err)
	assert.Len(t, stored.Items, 3)

	logs := env.store.InventoryLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, -3, logs[0].Change)
	assert.Equal(t, "o-1", logs[0].OrderID)
	assert.Equal(t, "order_placed", logs[0].Reason)
}

func TestCommitter_InsufficientStockLeavesInventoryUntouched(t *testing.T) {
	env := newTestEnv(t)

	err := env.committer.Commit(t.Context(), testOrder("o-1", domain.ChannelWebsite, shirtLine(1), mugLine(5)))

	var stock *domain.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, mugKey, stock.Key)
	assert.Equal(t, 3, stock.Available)
	assert.Equal(t, 5, stock.Requested)

	assert.Equal(t, 3, inventoryQty(t, env.store, mugKey))
	assert.Equal(t, 10, inventoryQty(t, env.store, shirtMKey))
	_, err = env.store.GetOrderByID(t.Context(), "o-1")
	assert.True(t, domain.IsNotFound(err))
}

func TestCommitter_MissingInventoryRow(t *testing.T) {
	env := newTestEnv(t)

	line := shirtLine(1)
	line.Size = "XXL"
	err := env.committer.Commit(t.Context(), testOrder("o-1", domain.ChannelStore, line))
	assert.True(t, domain.IsNotFound(err))
}

func TestCommitter_ConcurrentLastUnit(t *testing.T) {
	store := memory.NewStore()
	store.PutProduct(domain.CatalogProduct{ID: "lamp", BasePrice: 900, Stock: 1})
	key := domain.InventoryKey{ProductID: "lamp", StockLocation: testLocation}
	store.PutInventory(domain.InventoryRecord{Key: key, Quantity: 1})
	committer := NewCommitter(store, store, RetryPolicy{MaxAttempts: 3, Backoff: LinearBackoff(0)})

	const workers = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order := testOrder("lamp-"+string(rune('a'+i)), domain.ChannelWebsite,
				domain.CartItem{ProductID: "lamp", Quantity: 1, Price: 900})
			errs[i] = committer.Commit(context.Background(), order)
		}(i)
	}
	wg.Wait()

	var committed int
	for _, err := range errs {
		if err == nil {
			committed++
			continue
		}
		var stock *domain.InsufficientStockError
		if !errors.As(err, &stock) {
			assert.True(t, domain.IsConflict(err), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 0, inventoryQty(t, store, key))
}

// conflictingStore fails the first n writes with a ConflictError.
type conflictingStore struct {
	domain.InventoryStore
	mu        sync.Mutex
	conflicts int
	writes    int
}

func (s *conflictingStore) ApplySettlement(ctx context.Context, batch domain.SettlementBatch) error {
	s.mu.Lock()
	s.writes++
	fail := s.writes <= s.conflicts
	s.mu.Unlock()
	if fail {
		return &domain.ConflictError{Op: "apply settlement"}
	}
	return s.InventoryStore.ApplySettlement(ctx, batch)
}

func TestCommitter_RetriesConflicts(t *testing.T) {
	env := newTestEnv(t)
	fake := &conflictingStore{InventoryStore: env.store, conflicts: 2}
	committer := NewCommitter(fake, env.store, RetryPolicy{MaxAttempts: 3, Backoff: LinearBackoff(0)})

	require.NoError(t, committer.Commit(t.Context(), testOrder("o-1", domain.ChannelStore, mugLine(1))))
	assert.Equal(t, 3, fake.writes)
	assert.Equal(t, 2, inventoryQty(t, env.store, mugKey))
}

func TestCommitter_GivesUpAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	fake := &conflictingStore{InventoryStore: env.store, conflicts: 10}
	committer := NewCommitter(fake, env.store, RetryPolicy{MaxAttempts: 3, Backoff: LinearBackoff(0)})

	err := committer.Commit(t.Context(), testOrder("o-1", domain.ChannelWebsite, mugLine(1)))
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, 3, fake.writes)
	assert.Equal(t, 3, inventoryQty(t, env.store, mugKey))
}
