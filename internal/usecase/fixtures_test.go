package usecase

import (
	"testing"
	"time"

	"settlement-engine/internal/domain"
	memcache "settlement-engine/internal/infrastructure/cache"
	"settlement-engine/internal/repository/memory"
)

const testLocation = "main"

func ptr[T any](v T) *T { return &v }

// testEnv wires the settlement path on the in-memory store.
type testEnv struct {
	store      *memory.Store
	masterData *MasterData
	coupons    *CouponValidator
	promotions *PromotionEngine
	reconciler *Reconciler
	committer  *Committer
	ledger     *IntegrityLedger
	settlement *SettlementUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	seedCatalog(store)

	env := &testEnv{store: store}
	env.masterData = NewMasterData(store, store, memcache.NewMemoryStore(time.Minute, time.Minute), time.Minute)
	env.coupons = NewCouponValidator(store, store, store)
	env.promotions = NewPromotionEngine(store)
	env.reconciler = NewReconciler(store, env.coupons, env.promotions, NewShippingCalculator(380, 500, 1.0), env.masterData, 1, 2)
	env.committer = NewCommitter(store, store, RetryPolicy{MaxAttempts: 3, Backoff: LinearBackoff(0)})
	env.ledger = NewIntegrityLedger(store, store, "test-secret")
	env.settlement = NewSettlementUsecase(env.reconciler, env.committer, env.ledger, store, store, testLocation)
	return env
}

// seedCatalog:
//
//	shirt  1000, 0.5kg, sizes M and L, 10 of each
//	mug    300 (sale 250), no weight, 3 in stock
//	combo  shirt+mug, original 1250, bundle 1100
func seedCatalog(store *memory.Store) {
	store.PutProduct(domain.CatalogProduct{
		ID:          "shirt",
		Name:        "Shirt",
		BasePrice:   1000,
		BuyingCost:  600,
		Weight:      ptr(0.5),
		CategoryIDs: []string{"apparel"},
		Variants: []domain.CatalogVariant{
			{ID: "shirt-red", ProductID: "shirt", Price: ptr(1200.0)},
			{ID: "shirt-blue", ProductID: "shirt"},
		},
		Stock: 30,
	})
	store.PutProduct(domain.CatalogProduct{
		ID:          "mug",
		Name:        "Mug",
		BasePrice:   300,
		SalePrice:   ptr(250.0),
		BuyingCost:  100,
		CategoryIDs: []string{"kitchen"},
		Stock:       3,
	})
	store.PutCombo(domain.Combo{ID: "breakfast", Name: "Breakfast", OriginalPrice: 1250, ComboPrice: 1100})

	for _, size := range []string{"M", "L"} {
		store.PutInventory(domain.InventoryRecord{
			Key:      domain.InventoryKey{ProductID: "shirt", Size: size, StockLocation: testLocation},
			Quantity: 10,
		})
	}
	store.PutInventory(domain.InventoryRecord{
		Key:      domain.InventoryKey{ProductID: "shirt", VariantID: "shirt-red", Size: "M", StockLocation: testLocation},
		Quantity: 10,
	})
	store.PutInventory(domain.InventoryRecord{
		Key:      domain.InventoryKey{ProductID: "mug", StockLocation: testLocation},
		Quantity: 3,
	})
}

func shirtLine(qty int) domain.CartItem {
	return domain.CartItem{ProductID: "shirt", Size: "M", Quantity: qty, Price: 1000}
}

func mugLine(qty int) domain.CartItem {
	return domain.CartItem{ProductID: "mug", Quantity: qty, Price: 250}
}

func inventoryQty(t *testing.T, store *memory.Store, key domain.InventoryKey) int {
	t.Helper()
	rec, err := store.GetInventory(t.Context(), key)
	if err != nil {
		t.Fatalf("read inventory %s: %v", key, err)
	}
	return rec.Quantity
}
