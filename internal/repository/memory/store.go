// Package memory is an in-process backend for development and tests. Every
// repository interface the settlement path needs is served by one Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"settlement-engine/internal/domain"

	"github.com/google/uuid"
)

var (
	_ domain.TransactionManager     = (*Store)(nil)
	_ domain.CatalogReader          = (*Store)(nil)
	_ domain.CouponRepository       = (*Store)(nil)
	_ domain.PromotionRepository    = (*Store)(nil)
	_ domain.ShippingRuleRepository = (*Store)(nil)
	_ domain.InventoryStore         = (*Store)(nil)
	_ domain.OrderRepository        = (*Store)(nil)
	_ domain.UserRepository         = (*Store)(nil)
	_ domain.IntegrityRepository    = (*Store)(nil)
)

type Store struct {
	mu sync.RWMutex

	products   map[string]domain.CatalogProduct
	versions   map[string]int64 // product stock versions
	combos     map[string]domain.Combo
	inventory  map[domain.InventoryKey]domain.InventoryRecord
	coupons    map[string]domain.Coupon // by code
	usages     []domain.CouponUsage
	promotions map[string]domain.Promotion
	rules      []domain.ShippingRule
	users      map[string]domain.User
	orders     map[string]domain.Order
	integrity  map[string]domain.IntegrityRecord // by IntegrityKey
	logs       []InventoryLog
}

// InventoryLog mirrors the inventory_logs table.
type InventoryLog struct {
	InventoryID string
	OrderID     string
	Change      int
	Reason      string
	CreatedAt   time.Time
}

func NewStore() *Store {
	return &Store{
		products:   make(map[string]domain.CatalogProduct),
		versions:   make(map[string]int64),
		combos:     make(map[string]domain.Combo),
		inventory:  make(map[domain.InventoryKey]domain.InventoryRecord),
		coupons:    make(map[string]domain.Coupon),
		promotions: make(map[string]domain.Promotion),
		users:      make(map[string]domain.User),
		orders:     make(map[string]domain.Order),
		integrity:  make(map[string]domain.IntegrityRecord),
	}
}

// --- Seeding ---

func (s *Store) PutProduct(p domain.CatalogProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) PutCombo(c domain.Combo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combos[c.ID] = c
}

func (s *Store) PutInventory(rec domain.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	s.inventory[rec.Key] = rec
}

func (s *Store) PutCoupon(c domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.coupons[strings.ToUpper(c.Code)] = c
}

func (s *Store) PutPromotion(p domain.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions[p.ID] = p
}

func (s *Store) PutShippingRule(r domain.ShippingRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutOrder writes an order as-is, bypassing settlement.
func (s *Store) PutOrder(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = copyOrder(o)
}

// InventoryLogs returns a copy of the stock movement log.
func (s *Store) InventoryLogs() []InventoryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]InventoryLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// --- domain.TransactionManager ---

// Do runs fn directly. Atomicity comes from ApplySettlement holding the lock
// for the whole batch.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- domain.CatalogReader ---

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.CatalogProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.CatalogProduct, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok && !p.IsDeleted {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) GetCombosByIDs(ctx context.Context, ids []string) (map[string]domain.Combo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Combo, len(ids))
	for _, id := range ids {
		if c, ok := s.combos[id]; ok && !c.IsDeleted {
			out[id] = c
		}
	}
	return out, nil
}

// --- domain.CouponRepository ---

func (s *Store) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coupons[strings.ToUpper(code)]
	if !ok || c.IsDeleted {
		return nil, &domain.NotFoundError{Resource: "coupon", ID: code}
	}
	return &c, nil
}

func (s *Store) CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, u := range s.usages {
		if u.CouponID == couponID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) IncrementCouponUsage(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, c := range s.coupons {
		if c.ID == id {
			c.UsageCount++
			s.coupons[code] = c
			return nil
		}
	}
	return &domain.NotFoundError{Resource: "coupon", ID: id.String()}
}

func (s *Store) RecordCouponUsage(ctx context.Context, usage *domain.CouponUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages = append(s.usages, *usage)
	return nil
}

// --- domain.PromotionRepository ---

func (s *Store) ListActivePromotions(ctx context.Context) ([]domain.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Promotion, 0, len(s.promotions))
	for _, p := range s.promotions {
		if p.IsActive && !p.IsDeleted {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- domain.ShippingRuleRepository ---

func (s *Store) GetActiveShippingRules(ctx context.Context) ([]domain.ShippingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ShippingRule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- domain.UserRepository ---

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "user", ID: id}
	}
	return &u, nil
}

// --- domain.OrderRepository ---

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "order", ID: id}
	}
	out := copyOrder(o)
	return &out, nil
}

func (s *Store) CountActiveOrdersByUser(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, o := range s.orders {
		if o.UserID == userID && o.Status != domain.OrderStatusCancelled {
			n++
		}
	}
	return n, nil
}

// --- domain.IntegrityRepository ---

func (s *Store) PutIntegrityRecord(ctx context.Context, rec *domain.IntegrityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrity[domain.IntegrityKey(rec.OrderID)] = *rec
	return nil
}

func (s *Store) GetIntegrityRecord(ctx context.Context, orderID string) (*domain.IntegrityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.integrity[domain.IntegrityKey(orderID)]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "integrity record", ID: orderID}
	}
	return &rec, nil
}

func copyOrder(o domain.Order) domain.Order {
	out := o
	out.Items = append([]domain.CartItem(nil), o.Items...)
	out.AppliedPromotionIDs = append([]string(nil), o.AppliedPromotionIDs...)
	if o.Customer != nil {
		out.Customer = make(domain.JSONB, len(o.Customer))
		for k, v := range o.Customer {
			out.Customer[k] = v
		}
	}
	return out
}
