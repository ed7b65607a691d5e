package usecase

import (
	"context"
	"fmt"
	"time"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/cache"
	"settlement-engine/pkg/logger"
)

// MasterData serves active promotions and shipping rules through a short
// TTL cache. Admin edits become visible when the entry expires or after
// Invalidate.
type MasterData struct {
	promoRepo    domain.PromotionRepository
	shippingRepo domain.ShippingRuleRepository
	cache        cache.Store
	ttl          time.Duration
}

func NewMasterData(promoRepo domain.PromotionRepository, shippingRepo domain.ShippingRuleRepository, store cache.Store, ttl time.Duration) *MasterData {
	return &MasterData{
		promoRepo:    promoRepo,
		shippingRepo: shippingRepo,
		cache:        store,
		ttl:          ttl,
	}
}

func (m *MasterData) ActivePromotions(ctx context.Context) ([]domain.Promotion, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(cache.KeyActivePromotions); ok {
			if promos, ok := v.([]domain.Promotion); ok {
				return promos, nil
			}
		}
	}
	promos, err := m.promoRepo.ListActivePromotions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotions: %w", err)
	}
	if m.cache != nil {
		m.cache.Set(cache.KeyActivePromotions, promos, m.ttl)
	}
	return promos, nil
}

func (m *MasterData) ActiveShippingRules(ctx context.Context) ([]domain.ShippingRule, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(cache.KeyActiveShippingRules); ok {
			if rules, ok := v.([]domain.ShippingRule); ok {
				return rules, nil
			}
		}
	}
	rules, err := m.shippingRepo.GetActiveShippingRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping rules: %w", err)
	}
	if m.cache != nil {
		m.cache.Set(cache.KeyActiveShippingRules, rules, m.ttl)
	}
	return rules, nil
}

// Invalidate drops cached master data.
func (m *MasterData) Invalidate(ctx context.Context) {
	if m.cache == nil {
		return
	}
	m.cache.Delete(cache.KeyActivePromotions)
	m.cache.Delete(cache.KeyActiveShippingRules)
	logger.WithContext(ctx).Debug().Msg("master data cache invalidated")
}
