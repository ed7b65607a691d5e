package domain

import (
	"context"
	"time"
)

// ShippingRule prices a [MinWeight, MaxWeight) band.
type ShippingRule struct {
	ID            int32     `json:"id"`
	Label         string    `json:"label"`
	MinWeight     float64   `json:"minWeight"`
	MaxWeight     float64   `json:"maxWeight"`
	Rate          float64   `json:"rate"`
	IsIncremental bool      `json:"isIncremental"`
	BaseWeight    float64   `json:"baseWeight"`
	PerKgRate     float64   `json:"perKgRate"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ShippingRuleRepository interface {
	GetActiveShippingRules(ctx context.Context) ([]ShippingRule, error)
}
