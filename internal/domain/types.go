package domain

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
)

// --- Shared Custom Types ---

// JSONB is a helper for handling JSONB columns in Postgres as a map.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, j)
}

// VariantTarget scopes a promotion or coupon to a product, either all of its
// variants or only the listed ones.
type VariantTarget struct {
	ProductID   string   `json:"productId"`
	VariantMode string   `json:"variantMode"` // all, specific
	VariantIDs  []string `json:"variantIds,omitempty"`
}
