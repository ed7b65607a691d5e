package cache

import "time"

// Keys for master data the settlement path reads on every request.
const (
	KeyActivePromotions    = "master:promotions:active"
	KeyActiveShippingRules = "master:shipping_rules:active"
)

// Store is a process-local TTL cache.
type Store interface {
	// Get returns the value and true when present and unexpired.
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Flush()
	ItemCount() int
}
