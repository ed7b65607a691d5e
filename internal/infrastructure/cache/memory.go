package cache

import (
	"time"

	"settlement-engine/pkg/cache"

	gocache "github.com/patrickmn/go-cache"
)

type memoryStore struct {
	store *gocache.Cache
}

// NewMemoryStore returns a go-cache backed store. Expired entries are
// swept every cleanupInterval.
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) cache.Store {
	return &memoryStore{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

func (c *memoryStore) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *memoryStore) Set(key string, value interface{}, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

func (c *memoryStore) Delete(key string) {
	c.store.Delete(key)
}

func (c *memoryStore) Flush() {
	c.store.Flush()
}

func (c *memoryStore) ItemCount() int {
	return c.store.ItemCount()
}
