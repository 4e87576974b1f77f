package metadata

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/slipstream/netcollections/internal/collections"
)

// Cache provides in-memory caching with TTL for network metadata.
type Cache struct {
	networks *lru.LRU[collections.NetworkID, collections.Network]
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
}

// DefaultCacheConfig returns default cache configuration. Network names change
// rarely, so entries live for a day.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      24 * time.Hour,
		MaxItems: 256,
	}
}

// NewCache creates a new cache with the given configuration.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxItems == 0 {
		cfg.MaxItems = 256
	}

	return &Cache{
		networks: lru.NewLRU[collections.NetworkID, collections.Network](cfg.MaxItems, nil, cfg.TTL),
	}
}

// GetNetwork retrieves a cached network.
func (c *Cache) GetNetwork(id collections.NetworkID) (*collections.Network, bool) {
	network, ok := c.networks.Get(id)
	if !ok {
		return nil, false
	}
	return &network, true
}

// SetNetwork stores a network.
func (c *Cache) SetNetwork(network collections.Network) {
	c.networks.Add(network.ID, network)
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.networks.Purge()
}

// Len returns the number of items in the cache.
func (c *Cache) Len() int {
	return c.networks.Len()
}
