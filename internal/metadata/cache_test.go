package metadata

import (
	"testing"
	"time"

	"github.com/slipstream/netcollections/internal/collections"
)

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	cache.SetNetwork(collections.Network{ID: 49, Name: "HBO"})

	network, ok := cache.GetNetwork(49)
	if !ok {
		t.Fatal("expected network 49 to exist")
	}
	if network.Name != "HBO" {
		t.Errorf("expected HBO, got %q", network.Name)
	}
}

func TestCache_GetMissing(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 100})

	if _, ok := cache.GetNetwork(1); ok {
		t.Error("expected network to not exist")
	}
}

func TestCache_Expiration(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: 50 * time.Millisecond, MaxItems: 100})

	cache.SetNetwork(collections.Network{ID: 49, Name: "HBO"})

	if _, ok := cache.GetNetwork(49); !ok {
		t.Error("expected network to exist immediately")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := cache.GetNetwork(49); ok {
		t.Error("expected network to be expired")
	}
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 2})

	cache.SetNetwork(collections.Network{ID: 1, Name: "One"})
	cache.SetNetwork(collections.Network{ID: 2, Name: "Two"})
	cache.SetNetwork(collections.Network{ID: 3, Name: "Three"})

	if cache.Len() != 2 {
		t.Errorf("expected 2 items, got %d", cache.Len())
	}
	if _, ok := cache.GetNetwork(1); ok {
		t.Error("expected least recently used network to be evicted")
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache(DefaultCacheConfig())
	cache.SetNetwork(collections.Network{ID: 1, Name: "One"})
	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d", cache.Len())
	}
}
