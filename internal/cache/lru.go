// Package cache provides caching implementations for merchant
// reputation lookups.
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/agentpay/warden/internal/domain"
)

// LRUCache is a thread-safe LRU cache with TTL support. Used as the
// Community tier cache and as L1 in two-phase caching.
type LRUCache struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache with the specified max size.
func NewLRUCache(maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &LRUCache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves a value from cache. Returns nil, nil on miss or
// expiry.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, nil
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)
		return nil, nil
	}

	c.order.MoveToFront(elem)
	return entry.value, nil
}

// Set stores a value with expiration, evicting the least recently
// used entry when full.
func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(elem)
		return nil
	}

	for len(c.items) >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}

	elem := c.order.PushFront(&cacheEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	c.items[key] = elem
	return nil
}

// Delete removes a value from cache.
func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
	return nil
}

// GetReputation retrieves a cached merchant reputation.
func (c *LRUCache) GetReputation(ctx context.Context, merchantID string) (*domain.MerchantReputation, error) {
	raw, err := c.Get(ctx, reputationKey(merchantID))
	if err != nil || raw == nil {
		return nil, err
	}

	var rep domain.MerchantReputation
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, nil // treat corrupt entries as a miss
	}
	return &rep, nil
}

// SetReputation caches a merchant reputation.
func (c *LRUCache) SetReputation(ctx context.Context, merchantID string, rep *domain.MerchantReputation, ttl time.Duration) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return c.Set(ctx, reputationKey(merchantID), raw, ttl)
}

// Ping always succeeds for the in-process cache.
func (c *LRUCache) Ping(_ context.Context) error { return nil }

// Close clears the cache.
func (c *LRUCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order = list.New()
	return nil
}

// Stats returns current size and capacity.
func (c *LRUCache) Stats() (size int, capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items), c.maxSize
}

func reputationKey(merchantID string) string {
	return "reputation:" + merchantID
}
