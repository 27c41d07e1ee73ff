package domain

import (
	"context"
	"time"
)

// Cache fronts the merchant directory to keep reputation lookups off
// the hot path. Two-phase caching: local LRU (community) optionally
// backed by Redis (pro).
type Cache interface {
	// Get retrieves a value. Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// GetReputation retrieves a cached merchant reputation.
	// Returns nil, nil on miss.
	GetReputation(ctx context.Context, merchantID string) (*MerchantReputation, error)

	// SetReputation caches a merchant reputation.
	SetReputation(ctx context.Context, merchantID string, rep *MerchantReputation, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings: check local first, then Redis.
	EnableTwoPhase bool
}
