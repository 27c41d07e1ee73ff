package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentpay/warden/internal/domain"
)

// RedisCache implements the cache over Redis. Used as the Pro tier
// cache and as L2 in two-phase caching.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores a value in Redis with TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// GetReputation retrieves a cached merchant reputation.
func (c *RedisCache) GetReputation(ctx context.Context, merchantID string) (*domain.MerchantReputation, error) {
	raw, err := c.Get(ctx, reputationKey(merchantID))
	if err != nil || raw == nil {
		return nil, err
	}

	var rep domain.MerchantReputation
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, nil
	}
	return &rep, nil
}

// SetReputation caches a merchant reputation.
func (c *RedisCache) SetReputation(ctx context.Context, merchantID string, rep *domain.MerchantReputation, ttl time.Duration) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return c.Set(ctx, reputationKey(merchantID), raw, ttl)
}

// Ping checks Redis health.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
