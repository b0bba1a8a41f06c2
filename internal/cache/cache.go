// Package cache provides optional Redis caching for availability reads.
// All operations degrade to a miss when Redis is absent or unreachable, so
// the booking flow never depends on it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON read-through cache. A nil client disables it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a cache over an optional Redis client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Enabled reports whether the cache is backed by a live client.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// StudioDayKey is the cache key for one studio's availability on one date.
func StudioDayKey(studioID, date string) string {
	return fmt.Sprintf("availability:studio:%s:%s", studioID, date)
}

// AreaDayKey is the cache key for an area's availability on one date.
func AreaDayKey(area, date string) string {
	return fmt.Sprintf("availability:area:%s:%s", area, date)
}

// Get reads a cached value into out. Returns false on a miss, a decode
// failure or any Redis error.
func (c *Cache) Get(ctx context.Context, key string, out any) bool {
	if !c.Enabled() {
		return false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

// Set stores a value under key with the configured TTL, best effort.
func (c *Cache) Set(ctx context.Context, key string, val any) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops keys, best effort.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	_ = c.client.Del(ctx, keys...).Err()
}

// InvalidateStudioDay drops both the studio-level and area-level entries
// touched by a reservation change.
func (c *Cache) InvalidateStudioDay(ctx context.Context, studioID, area, date string) {
	c.Invalidate(ctx, StudioDayKey(studioID, date), AreaDayKey(area, date))
}
