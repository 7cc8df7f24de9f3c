// Package cache provides an optional Redis read-through cache for computed
// availability. A slightly stale view is acceptable because booking creation
// re-validates under the per-master lock; mutations invalidate eagerly anyway
// to keep the UI honest.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zapislon/internal/metrics"
	"zapislon/internal/slots"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AvailabilityCache caches slot computations keyed by master, date and
// service duration.
type AvailabilityCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// New creates an availability cache. Returns nil when client is nil or the
// TTL is non-positive; a nil cache is a valid no-op collaborator.
func New(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &AvailabilityCache{redis: client, ttl: ttl, logger: logger}
}

func slotsKey(masterID int64, date time.Time, durationMinutes int) string {
	return fmt.Sprintf("slots:%d:%s:%d", masterID, date.Format("2006-01-02"), durationMinutes)
}

func daySetKey(masterID int64, date time.Time) string {
	return fmt.Sprintf("slots-keys:%d:%s", masterID, date.Format("2006-01-02"))
}

// Get returns cached slots, or ok=false on miss. Cache errors degrade to a
// miss; the calculator is always the fallback.
func (c *AvailabilityCache) Get(ctx context.Context, masterID int64, date time.Time, durationMinutes int) ([]slots.Slot, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.redis.Get(ctx, slotsKey(masterID, date, durationMinutes)).Result()
	if err != nil {
		metrics.IncCacheMiss()
		return nil, false
	}
	var cached []slots.Slot
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		metrics.IncCacheMiss()
		return nil, false
	}
	metrics.IncCacheHit()
	return cached, true
}

// Put stores a slot computation. Each key is also registered in a per-day
// set so InvalidateDay can drop every duration variant at once.
func (c *AvailabilityCache) Put(ctx context.Context, masterID int64, date time.Time, durationMinutes int, result []slots.Slot) {
	if c == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := slotsKey(masterID, date, durationMinutes)
	pipe := c.redis.Pipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, daySetKey(masterID, date), key)
	pipe.Expire(ctx, daySetKey(masterID, date), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("availability cache write failed")
	}
}

// InvalidateDay drops all cached computations for (master, date).
func (c *AvailabilityCache) InvalidateDay(ctx context.Context, masterID int64, date time.Time) {
	if c == nil {
		return
	}
	setKey := daySetKey(masterID, date)
	keys, err := c.redis.SMembers(ctx, setKey).Result()
	if err != nil {
		c.logger.Debug().Err(err).Msg("availability cache invalidation read failed")
		return
	}
	keys = append(keys, setKey)
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("availability cache invalidation failed")
	}
}
