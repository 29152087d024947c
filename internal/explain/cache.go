package explain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ai-calculator/internal/models"
)

// Cache stores explanation steps by prompt digest.
type Cache interface {
	Name() string
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, steps []string) error
	Stats() CacheStats
}

type CacheStats struct {
	Backend string `json:"backend"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Errors  uint64 `json:"errors"`
}

type counters struct {
	hits, misses, sets, errors atomic.Uint64
}

func (c *counters) snapshot(backend string) CacheStats {
	return CacheStats{
		Backend: backend,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Errors:  c.errors.Load(),
	}
}

// RedisCache keeps steps as JSON under prefix+key with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  counters
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.misses.Add(1)
			return nil, false, nil
		}
		c.stats.errors.Add(1)
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}
	var steps []string
	if err := json.Unmarshal(data, &steps); err != nil {
		c.stats.errors.Add(1)
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	c.stats.hits.Add(1)
	return steps, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, steps []string) error {
	data, err := json.Marshal(steps)
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache set error: %w", err)
	}
	c.stats.sets.Add(1)
	return nil
}

func (c *RedisCache) Stats() CacheStats { return c.stats.snapshot(c.Name()) }

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// DBCache keeps steps in the explanation_cache table. Entries older than ttl
// count as misses.
type DBCache struct {
	db    *gorm.DB
	ttl   time.Duration
	now   func() time.Time
	stats counters
}

func NewDBCache(db *gorm.DB, ttl time.Duration) *DBCache {
	return &DBCache{db: db, ttl: ttl, now: time.Now}
}

func (c *DBCache) Name() string { return "database" }

func (c *DBCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	var entry models.ExplanationCacheEntry
	err := c.db.WithContext(ctx).First(&entry, "cache_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.stats.misses.Add(1)
			return nil, false, nil
		}
		c.stats.errors.Add(1)
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		c.stats.misses.Add(1)
		return nil, false, nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(entry.Steps), &steps); err != nil {
		c.stats.errors.Add(1)
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	c.stats.hits.Add(1)
	return steps, true, nil
}

func (c *DBCache) Set(ctx context.Context, key string, steps []string) error {
	data, err := json.Marshal(steps)
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}
	entry := models.ExplanationCacheEntry{CacheKey: key, Steps: string(data), CreatedAt: c.now().UTC()}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"steps", "created_at"}),
	}).Create(&entry).Error
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache set error: %w", err)
	}
	c.stats.sets.Add(1)
	return nil
}

func (c *DBCache) Stats() CacheStats { return c.stats.snapshot(c.Name()) }
