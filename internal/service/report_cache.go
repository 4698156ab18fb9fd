package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// RedisReportKeyPrefix namespaces every cached dashboard payload
	RedisReportKeyPrefix = "report:"

	// Timeout for individual Redis operations
	redisCacheTimeout = 2 * time.Second

	// Keys deleted per pipeline when invalidating
	invalidateBatchSize = 500
)

// =============================================================================
// Types
// =============================================================================

// ReportCache is a cache-aside store for dashboard aggregates.
type ReportCache interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	// Invalidate drops every cached report.
	Invalidate(ctx context.Context) error
}

type RedisReportCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisReportCache(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

// =============================================================================
// Public Methods
// =============================================================================

func (c *RedisReportCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	raw, err := c.redisClient.Get(ctx, RedisReportKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get report %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode report %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	if err := c.redisClient.Set(ctx, RedisReportKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set report %s: %w", key, err)
	}
	return nil
}

// Invalidate scans the report keyspace and deletes it one pipeline per batch.
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	iter := c.redisClient.Scan(ctx, 0, RedisReportKeyPrefix+"*", invalidateBatchSize).Iterator()
	batch := make([]string, 0, invalidateBatchSize)
	var deleted int

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		pipe := c.redisClient.Pipeline()
		for _, key := range batch {
			pipe.Del(ctx, key)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("delete report keys: %w", err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= invalidateBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan report keys: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	c.log.Debugf("Invalidated %d cached reports", deleted)
	return nil
}

type noopReportCache struct{}

// NewNoopReportCache never stores anything, so every read hits the database.
func NewNoopReportCache() ReportCache {
	return noopReportCache{}
}

func (noopReportCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (noopReportCache) Set(context.Context, string, interface{}) error         { return nil }
func (noopReportCache) Invalidate(context.Context) error                       { return nil }
