// Package cache holds the Redis-backed recommendation result cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "recommendations"

// RecommendationCache stores ranked recommendation bundles per student
// profile. Entries expire after the configured TTL so that profile edits
// become visible without explicit invalidation.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RecommendationCache {
	return &RecommendationCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Key builds the cache key. The limit is part of the key because a slate of
// six and a slate of ten are different documents.
func Key(profileID string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, profileID, limit)
}

// Get returns the cached bundle for the profile, or found=false on a miss.
// Redis errors other than a plain miss are returned to the caller.
func (c *RecommendationCache) Get(ctx context.Context, profileID string, limit int) (*models.RecommendationBundle, bool, error) {
	raw, err := c.client.Get(ctx, Key(profileID, limit)).Result()
	if err == redis.Nil {
		metrics.RecommendationCacheHits.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.RecommendationCacheHits.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var bundle models.RecommendationBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		c.log.Warn("Discarding unreadable cache entry", map[string]interface{}{
			"profileId": profileID,
			"error":     err.Error(),
		})
		metrics.RecommendationCacheHits.WithLabelValues("miss").Inc()
		return nil, false, nil
	}

	metrics.RecommendationCacheHits.WithLabelValues("hit").Inc()
	return &bundle, true, nil
}

// Set stores the bundle under the profile key with the cache TTL.
func (c *RecommendationCache) Set(ctx context.Context, bundle *models.RecommendationBundle, limit int) error {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := c.client.Set(ctx, Key(bundle.ProfileID, limit), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate removes every cached slate for the profile, regardless of limit.
func (c *RecommendationCache) Invalidate(ctx context.Context, profileID string) (int64, error) {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, profileID)

	var removed int64
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("cache invalidate: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("cache scan: %w", err)
	}

	return removed, nil
}

// TTL exposes the configured entry lifetime.
func (c *RecommendationCache) TTL() time.Duration {
	return c.ttl
}
