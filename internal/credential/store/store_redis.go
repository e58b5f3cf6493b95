package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/platform/metrics"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
)

const redisCredentialKeyPrefix = "credential:read:"

// RedisCache holds enriched credential reads in Redis with TTL eviction.
// Point lookups dominate the read traffic once a QR code is in the wild, so
// the hot path skips the three-table join.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedisCache constructs a Redis-backed credential read cache.
// Metrics may be nil.
func NewRedisCache(client *redis.Client, ttl time.Duration, metrics *metrics.Metrics) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, metrics: metrics}
}

// Find loads a cached enriched credential.
func (c *RedisCache) Find(ctx context.Context, credentialID id.CredentialID) (*models.EnrichedCredential, error) {
	data, err := c.client.Get(ctx, credentialKey(credentialID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.recordMiss()
			return nil, fmt.Errorf("credential cache %s: %w", credentialID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find credential cache: %w", err)
	}

	var enriched models.EnrichedCredential
	if err := json.Unmarshal(data, &enriched); err != nil {
		return nil, fmt.Errorf("decode credential cache: %w", err)
	}
	c.recordHit()
	return &enriched, nil
}

// Save writes an enriched credential to the cache, overwriting any existing
// entry.
func (c *RedisCache) Save(ctx context.Context, enriched *models.EnrichedCredential) error {
	if enriched == nil {
		return fmt.Errorf("credential is required")
	}
	payload, err := json.Marshal(enriched)
	if err != nil {
		return fmt.Errorf("encode credential cache: %w", err)
	}
	if err := c.client.Set(ctx, credentialKey(enriched.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save credential cache: %w", err)
	}
	return nil
}

// Invalidate drops a cached entry. Called after verification bumps the
// counters so readers never see stale counts for longer than one round trip.
func (c *RedisCache) Invalidate(ctx context.Context, credentialID id.CredentialID) error {
	if err := c.client.Del(ctx, credentialKey(credentialID)).Err(); err != nil {
		return fmt.Errorf("invalidate credential cache: %w", err)
	}
	return nil
}

func (c *RedisCache) recordHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *RedisCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}

func credentialKey(credentialID id.CredentialID) string {
	return redisCredentialKeyPrefix + credentialID.String()
}
