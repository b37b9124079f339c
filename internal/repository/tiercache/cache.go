package tiercache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/db"
	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
)

const keyPrefix = "discovery:tier:"

// DefaultTTL bounds how stale a cached tier may be after a subscription change.
const DefaultTTL = time.Minute

// source is the authoritative tier lookup (the profile store).
type source interface {
	Tier(ctx context.Context, userID string) (entitlement.Tier, error)
}

// store is the consumer interface for the tier cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache serves subscription tiers from a key-value store, falling back to source.
// Cache failures are logged and never fail a lookup.
type Cache struct {
	inner      source
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner source,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Tier returns the cached tier or reads it from the source and caches it.
func (c *Cache) Tier(ctx context.Context, userID string) (entitlement.Tier, error) {
	key := keyPrefix + userID

	if tier, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return tier, nil
	}

	c.incCache("miss")

	tier, err := c.inner.Tier(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load tier: %w", err)
	}

	c.putToCache(ctx, key, tier)
	return tier, nil
}

// Invalidate drops the cached tier so the next lookup reads the source.
// Callers invoke it after a subscription change.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	if err := c.store.Del(ctx, keyPrefix+userID); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("invalidate tier %s: %w", userID, err)
	}
	return nil
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) getFromCache(ctx context.Context, key string) (entitlement.Tier, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached tier", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return entitlement.Normalize(string(data)), true
}

func (c *Cache) putToCache(ctx context.Context, key string, tier entitlement.Tier) {
	if err := c.store.SetWithTTL(ctx, key, []byte(tier), c.ttl); err != nil {
		c.logger.Warn("Failed to cache tier", zap.String("key", key), zap.Error(err))
	}
}
