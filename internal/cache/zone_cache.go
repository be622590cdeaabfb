// Package cache holds the explicit read-model caches backed by Redis.
// Every method is best effort: cache trouble is logged, never surfaced.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"zone-service/internal/config"
)

const detailKeyPrefix = "zone:area_detail:"

type ZoneCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewZoneCache connects to Redis. Returns nil when no address is
// configured; callers treat a nil cache as disabled.
func NewZoneCache(cfg config.RedisConfig, log zerolog.Logger) *ZoneCache {
	if cfg.Addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &ZoneCache{rdb: rdb, ttl: cfg.CacheTTL, log: log}
}

func (c *ZoneCache) GetAreaDetail(ctx context.Context, areaID uuid.UUID) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, detailKeyPrefix+areaID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("cache read failed")
		}
		return nil, false
	}
	return payload, true
}

func (c *ZoneCache) SetAreaDetail(ctx context.Context, areaID uuid.UUID, payload []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, detailKeyPrefix+areaID.String(), payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed")
	}
}

func (c *ZoneCache) InvalidateArea(ctx context.Context, areaID uuid.UUID) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, detailKeyPrefix+areaID.String()).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
