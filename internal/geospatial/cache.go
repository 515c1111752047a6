package geospatial

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/redis"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

// LookupCache memoizes StoreForPoint answers in Redis. Every key embeds the
// polygon generation counter, so bumping the counter orphans all cached
// entries at once instead of scanning for them.
type LookupCache struct {
	client *redis.Client
	ttl    time.Duration
	logg   *logger.Logger
}

// NewLookupCache wires the Redis-backed lookup cache.
func NewLookupCache(client *redis.Client, ttl time.Duration, logg *logger.Logger) (*LookupCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LookupCache{client: client, ttl: ttl, logg: logg}, nil
}

// Invalidate bumps the generation counter. Stale entries expire via TTL.
func (c *LookupCache) Invalidate(ctx context.Context) {
	if _, err := c.client.Incr(ctx, c.client.GenerationKey()); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "bumping polygon generation failed")
	}
}

// Get returns the cached payload for the point, if present. Redis failures
// degrade to a miss.
func (c *LookupCache) Get(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType) (string, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", false
	}
	payload, err := c.client.Get(ctx, c.key(gen, pt, polygonType))
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "geo lookup cache read failed")
		}
		return "", false
	}
	return payload, true
}

// Set stores the payload for the point under the current generation.
func (c *LookupCache) Set(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType, payload string) {
	gen, err := c.generation(ctx)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(gen, pt, polygonType), payload, c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "geo lookup cache write failed")
	}
}

func (c *LookupCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, c.client.GenerationKey())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return gen, nil
}

func (c *LookupCache) key(gen int64, pt types.Coordinate, polygonType *enums.PolygonType) string {
	scope := "any"
	if polygonType != nil {
		scope = string(*polygonType)
	}
	return c.client.GeoLookupKey(gen,
		"store_for_point",
		scope,
		strconv.FormatFloat(pt.Longitude, 'f', 6, 64),
		strconv.FormatFloat(pt.Latitude, 'f', 6, 64),
	)
}
