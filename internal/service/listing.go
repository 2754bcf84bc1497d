package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"go-resell-backoffice/internal/cache"
	"go-resell-backoffice/internal/metrics"
)

// listingCache wraps a ListingCache so that cache trouble degrades to a
// backend read instead of failing the request.
type listingCache struct {
	cache   cache.ListingCache
	metrics *metrics.Metrics
}

// load serves key from the cache or from fetch. The scope version is taken
// before fetch runs; a listing fetched across an invalidation is returned
// but not cached.
func (c listingCache) load(ctx context.Context, scope, key string, dst any, fetch func() (any, error)) error {
	var version int64
	cacheable := c.cache != nil
	if cacheable {
		data, v, ok, err := c.cache.Get(ctx, scope, key)
		version = v
		switch {
		case err != nil:
			cacheable = false
			c.metrics.CacheResult(metrics.CacheError)
			slog.Warn("listing cache read failed", "scope", scope, "key", key, "error", err)
		case ok:
			if jsonErr := json.Unmarshal(data, dst); jsonErr == nil {
				c.metrics.CacheResult(metrics.CacheHit)
				return nil
			}
			c.metrics.CacheResult(metrics.CacheError)
		default:
			c.metrics.CacheResult(metrics.CacheMiss)
		}
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if cacheable {
		if setErr := c.cache.Set(ctx, scope, key, version, data); setErr != nil {
			slog.Warn("listing cache write failed", "scope", scope, "key", key, "error", setErr)
		}
	}
	return json.Unmarshal(data, dst)
}

func (c listingCache) invalidate(ctx context.Context, scopes ...string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, scopes...); err != nil {
		slog.Warn("listing cache invalidation failed", "scopes", scopes, "error", err)
	}
}
