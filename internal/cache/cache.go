// Package cache holds serialized listings keyed by scope. Invalidating a
// scope drops every listing cached under it.
package cache

import (
	"context"
	"time"
)

const ScopeTrash = "trash"

func TableScope(table string) string {
	return "table:" + table
}

// ListingCache stores listings per scope. Get reports the scope version it
// observed, hit or miss; Set stores only if the scope is still at that
// version, so a listing read before an invalidation is never cached after it.
type ListingCache interface {
	Get(ctx context.Context, scope, key string) (value []byte, version int64, ok bool, err error)
	Set(ctx context.Context, scope, key string, version int64, value []byte) error
	Invalidate(ctx context.Context, scopes ...string) error
}

const DefaultTTL = 30 * time.Second
