// Package cache stores rendered block markup.
//
// A [Cache] is a flat byte store with per-entry TTLs. Three backends are
// provided: [NullCache] (disabled), [FileCache] (CLI, one JSON file per
// entry) and [RedisCache] (render service). Keys come from a [Keyer], so
// callers never build key strings by hand:
//
//	key := keyer.RenderKey(cache.Hash(snapshot), cache.RenderKeyOpts{
//		Mode: "publish", Day: "2026-10-16", Location: "Europe/Berlin",
//	})
//
// Rendered output depends on the current day through the past-event rule,
// so the day is part of every render key and an entry is never reused
// across a day boundary.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	// TTLRender bounds a rendered entry; the day in the key already
	// prevents reuse across days.
	TTLRender = 24 * time.Hour

	// TTLRegistration bounds a cached registration document.
	TTLRegistration = 7 * 24 * time.Hour
)

// Cache is implemented by every backend. All methods are safe for
// concurrent use. Get reports a miss as (nil, false, nil); an error means
// the backend itself failed.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
