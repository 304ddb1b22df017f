// Package cache defines the byte-oriented key-value cache port used by the
// tenant directory.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys. A miss is reported as
// ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Prefixed returns a Cache that stores every key under prefix + ".".
// It lets several caches share one backing store without collisions.
func Prefixed(c Cache, prefix string) Cache {
	return prefixed{c: c, prefix: prefix + "."}
}

type prefixed struct {
	c      Cache
	prefix string
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.c.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.c.Set(ctx, p.prefix+key, value, ttl)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.c.Delete(ctx, p.prefix+key)
}
