// Package natskv implements the cache port on a NATS JetStream KV bucket.
// It is the shared L2 that lets every PropDesk instance see the same tenant
// directory entries.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// keyRe is the key alphabet accepted by JetStream KV.
var keyRe = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

// Cache wraps a JetStream KeyValue store.
type Cache struct {
	kv jetstream.KeyValue
}

// New wraps an existing bucket.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// ValidKey reports whether key can be stored in a KV bucket.
func ValidKey(key string) bool {
	return keyRe.MatchString(key)
}

// Get returns the value for key. Keys the bucket cannot hold are misses.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	if !ValidKey(key) {
		return nil, false, nil
	}
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Set stores value. Expiry is the bucket TTL; the per-call ttl is ignored.
func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if !ValidKey(key) {
		return fmt.Errorf("kv key %q: %w", key, jetstream.ErrInvalidKey)
	}
	_, err := c.kv.Put(ctx, key, value)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return nil
	}
	err := c.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
