package clientcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache keeps one SDK client per configuration. Concurrent callers asking for
// the same key share a single construction.
type Cache[T any] struct {
	clients sync.Map
	group   singleflight.Group
}

func New[T any]() *Cache[T] {
	return &Cache[T]{}
}

// Key derives a cache key from configuration values without keeping secrets
// such as API keys in memory as map keys.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:16])
}

// GetOrCreate returns the cached client for key, building it with factory once.
func (c *Cache[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	if cached, ok := c.clients.Load(key); ok {
		return cached.(T), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.clients.Load(key); ok {
			return cached.(T), nil
		}

		client, err := factory()
		if err != nil {
			return nil, err
		}

		c.clients.Store(key, client)
		return client, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return v.(T), nil
}

// Delete drops a client, e.g. after its credentials were rotated
func (c *Cache[T]) Delete(key string) {
	c.clients.Delete(key)
}
