package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	inFlightKeyPrefix = "inflight:"
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the lock only if it still holds our token
// KEYS[1]: lock key
// ARGV[1]: token
const releaseScript = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

// RedisGuard shares in-flight locks across instances. Locks expire after ttl
// so a crashed instance cannot block a user forever.
type RedisGuard struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	release *redis.Script
}

func NewRedisGuard(client *redis.Client, prefix string, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		client:  client,
		prefix:  prefix + inFlightKeyPrefix,
		ttl:     ttl,
		release: redis.NewScript(releaseScript),
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, userID string) (func(), error) {
	key := g.prefix + userID
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		return nil, ErrInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := g.release.Run(releaseCtx, g.client, []string{key}, token).Err(); err != nil {
				fiberlog.Warnf("[%s] Failed to release generation lock: %v", userID, err)
			}
		})
	}, nil
}
