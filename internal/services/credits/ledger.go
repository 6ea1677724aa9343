package credits

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventLedger records processed payment events so redelivered webhooks do not
// credit an account twice.
type EventLedger interface {
	// Claim marks the event as processed and reports whether this caller was
	// the first to do so.
	Claim(ctx context.Context, provider, eventID string) (bool, error)
	// Release forgets a claim whose processing failed, so redelivery can retry.
	Release(ctx context.Context, provider, eventID string) error
}

// DatabaseLedger claims events through a unique (provider, event_id) index
type DatabaseLedger struct {
	db *gorm.DB
}

func NewDatabaseLedger(db *gorm.DB) *DatabaseLedger {
	return &DatabaseLedger{db: db}
}

func (l *DatabaseLedger) Claim(ctx context.Context, provider, eventID string) (bool, error) {
	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProcessedWebhookEvent{Provider: provider, EventID: eventID})
	if result.Error != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (l *DatabaseLedger) Release(ctx context.Context, provider, eventID string) error {
	if err := l.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Delete(&models.ProcessedWebhookEvent{}).Error; err != nil {
		return fmt.Errorf("failed to release webhook event: %w", err)
	}
	return nil
}

// Prune deletes claims recorded before cutoff and returns how many it removed
func (l *DatabaseLedger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result := l.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&models.ProcessedWebhookEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune webhook events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RedisLedger claims events with SETNX and expires them after ttl, which must
// exceed the payment processor's redelivery window.
type RedisLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, prefix string, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisLedger) key(provider, eventID string) string {
	return l.prefix + "webhook_event:" + provider + ":" + eventID
}

func (l *RedisLedger) Claim(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(provider, eventID), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, provider, eventID string) error {
	if err := l.client.Del(ctx, l.key(provider, eventID)).Err(); err != nil {
		return fmt.Errorf("failed to release webhook event: %w", err)
	}
	return nil
}

// MemoryLedger is a process-local ledger for single-instance deployments
// without a database or redis.
type MemoryLedger struct {
	mu     sync.Mutex
	events map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{events: make(map[string]struct{})}
}

func (l *MemoryLedger) Claim(_ context.Context, provider, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := provider + ":" + eventID
	if _, seen := l.events[key]; seen {
		return false, nil
	}
	l.events[key] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, provider, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.events, provider+":"+eventID)
	return nil
}
