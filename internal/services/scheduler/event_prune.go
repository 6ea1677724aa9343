package scheduler

import (
	"context"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// EventPruner removes processed webhook events older than a cutoff
type EventPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPruneScheduler keeps the processed-event table bounded. Events must be
// kept longer than the payment processor keeps redelivering them.
type EventPruneScheduler struct {
	pruner    EventPruner
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
	now       func() time.Time
}

func NewEventPruneScheduler(pruner EventPruner, retention, interval time.Duration) *EventPruneScheduler {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &EventPruneScheduler{
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start blocks, pruning once per interval until Stop or ctx cancellation
func (s *EventPruneScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fiberlog.Infof("Webhook event prune scheduler started, running every %s", s.interval)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			fiberlog.Info("Webhook event prune scheduler stopped")
			return
		case <-ctx.Done():
			fiberlog.Info("Webhook event prune scheduler stopped due to context cancellation")
			return
		}
	}
}

// RunOnce prunes a single time and returns the number of removed events
func (s *EventPruneScheduler) RunOnce(ctx context.Context) int64 {
	removed, err := s.pruner.Prune(ctx, s.now().Add(-s.retention))
	if err != nil {
		fiberlog.Errorf("Error pruning processed webhook events: %v", err)
		return 0
	}
	if removed > 0 {
		fiberlog.Infof("Pruned %d processed webhook events", removed)
	}
	return removed
}

func (s *EventPruneScheduler) Stop() {
	close(s.stopChan)
}
