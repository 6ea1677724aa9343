package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (f *fakePruner) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.removed, f.err
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunOnceUsesRetention(t *testing.T) {
	pruner := &fakePruner{removed: 3}
	s := NewEventPruneScheduler(pruner, 30*24*time.Hour, time.Hour)
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	assert.Equal(t, int64(3), s.RunOnce(context.Background()))
	assert.Equal(t, []time.Time{fixed.Add(-30 * 24 * time.Hour)}, pruner.cutoffs)
}

func TestRunOnceSwallowsErrors(t *testing.T) {
	pruner := &fakePruner{err: errors.New("database is locked")}
	s := NewEventPruneScheduler(pruner, time.Hour, time.Hour)

	assert.Zero(t, s.RunOnce(context.Background()))
}

func TestStartRunsUntilStopped(t *testing.T) {
	pruner := &fakePruner{}
	s := NewEventPruneScheduler(pruner, time.Hour, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return pruner.calls() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	s := NewEventPruneScheduler(&fakePruner{}, time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
