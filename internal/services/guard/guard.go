// Package guard allows at most one generation per user at a time.
package guard

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when the user already has a generation running
var ErrInFlight = errors.New("a generation is already in progress for this user")

// Guard hands out one exclusive slot per user
type Guard interface {
	// Acquire takes the user's slot or fails with ErrInFlight. The returned
	// release function is safe to call more than once.
	Acquire(ctx context.Context, userID string) (release func(), err error)
}

// LocalGuard tracks in-flight users in process memory. It is only correct
// when a single instance serves all traffic.
type LocalGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{inFlight: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(_ context.Context, userID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[userID]; busy {
		return nil, ErrInFlight
	}
	g.inFlight[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, userID)
			g.mu.Unlock()
		})
	}, nil
}
