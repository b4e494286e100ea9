package scans

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pausePrefix = "scanpause:"

// PauseGate refuses a repeat scan of the same contact at the same event while
// the previous one is still inside the pause window. This replaces pausing the
// camera between reads.
type PauseGate struct {
	client *redis.Client
	window time.Duration
}

// NewPauseGate creates a Redis-backed PauseGate.
func NewPauseGate(client *redis.Client, window time.Duration) *PauseGate {
	return &PauseGate{client: client, window: window}
}

// Acquire reports whether the scan may proceed. A zero window disables the gate.
func (g *PauseGate) Acquire(ctx context.Context, eventGID, contactID string) (bool, error) {
	if g.window <= 0 {
		return true, nil
	}
	ok, err := g.client.SetNX(ctx, pausePrefix+eventGID+":"+contactID, 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}
