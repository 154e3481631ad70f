package delay

import (
	"context"
	"time"
)

// Sleeper pauses for a duration; used to simulate network latency
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in that case
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper implements Sleeper using timers
type RealSleeper struct{}

// New creates a new RealSleeper
func New() *RealSleeper {
	return &RealSleeper{}
}

// Sleep waits for d, returning early if ctx is cancelled
func (s *RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
