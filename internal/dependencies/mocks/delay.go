package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/scoutbook/internal/dependencies/delay"
)

// MockSleeper records requested sleeps without waiting
type MockSleeper struct {
	mu    sync.Mutex
	Slept []time.Duration
}

// Ensure MockSleeper implements Sleeper
var _ delay.Sleeper = (*MockSleeper)(nil)

// NewMockSleeper creates a new MockSleeper
func NewMockSleeper() *MockSleeper {
	return &MockSleeper{}
}

// Sleep records d and returns immediately (still honouring a cancelled ctx)
func (s *MockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Slept = append(s.Slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Count returns how many sleeps were requested
func (s *MockSleeper) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Slept)
}
