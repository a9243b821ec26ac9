package utils

import "time"

// Clock abstracts time for the worker poll loop and the phase timer.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	NewTicker(d time.Duration) *time.Ticker
}

// RealClock implements Clock with the time package.
type RealClock struct{}

// NewRealClock creates a RealClock.
func NewRealClock() *RealClock { return &RealClock{} }

func (c *RealClock) Now() time.Time { return time.Now() }

func (c *RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (c *RealClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// MockClock is a manually advanced Clock for tests.
type MockClock struct {
	current time.Time
}

// NewMockClock creates a MockClock starting at the given time.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{current: start}
}

func (c *MockClock) Now() time.Time { return c.current }

func (c *MockClock) Since(t time.Time) time.Duration { return c.current.Sub(t) }

// NewTicker returns a ticker that never fires; mock tests drive loops
// directly instead of waiting on ticks.
func (c *MockClock) NewTicker(d time.Duration) *time.Ticker {
	t := time.NewTicker(time.Hour)
	t.Stop()
	return t
}

// Advance moves the mock clock forward.
func (c *MockClock) Advance(d time.Duration) { c.current = c.current.Add(d) }
