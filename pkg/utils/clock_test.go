package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	clock := NewRealClock()

	before := clock.Now()
	assert.WithinDuration(t, time.Now(), before, time.Second)
	assert.GreaterOrEqual(t, clock.Since(before), time.Duration(0))

	ticker := clock.NewTicker(time.Hour)
	ticker.Stop()
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), clock.Now())
	assert.Equal(t, 90*time.Second, clock.Since(start))
}
