package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerPhases(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("run", WithClock(clock))

	algo := timer.Start("algorithm")
	clock.Advance(120 * time.Millisecond)
	algo.Stop()

	write := timer.Start("db_write")
	clock.Advance(30 * time.Millisecond)
	write.Stop()

	assert.Equal(t, 120*time.Millisecond, timer.GetDuration("algorithm"))
	assert.Equal(t, 30*time.Millisecond, timer.GetDuration("db_write"))
	assert.Equal(t, 150*time.Millisecond, timer.TotalDuration())
}

func TestTimerStopIsIdempotent(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("run", WithClock(clock))

	phase := timer.Start("algorithm")
	clock.Advance(time.Second)
	first := phase.Stop()
	clock.Advance(time.Second)
	second := phase.Stop()

	assert.Equal(t, first, second)
	assert.Equal(t, time.Second, timer.GetDuration("algorithm"))
}

func TestTimerRepeatedPhaseAccumulates(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("run", WithClock(clock))

	for i := 0; i < 3; i++ {
		p := timer.Start("validate")
		clock.Advance(10 * time.Millisecond)
		p.Stop()
	}

	assert.Equal(t, 30*time.Millisecond, timer.GetDuration("validate"))
}

func TestTimerUnknownPhaseIsZero(t *testing.T) {
	timer := NewTimer("run")
	assert.Equal(t, time.Duration(0), timer.GetDuration("never"))
}

func TestTimerSummary(t *testing.T) {
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("segmentation", WithClock(clock))

	p := timer.Start("algorithm")
	clock.Advance(time.Second)
	p.Stop()

	s := timer.Summary()
	assert.Contains(t, s, "segmentation total=1s")
	assert.Contains(t, s, "algorithm=1s")
}
