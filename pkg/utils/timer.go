package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer measures named phases of a run. Safe for concurrent use.
type Timer struct {
	name    string
	started time.Time
	clock   Clock
	logger  Logger

	mu     sync.Mutex
	phases map[string]time.Duration
	order  []string
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithLogger logs each phase duration as it completes.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) { t.logger = logger }
}

// WithClock substitutes the time source, for tests.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) { t.clock = clock }
}

// NewTimer creates a Timer and starts the total clock.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:   name,
		clock:  NewRealClock(),
		phases: make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.started = t.clock.Now()
	return t
}

// PhaseTimer records one running phase. Stop is idempotent.
type PhaseTimer struct {
	timer   *Timer
	name    string
	started time.Time
	once    sync.Once
	elapsed time.Duration
}

// Start begins timing a phase.
func (t *Timer) Start(phase string) *PhaseTimer {
	return &PhaseTimer{timer: t, name: phase, started: t.clock.Now()}
}

// Stop ends the phase and records its duration.
func (pt *PhaseTimer) Stop() time.Duration {
	pt.once.Do(func() {
		pt.elapsed = pt.timer.clock.Since(pt.started)
		pt.timer.record(pt.name, pt.elapsed)
	})
	return pt.elapsed
}

func (t *Timer) record(phase string, d time.Duration) {
	t.mu.Lock()
	if _, seen := t.phases[phase]; !seen {
		t.order = append(t.order, phase)
	}
	t.phases[phase] += d
	t.mu.Unlock()

	if t.logger != nil {
		t.logger.Debug("%s: phase %s took %s", t.name, phase, d)
	}
}

// GetDuration returns the recorded duration of a phase, zero if the
// phase never ran.
func (t *Timer) GetDuration(phase string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phases[phase]
}

// TotalDuration returns the time since the timer was created.
func (t *Timer) TotalDuration() time.Duration {
	return t.clock.Since(t.started)
}

// Summary renders the phases in completion order.
func (t *Timer) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s total=%s", t.name, t.clock.Since(t.started))
	for _, phase := range t.order {
		fmt.Fprintf(&b, " %s=%s", phase, t.phases[phase])
	}
	return b.String()
}
