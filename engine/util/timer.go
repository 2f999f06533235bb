package util

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type TimerState struct {
	name         string
	lastDuration time.Duration

	totalDuration  time.Duration
	executionCount int64

	minDuration time.Duration
	maxDuration time.Duration
}

func (t *TimerState) Average() time.Duration {
	if t.executionCount == 0 {
		return 0
	}
	return t.totalDuration / time.Duration(t.executionCount)
}

func (t *TimerState) Count() int64 {
	return t.executionCount
}

func (t *TimerState) Total() time.Duration {
	return t.totalDuration
}

func (t *TimerState) String() string {
	if t.executionCount == 1 {
		return fmt.Sprintf("%s: %s", t.name, t.lastDuration)
	}
	return fmt.Sprintf("%s x%d total: %s, avg: %s, min: %s, max: %s",
		t.name, t.executionCount, t.totalDuration, t.Average(), t.minDuration, t.maxDuration)
}

// Timer collects named durations. Start may be called from several goroutines.
type Timer struct {
	mutex      sync.Mutex
	states     map[string]*TimerState
	timerNames []string
}

func NewTimer() *Timer {
	return &Timer{
		states: make(map[string]*TimerState),
	}
}

func (t *Timer) GetState(name string) *TimerState {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.states[name]
}

func (t *Timer) String() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	var str strings.Builder
	for _, name := range t.timerNames {
		str.WriteString(t.states[name].String())
		str.WriteString("\n")
	}
	return str.String()
}

// Start begins one measurement; calling the returned func ends it and records the duration.
func (t *Timer) Start(name string) func() time.Duration {
	t.mutex.Lock()
	state, ok := t.states[name]
	if !ok {
		t.timerNames = append(t.timerNames, name)
		state = &TimerState{name: name}
		t.states[name] = state
	}
	t.mutex.Unlock()

	start := time.Now()
	return func() time.Duration {
		duration := time.Since(start)
		t.mutex.Lock()
		defer t.mutex.Unlock()
		state.lastDuration = duration
		state.totalDuration += duration
		if state.executionCount == 0 || duration < state.minDuration {
			state.minDuration = duration
		}
		if duration > state.maxDuration {
			state.maxDuration = duration
		}
		state.executionCount++
		return duration
	}
}

// Measure times fn under name.
func (t *Timer) Measure(name string, fn func()) time.Duration {
	stop := t.Start(name)
	fn()
	return stop()
}
