package conversation

import (
	"sync"
	"time"
)

// Timer names used by the state machine.
const (
	TimerIdleRevert        = "idle-revert"
	TimerScreenRevert      = "screen-revert"
	TimerProcessingTimeout = "processing-timeout"
	TimerMeditationPhase   = "meditation-phase"
)

// TimerSet manages named, independently cancellable delayed actions. At
// most one instance of each name is live at a time; starting a new one
// implicitly cancels any prior instance of the same name.
type TimerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewTimerSet creates an empty TimerSet.
func NewTimerSet() *TimerSet {
	return &TimerSet{timers: make(map[string]*time.Timer)}
}

// Start schedules fn after d, replacing any live timer of the same name.
func (ts *TimerSet) Start(name string, d time.Duration, fn func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if prev, ok := ts.timers[name]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		ts.mu.Lock()
		if ts.timers[name] == t {
			delete(ts.timers, name)
		}
		ts.mu.Unlock()
		fn()
	})
	ts.timers[name] = t
}

// Cancel stops the named timer if it is live. Returns true when a live
// timer was cancelled before firing.
func (ts *TimerSet) Cancel(name string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, ok := ts.timers[name]
	if !ok {
		return false
	}
	delete(ts.timers, name)
	return t.Stop()
}

// CancelAll stops every live timer.
func (ts *TimerSet) CancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for name, t := range ts.timers {
		t.Stop()
		delete(ts.timers, name)
	}
}

// Live reports whether the named timer is currently scheduled.
func (ts *TimerSet) Live(name string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	_, ok := ts.timers[name]
	return ok
}
