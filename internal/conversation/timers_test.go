package conversation

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerSet_FiresAfterDelay(t *testing.T) {
	ts := NewTimerSet()
	var fired atomic.Int32

	ts.Start("a", 10*time.Millisecond, func() { fired.Add(1) })

	deadline := time.Now().Add(time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}
	if ts.Live("a") {
		t.Error("timer still live after firing")
	}
}

func TestTimerSet_StartReplacesSameName(t *testing.T) {
	ts := NewTimerSet()
	var first, second atomic.Int32

	ts.Start("a", 20*time.Millisecond, func() { first.Add(1) })
	ts.Start("a", 20*time.Millisecond, func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("replaced timer fired")
	}
	if second.Load() != 1 {
		t.Errorf("second = %d, want 1", second.Load())
	}
}

func TestTimerSet_Cancel(t *testing.T) {
	ts := NewTimerSet()
	var fired atomic.Int32

	ts.Start("a", 20*time.Millisecond, func() { fired.Add(1) })
	if !ts.Cancel("a") {
		t.Fatal("Cancel returned false for a live timer")
	}
	if ts.Cancel("a") {
		t.Error("Cancel returned true for an already-cancelled timer")
	}
	if ts.Cancel("missing") {
		t.Error("Cancel returned true for an unknown name")
	}

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("cancelled timer fired")
	}
}

func TestTimerSet_CancelAll(t *testing.T) {
	ts := NewTimerSet()
	var fired atomic.Int32

	ts.Start("a", 20*time.Millisecond, func() { fired.Add(1) })
	ts.Start("b", 20*time.Millisecond, func() { fired.Add(1) })
	ts.CancelAll()

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("fired = %d after CancelAll, want 0", fired.Load())
	}
	if ts.Live("a") || ts.Live("b") {
		t.Error("timers still live after CancelAll")
	}
}

func TestTimerSet_NamesAreIndependent(t *testing.T) {
	ts := NewTimerSet()
	var a, b atomic.Int32

	ts.Start("a", 10*time.Millisecond, func() { a.Add(1) })
	ts.Start("b", 10*time.Millisecond, func() { b.Add(1) })
	ts.Cancel("a")

	time.Sleep(60 * time.Millisecond)
	if a.Load() != 0 {
		t.Error("cancelled timer a fired")
	}
	if b.Load() != 1 {
		t.Errorf("b = %d, want 1", b.Load())
	}
}
