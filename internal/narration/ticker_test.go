package narration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTickerEngine_ReportsEveryRuneBoundary(t *testing.T) {
	// High rate keeps the test fast.
	eng := NewTickerEngine(2000, zerolog.Nop())

	var mu sync.Mutex
	var offsets []int
	var fractions []float64
	eng.OnCharPosition(func(off int) {
		mu.Lock()
		offsets = append(offsets, off)
		mu.Unlock()
	})
	eng.OnProgress(func(f float64) {
		mu.Lock()
		fractions = append(fractions, f)
		mu.Unlock()
	})

	text := "héllo"
	if err := eng.Speak(context.Background(), text); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(offsets) != 5 {
		t.Fatalf("got %d position reports, want 5 (one per rune)", len(offsets))
	}
	// Offsets are byte positions, so the two-byte é advances by 2.
	want := []int{1, 3, 4, 5, 6}
	for i, off := range offsets {
		if off != want[i] {
			t.Errorf("offsets[%d] = %d, want %d", i, off, want[i])
		}
	}
	last := fractions[len(fractions)-1]
	if last != 1.0 {
		t.Errorf("final progress = %v, want 1.0", last)
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Errorf("progress went backwards: %v", fractions)
			break
		}
	}
}

func TestTickerEngine_EmptyTextReturnsImmediately(t *testing.T) {
	eng := NewTickerEngine(10, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- eng.Speak(context.Background(), "") }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Speak: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Speak on empty text did not return")
	}
}

func TestTickerEngine_StopHaltsSpeak(t *testing.T) {
	// Slow rate so Stop lands mid-utterance.
	eng := NewTickerEngine(5, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		eng.Speak(context.Background(), "this sentence takes far too long to finish")
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for !eng.IsSpeaking() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !eng.IsSpeaking() {
		t.Fatal("engine never started speaking")
	}

	eng.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Speak did not return after Stop")
	}
	if eng.IsSpeaking() {
		t.Error("IsSpeaking still true after Stop")
	}
}

func TestTickerEngine_ContextCancelHaltsSpeak(t *testing.T) {
	eng := NewTickerEngine(5, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Speak(ctx, "another long sentence that will be cut short")
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Speak did not return after context cancel")
	}
}

func TestTickerEngine_DefaultRate(t *testing.T) {
	eng := NewTickerEngine(0, zerolog.Nop())
	if eng.charsPerSec != DefaultCharsPerSecond {
		t.Errorf("charsPerSec = %v, want %v", eng.charsPerSec, DefaultCharsPerSecond)
	}
	eng = NewTickerEngine(-3, zerolog.Nop())
	if eng.charsPerSec != DefaultCharsPerSecond {
		t.Errorf("charsPerSec = %v, want %v", eng.charsPerSec, DefaultCharsPerSecond)
	}
}
