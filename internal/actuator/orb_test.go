package actuator

import (
	"sync"
	"testing"
)

func TestOrb_Baseline(t *testing.T) {
	orb := NewOrb()
	s := orb.GetState()

	if s.Emotion != "calm" {
		t.Errorf("Emotion = %q, want calm", s.Emotion)
	}
	if s.Shape != "orb" {
		t.Errorf("Shape = %q, want orb", s.Shape)
	}
	if s.SunEclipse != "off" || s.MoonEclipse != "off" {
		t.Errorf("eclipses = %q/%q, want off/off", s.SunEclipse, s.MoonEclipse)
	}
}

func TestOrb_CapabilityMutations(t *testing.T) {
	orb := NewOrb()

	orb.SetEmotion("joy", "bounce")
	orb.MorphTo("star")
	orb.SetPreset("aurora")
	orb.SetUndertone("violet")
	orb.PlayChain("celebration")
	orb.SetCamera("close")
	orb.SetMoonPhase("crescent")
	orb.SetSunEclipse("peak")
	orb.SetMoonEclipse("start")
	orb.ToggleFeature("sparkles", true)

	s := orb.GetState()
	if s.Emotion != "joy" || s.Gesture != "bounce" {
		t.Errorf("emotion/gesture = %q/%q, want joy/bounce", s.Emotion, s.Gesture)
	}
	if s.Shape != "star" {
		t.Errorf("Shape = %q, want star", s.Shape)
	}
	if s.Preset != "aurora" || s.Undertone != "violet" {
		t.Errorf("preset/undertone = %q/%q", s.Preset, s.Undertone)
	}
	if s.Chain != "celebration" || s.Camera != "close" {
		t.Errorf("chain/camera = %q/%q", s.Chain, s.Camera)
	}
	if s.MoonPhase != "crescent" || s.SunEclipse != "peak" || s.MoonEclipse != "start" {
		t.Errorf("backdrop = %q/%q/%q", s.MoonPhase, s.SunEclipse, s.MoonEclipse)
	}
	if !s.Features["sparkles"] {
		t.Error("sparkles feature not enabled")
	}
}

func TestOrb_RevertToBaseline(t *testing.T) {
	orb := NewOrb()
	orb.SetEmotion("joy", "bounce")
	orb.MorphTo("star")
	orb.PlayChain("celebration")
	orb.ToggleFeature("halo", true)

	orb.RevertToBaseline("calm", "orb")

	s := orb.GetState()
	if s.Emotion != "calm" || s.Gesture != "" {
		t.Errorf("emotion/gesture = %q/%q, want calm/empty", s.Emotion, s.Gesture)
	}
	if s.Shape != "orb" {
		t.Errorf("Shape = %q, want orb", s.Shape)
	}
	if s.Chain != "" {
		t.Errorf("Chain = %q, want empty", s.Chain)
	}
	// Features survive the revert; only emotion, gesture, shape and chain reset.
	if !s.Features["halo"] {
		t.Error("halo feature lost on revert")
	}
}

func TestOrb_StateHandlerReceivesSnapshots(t *testing.T) {
	orb := NewOrb()

	var mu sync.Mutex
	var got []State
	orb.SetStateHandler(func(s State) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	orb.MorphTo("heart")
	orb.SetEmotion("love", "")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("handler called %d times, want 2", len(got))
	}
	if got[0].Shape != "heart" || got[1].Emotion != "love" {
		t.Errorf("snapshots = %+v", got)
	}

	// Snapshots are clones: mutating a delivered snapshot must not leak
	// back into the orb.
	got[1].Features["trail"] = true
	if orb.GetState().Features["trail"] {
		t.Error("snapshot mutation leaked into orb state")
	}
}

func TestOrb_TimestampAdvances(t *testing.T) {
	orb := NewOrb()
	orb.MorphTo("star")
	first := orb.GetState().Timestamp
	orb.MorphTo("heart")
	second := orb.GetState().Timestamp

	if second.Before(first) {
		t.Error("timestamp went backwards across mutations")
	}
	if first.IsZero() {
		t.Error("timestamp not set on mutation")
	}
}
