// Package actuator manages the avatar orb's visual state.
package actuator

import (
	"sync"
	"time"
)

// State is a snapshot of the orb's visual state.
type State struct {
	Emotion     string          `json:"emotion"`
	Gesture     string          `json:"gesture,omitempty"`
	Shape       string          `json:"shape"`
	Preset      string          `json:"preset"`
	Undertone   string          `json:"undertone"`
	Camera      string          `json:"camera"`
	MoonPhase   string          `json:"moonPhase"`
	SunEclipse  string          `json:"sunEclipse"`
	MoonEclipse string          `json:"moonEclipse"`
	Chain       string          `json:"chain,omitempty"`
	Features    map[string]bool `json:"features"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (s State) clone() State {
	features := make(map[string]bool, len(s.Features))
	for k, v := range s.Features {
		features[k] = v
	}
	s.Features = features
	return s
}

// Orb is the reference actuator: an in-memory state controller implementing
// the full directive capability set. The external 3D renderer consumes its
// state-change notifications (directly or through the websocket bridge).
type Orb struct {
	mu    sync.RWMutex
	state State

	onStateChange func(State)
}

// NewOrb creates an Orb at the calm baseline.
func NewOrb() *Orb {
	return &Orb{
		state: State{
			Emotion:     "calm",
			Shape:       "orb",
			Preset:      "pearl",
			Undertone:   "warm",
			Camera:      "default",
			MoonPhase:   "full",
			SunEclipse:  "off",
			MoonEclipse: "off",
			Features:    make(map[string]bool),
		},
	}
}

// SetStateHandler sets the callback for state changes.
func (o *Orb) SetStateHandler(handler func(State)) {
	o.mu.Lock()
	o.onStateChange = handler
	o.mu.Unlock()
}

// GetState returns a snapshot of the current state.
func (o *Orb) GetState() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.clone()
}

// SetEmotion transitions to a new emotional state, optionally with an
// accompanying gesture. Unknown emotions render as neutral downstream.
func (o *Orb) SetEmotion(value, gesture string) {
	o.mutate(func(s *State) {
		s.Emotion = value
		s.Gesture = gesture
	})
}

// MorphTo changes the orb's shape.
func (o *Orb) MorphTo(shape string) {
	o.mutate(func(s *State) { s.Shape = shape })
}

// SetPreset changes the material preset.
func (o *Orb) SetPreset(name string) {
	o.mutate(func(s *State) { s.Preset = name })
}

// SetUndertone changes the lighting undertone.
func (o *Orb) SetUndertone(name string) {
	o.mutate(func(s *State) { s.Undertone = name })
}

// PlayChain starts a named gesture chain.
func (o *Orb) PlayChain(name string) {
	o.mutate(func(s *State) { s.Chain = name })
}

// SetCamera changes the camera angle.
func (o *Orb) SetCamera(name string) {
	o.mutate(func(s *State) { s.Camera = name })
}

// SetMoonPhase changes the backdrop moon phase.
func (o *Orb) SetMoonPhase(phase string) {
	o.mutate(func(s *State) { s.MoonPhase = phase })
}

// SetSunEclipse changes the sun eclipse phase.
func (o *Orb) SetSunEclipse(phase string) {
	o.mutate(func(s *State) { s.SunEclipse = phase })
}

// SetMoonEclipse changes the moon eclipse phase.
func (o *Orb) SetMoonEclipse(phase string) {
	o.mutate(func(s *State) { s.MoonEclipse = phase })
}

// ToggleFeature switches an optional visual feature on or off.
func (o *Orb) ToggleFeature(name string, on bool) {
	o.mutate(func(s *State) { s.Features[name] = on })
}

// RevertToBaseline restores the calm emotion/shape baseline. Used by the
// idle-revert timer.
func (o *Orb) RevertToBaseline(emotion, shape string) {
	o.mutate(func(s *State) {
		s.Emotion = emotion
		s.Gesture = ""
		s.Shape = shape
		s.Chain = ""
	})
}

func (o *Orb) mutate(apply func(*State)) {
	o.mu.Lock()
	apply(&o.state)
	o.state.Timestamp = time.Now()
	snapshot := o.state.clone()
	handler := o.onStateChange
	o.mu.Unlock()

	if handler != nil {
		handler(snapshot)
	}
}
