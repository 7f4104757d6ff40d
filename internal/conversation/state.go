// Package conversation implements Luma's interaction state machine: it owns
// the current state, arbitrates user input against it, drives the brain
// request and narration lifecycle, and paces directive replay from the
// narration engine's progress reports.
package conversation

// State is the current interaction state. Exactly one is active at any
// instant; transitions happen only on discrete callback turns.
type State string

const (
	// StateIdle is the default; accepts a talk gesture or a menu tap.
	StateIdle State = "idle"
	// StateListening means voice capture is active.
	StateListening State = "listening"
	// StateProcessing means capture stopped, awaiting a transcript.
	StateProcessing State = "processing"
	// StateThinking means the brain request is in flight.
	StateThinking State = "thinking"
	// StateSpeaking means narration is in progress and drives replay.
	StateSpeaking State = "speaking"
	// StateMeditation is the guided breathing loop.
	StateMeditation State = "meditation"
	// StateCarousel is the modal shape-selection UI.
	StateCarousel State = "carousel"
	// StatePanel is the modal settings/selection panel.
	StatePanel State = "panel"
	// StateTutorial is the scripted onboarding sequence.
	StateTutorial State = "tutorial"
)

// String implements fmt.Stringer.
func (s State) String() string { return string(s) }

// Modal reports whether input is routed exclusively to a modal UI.
func (s State) Modal() bool {
	return s == StateCarousel || s == StatePanel || s == StateTutorial
}
