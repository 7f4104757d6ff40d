// Package narration defines the narration engine boundary and a synthetic
// wall-clock pacer used when no real speech engine is attached.
package narration

import "context"

// ProgressFunc receives narration progress as a fraction in [0,1].
type ProgressFunc func(fraction float64)

// CharPositionFunc receives the character offset reached by narration, in
// the same clean-text coordinate space the directive extractor produced.
type CharPositionFunc func(offset int)

// Engine converts text into timed speech and reports playback position.
// Speak blocks until the utterance completes or Stop is called; Stop must
// resolve a pending Speak rather than leave it dangling. Progress callbacks
// are strictly monotonically increasing for the duration of one Speak call.
type Engine interface {
	Speak(ctx context.Context, text string) error
	Stop()
	OnProgress(fn ProgressFunc)
	OnCharPosition(fn CharPositionFunc)
}
