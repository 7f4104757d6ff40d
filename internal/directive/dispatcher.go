package directive

import (
	"strings"

	"github.com/rs/zerolog"
)

// The actuator is polymorphic over a capability set that may be partially
// implemented. Each capability is its own interface; the dispatcher probes
// by type assertion once per call and silently skips absent capabilities.

// EmotionSetter receives emotion changes, optionally with a gesture.
type EmotionSetter interface {
	SetEmotion(value, gesture string)
}

// Morpher receives shape changes.
type Morpher interface {
	MorphTo(shape string)
}

// PresetSetter receives material preset changes.
type PresetSetter interface {
	SetPreset(name string)
}

// UndertoneSetter receives lighting undertone changes.
type UndertoneSetter interface {
	SetUndertone(name string)
}

// ChainPlayer plays a named gesture chain.
type ChainPlayer interface {
	PlayChain(name string)
}

// CameraSetter receives camera angle changes.
type CameraSetter interface {
	SetCamera(name string)
}

// MoonPhaseSetter receives moon phase changes.
type MoonPhaseSetter interface {
	SetMoonPhase(phase string)
}

// SunEclipseSetter receives sun eclipse phase changes.
type SunEclipseSetter interface {
	SetSunEclipse(phase string)
}

// MoonEclipseSetter receives moon eclipse phase changes.
type MoonEclipseSetter interface {
	SetMoonEclipse(phase string)
}

// FeatureToggler switches optional visual features on or off.
type FeatureToggler interface {
	ToggleFeature(name string, on bool)
}

// Dispatcher routes validated directives to the actuator's capabilities.
// Directive-level failures (unknown category, uncorrectable value, missing
// capability) are logged and dropped; they never halt later directives.
type Dispatcher struct {
	actuator any
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher for the given actuator. The actuator
// may implement any subset of the capability interfaces.
func NewDispatcher(actuator any, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		actuator: actuator,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch re-validates the directive and invokes the matching capability.
func (dp *Dispatcher) Dispatch(d Directive) {
	switch d.Category {
	case CategoryEmotion:
		value, ok := dp.resolve(d)
		if !ok {
			return
		}
		if a, can := dp.actuator.(EmotionSetter); can {
			a.SetEmotion(value, strings.TrimSpace(d.Modifier))
		}
	case CategoryShape:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(Morpher)
			if can {
				a.MorphTo(value)
			}
			return can
		})
	case CategoryPreset:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(PresetSetter)
			if can {
				a.SetPreset(value)
			}
			return can
		})
	case CategoryUndertone:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(UndertoneSetter)
			if can {
				a.SetUndertone(value)
			}
			return can
		})
	case CategoryChain:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(ChainPlayer)
			if can {
				a.PlayChain(value)
			}
			return can
		})
	case CategoryCamera:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(CameraSetter)
			if can {
				a.SetCamera(value)
			}
			return can
		})
	case CategoryMoonPhase:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(MoonPhaseSetter)
			if can {
				a.SetMoonPhase(value)
			}
			return can
		})
	case CategorySunEclipse:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(SunEclipseSetter)
			if can {
				a.SetSunEclipse(value)
			}
			return can
		})
	case CategoryMoonEclipse:
		dp.call(d, func(value string) bool {
			a, can := dp.actuator.(MoonEclipseSetter)
			if can {
				a.SetMoonEclipse(value)
			}
			return can
		})
	case CategoryToggle:
		dp.dispatchToggle(d)
	default:
		dp.log.Warn().Str("category", string(d.Category)).Msg("unknown directive category dropped")
	}
}

// resolve validates the directive value and returns the canonical form.
func (dp *Dispatcher) resolve(d Directive) (string, bool) {
	vocab := VocabularyFor(d.Category)
	if vocab == nil {
		dp.log.Warn().Str("category", string(d.Category)).Msg("no vocabulary for category")
		return "", false
	}
	res := Correct(d.RawValue, vocab)
	if !vocab.Contains(res.Value) {
		dp.log.Debug().
			Str("category", string(d.Category)).
			Str("value", d.RawValue).
			Msg("invalid directive value dropped")
		return "", false
	}
	if res.Corrected {
		dp.log.Debug().
			Str("category", string(d.Category)).
			Str("from", d.RawValue).
			Str("to", res.Value).
			Msg("directive value corrected")
	}
	return res.Value, true
}

func (dp *Dispatcher) call(d Directive, invoke func(value string) bool) {
	value, ok := dp.resolve(d)
	if !ok {
		return
	}
	invoke(value)
}

// dispatchToggle handles inline TOGGLE directives where the value is the
// feature name and the modifier is "on"/"off" (absent modifier means on).
func (dp *Dispatcher) dispatchToggle(d Directive) {
	value, ok := dp.resolve(d)
	if !ok {
		return
	}
	on := true
	if d.Modifier != "" {
		on = strings.EqualFold(strings.TrimSpace(d.Modifier), "on")
	}
	if a, can := dp.actuator.(FeatureToggler); can {
		a.ToggleFeature(value, on)
	}
}
