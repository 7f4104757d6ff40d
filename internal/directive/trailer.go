package directive

import (
	"strings"

	"github.com/rs/zerolog"
)

// FallbackBody is spoken when a reply contains no narrative lines at all.
// The protocol never yields an empty utterance.
const FallbackBody = "I'm here with you."

// Toggle is a feature on/off request from a TOGGLE line.
type Toggle struct {
	Feature string
	On      bool
}

// Trailer holds the result of parsing a complete reply for trailing
// directive lines. Zero values mean the line was absent (or dropped).
type Trailer struct {
	Body            string
	Feel            string // emotion, optionally ",gesture"
	Shape           string
	MeditationStart bool
	Toggles         []Toggle
	Preset          string
	Undertone       string
	Chain           string
	Camera          string
}

// TrailerParser parses the line-oriented trailing directive dialect.
type TrailerParser struct {
	log zerolog.Logger
}

// NewTrailerParser creates a parser that logs dropped directives at debug
// level on the given logger.
func NewTrailerParser(log zerolog.Logger) *TrailerParser {
	return &TrailerParser{log: log.With().Str("component", "trailer-parser").Logger()}
}

// Parse walks the reply line by line. Directive lines are consumed and
// excluded from the body; `*aside*` lines are dropped; everything else is
// joined with single spaces into the body. An empty body is replaced by
// FallbackBody.
func (p *TrailerParser) Parse(response string) Trailer {
	var t Trailer
	var bodyParts []string

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "FEEL:"):
			t.Feel = p.parseFeel(strings.TrimSpace(strings.TrimPrefix(line, "FEEL:")))
		case strings.HasPrefix(line, "MORPH:"):
			t.Shape = p.validated(CategoryShape, strings.TrimPrefix(line, "MORPH:"))
		case strings.HasPrefix(line, "MEDITATION:"):
			arg := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "MEDITATION:")))
			t.MeditationStart = arg == "start" || arg == "begin" || arg == "on"
		case strings.HasPrefix(line, "TOGGLE:"):
			if tog, ok := p.parseToggle(strings.TrimSpace(strings.TrimPrefix(line, "TOGGLE:"))); ok {
				t.Toggles = append(t.Toggles, tog)
			}
		case strings.HasPrefix(line, "PRESET:"):
			t.Preset = p.validated(CategoryPreset, strings.TrimPrefix(line, "PRESET:"))
		case strings.HasPrefix(line, "UNDERTONE:"):
			t.Undertone = p.validated(CategoryUndertone, strings.TrimPrefix(line, "UNDERTONE:"))
		case strings.HasPrefix(line, "CHAIN:"):
			t.Chain = p.validated(CategoryChain, strings.TrimPrefix(line, "CHAIN:"))
		case strings.HasPrefix(line, "CAMERA:"):
			t.Camera = p.validated(CategoryCamera, strings.TrimPrefix(line, "CAMERA:"))
		case strings.HasPrefix(line, "*") && strings.HasSuffix(line, "*"):
			// Stage-direction aside, not spoken and not a directive.
		default:
			bodyParts = append(bodyParts, line)
		}
	}

	t.Body = strings.Join(bodyParts, " ")
	if t.Body == "" {
		t.Body = FallbackBody
	}
	return t
}

// parseFeel checks only the emotion token before the first comma against
// the emotion vocabulary. An unrecognized emotion keeps the gesture portion
// rather than discarding the line; the actuator treats unknown emotions as
// neutral.
func (p *TrailerParser) parseFeel(arg string) string {
	emotion, gesture, hasGesture := strings.Cut(arg, ",")
	res := Correct(emotion, Emotions)
	if !Emotions.Contains(res.Value) {
		p.log.Debug().Str("emotion", emotion).Msg("unrecognized FEEL emotion, keeping as-is")
	}
	if hasGesture {
		return res.Value + "," + strings.TrimSpace(gesture)
	}
	return res.Value
}

// parseToggle parses "<feature> <on|off>". Malformed lines are dropped.
func (p *TrailerParser) parseToggle(arg string) (Toggle, bool) {
	fields := strings.Fields(arg)
	if len(fields) < 2 {
		p.log.Debug().Str("line", arg).Msg("malformed TOGGLE line dropped")
		return Toggle{}, false
	}
	res := Correct(fields[0], Features)
	if !Features.Contains(res.Value) {
		p.log.Debug().Str("feature", fields[0]).Msg("unknown toggle feature dropped")
		return Toggle{}, false
	}
	return Toggle{Feature: res.Value, On: strings.EqualFold(fields[1], "on")}, true
}

// validated corrects raw against the category vocabulary and returns the
// canonical value, or "" when no correction exists.
func (p *TrailerParser) validated(cat Category, raw string) string {
	vocab := VocabularyFor(cat)
	res := Correct(raw, vocab)
	if !vocab.Contains(res.Value) {
		p.log.Debug().
			Str("category", string(cat)).
			Str("value", strings.TrimSpace(raw)).
			Msg("invalid trailing directive dropped")
		return ""
	}
	return res.Value
}
