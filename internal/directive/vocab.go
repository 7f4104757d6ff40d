// Package directive implements Luma's directive protocol: extraction of the
// inline bracket dialect and the trailing line dialect from brain replies,
// validation against closed vocabularies, and replay synchronized to
// narration playback position.
package directive

import "strings"

// Category identifies a directive category.
type Category string

const (
	CategoryEmotion         Category = "FEEL"
	CategoryShape           Category = "MORPH"
	CategoryToggle          Category = "TOGGLE"
	CategoryPreset          Category = "PRESET"
	CategoryUndertone       Category = "UNDERTONE"
	CategoryChain           Category = "CHAIN"
	CategoryCamera          Category = "CAMERA"
	CategoryMoonPhase       Category = "MOONPHASE"
	CategorySunEclipse      Category = "SUNECLIPSE"
	CategoryMoonEclipse     Category = "MOONECLIPSE"
	CategoryMeditationStart Category = "MEDITATION"
)

// Directive is a single parsed command instance. Immutable once parsed.
type Directive struct {
	Category Category `json:"category"`
	RawValue string   `json:"rawValue"`
	Modifier string   `json:"modifier,omitempty"`
	// Offset is the position in clean-text coordinates where the directive
	// occurred. Only meaningful for inline directives.
	Offset int `json:"offset"`
}

// Vocabulary holds the closed set of legal values for one category plus a
// map from lowercase non-canonical synonyms to their canonical value.
type Vocabulary struct {
	canonical   map[string]struct{}
	corrections map[string]string
}

// NewVocabulary builds a Vocabulary from canonical values and a correction map.
func NewVocabulary(canonical []string, corrections map[string]string) *Vocabulary {
	v := &Vocabulary{
		canonical:   make(map[string]struct{}, len(canonical)),
		corrections: make(map[string]string, len(corrections)),
	}
	for _, c := range canonical {
		v.canonical[strings.ToLower(c)] = struct{}{}
	}
	for from, to := range corrections {
		v.corrections[strings.ToLower(from)] = strings.ToLower(to)
	}
	return v
}

// Contains reports whether value (lowercased) is a canonical member.
func (v *Vocabulary) Contains(value string) bool {
	_, ok := v.canonical[strings.ToLower(value)]
	return ok
}

// Canonical returns the canonical values. Order is not significant.
func (v *Vocabulary) Canonical() []string {
	out := make([]string, 0, len(v.canonical))
	for c := range v.canonical {
		out = append(out, c)
	}
	return out
}

// Result is the outcome of a Correct call. Validity is not signaled here:
// callers re-check Contains(Value) after correction.
type Result struct {
	Value     string
	Corrected bool
}

// Correct lowercases raw and resolves it against the vocabulary: exact
// canonical match first, then the correction map, otherwise the lowered
// input is returned unchanged and the caller must treat it as invalid.
func Correct(raw string, vocab *Vocabulary) Result {
	value := strings.ToLower(strings.TrimSpace(raw))
	if vocab.Contains(value) {
		return Result{Value: value}
	}
	if mapped, ok := vocab.corrections[value]; ok {
		return Result{Value: mapped, Corrected: true}
	}
	return Result{Value: value}
}

// Emotions is the closed emotion vocabulary.
var Emotions = NewVocabulary(
	[]string{"joy", "calm", "sad", "curious", "excited", "sleepy", "love", "surprise", "fear", "neutral"},
	map[string]string{
		"happy":      "joy",
		"happiness":  "joy",
		"glad":       "joy",
		"cheerful":   "joy",
		"delighted":  "joy",
		"relaxed":    "calm",
		"peaceful":   "calm",
		"serene":     "calm",
		"content":    "calm",
		"unhappy":    "sad",
		"down":       "sad",
		"melancholy": "sad",
		"gloomy":     "sad",
		"interested": "curious",
		"intrigued":  "curious",
		"wondering":  "curious",
		"thrilled":   "excited",
		"energetic":  "excited",
		"eager":      "excited",
		"tired":      "sleepy",
		"drowsy":     "sleepy",
		"affection":  "love",
		"loving":     "love",
		"warm":       "love",
		"surprised":  "surprise",
		"shocked":    "surprise",
		"amazed":     "surprise",
		"scared":     "fear",
		"afraid":     "fear",
		"anxious":    "fear",
		"worried":    "fear",
		"plain":      "neutral",
		"default":    "neutral",
	},
)

// Shapes is the closed morph-target vocabulary.
var Shapes = NewVocabulary(
	[]string{"orb", "star", "heart", "blossom", "crystal", "cloud", "spiral", "drop"},
	map[string]string{
		"sphere":     "orb",
		"ball":       "orb",
		"circle":     "orb",
		"round":      "orb",
		"flower":     "blossom",
		"rose":       "blossom",
		"gem":        "crystal",
		"diamond":    "crystal",
		"jewel":      "crystal",
		"teardrop":   "drop",
		"raindrop":   "drop",
		"tear":       "drop",
		"swirl":      "spiral",
		"galaxy":     "spiral",
		"vortex":     "spiral",
		"puff":       "cloud",
		"twinkle":    "star",
		"shooting":   "star",
		"valentine":  "heart",
		"sweetheart": "heart",
	},
)

// Presets is the closed material preset vocabulary.
var Presets = NewVocabulary(
	[]string{"aurora", "ember", "ocean", "gold", "pearl", "shadow"},
	map[string]string{
		"fire":       "ember",
		"flame":      "ember",
		"lava":       "ember",
		"water":      "ocean",
		"sea":        "ocean",
		"golden":     "gold",
		"metallic":   "gold",
		"dark":       "shadow",
		"black":      "shadow",
		"night":      "shadow",
		"rainbow":    "aurora",
		"northern":   "aurora",
		"iridescent": "pearl",
		"white":      "pearl",
	},
)

// Undertones is the closed lighting undertone vocabulary.
var Undertones = NewVocabulary(
	[]string{"warm", "cool", "rosy", "mint", "violet", "amber"},
	map[string]string{
		"red":      "rosy",
		"pink":     "rosy",
		"green":    "mint",
		"purple":   "violet",
		"lavender": "violet",
		"blue":     "cool",
		"orange":   "amber",
		"yellow":   "amber",
		"hot":      "warm",
		"cold":     "cool",
	},
)

// Chains is the closed gesture-chain vocabulary.
var Chains = NewVocabulary(
	[]string{"greeting", "celebration", "farewell", "comfort", "playful", "focus"},
	map[string]string{
		"hello":       "greeting",
		"hi":          "greeting",
		"wave":        "greeting",
		"party":       "celebration",
		"cheer":       "celebration",
		"celebrate":   "celebration",
		"goodbye":     "farewell",
		"bye":         "farewell",
		"soothe":      "comfort",
		"hug":         "comfort",
		"comforting":  "comfort",
		"fun":         "playful",
		"dance":       "playful",
		"play":        "playful",
		"concentrate": "focus",
		"focused":     "focus",
	},
)

// Cameras is the closed camera angle vocabulary.
var Cameras = NewVocabulary(
	[]string{"default", "close", "wide", "orbit", "top"},
	map[string]string{
		"near":     "close",
		"zoom":     "close",
		"closeup":  "close",
		"far":      "wide",
		"overhead": "top",
		"above":    "top",
		"spin":     "orbit",
		"around":   "orbit",
		"normal":   "default",
		"reset":    "default",
	},
)

// MoonPhases is the closed moon phase vocabulary.
var MoonPhases = NewVocabulary(
	[]string{"new", "crescent", "quarter", "gibbous", "full"},
	map[string]string{
		"sliver":  "crescent",
		"waxing":  "crescent",
		"half":    "quarter",
		"waning":  "gibbous",
		"harvest": "full",
		"dark":    "new",
	},
)

// Eclipses is the closed eclipse phase vocabulary, shared by the sun and
// moon eclipse categories.
var Eclipses = NewVocabulary(
	[]string{"start", "peak", "end", "off"},
	map[string]string{
		"begin":    "start",
		"starting": "start",
		"total":    "peak",
		"totality": "peak",
		"maximum":  "peak",
		"stop":     "end",
		"finish":   "end",
		"ending":   "end",
		"none":     "off",
		"clear":    "off",
	},
)

// Features is the closed toggleable-feature vocabulary.
var Features = NewVocabulary(
	[]string{"sparkles", "halo", "trail", "stars", "fireflies", "rain"},
	map[string]string{
		"glitter":   "sparkles",
		"sparkle":   "sparkles",
		"ring":      "halo",
		"glow":      "halo",
		"comet":     "trail",
		"trails":    "trail",
		"starfield": "stars",
		"bugs":      "fireflies",
		"drizzle":   "rain",
	},
)

// VocabularyFor returns the vocabulary for a category, or nil when the
// category carries no closed value set (MEDITATION) or is unknown.
func VocabularyFor(cat Category) *Vocabulary {
	switch cat {
	case CategoryEmotion:
		return Emotions
	case CategoryShape:
		return Shapes
	case CategoryToggle:
		return Features
	case CategoryPreset:
		return Presets
	case CategoryUndertone:
		return Undertones
	case CategoryChain:
		return Chains
	case CategoryCamera:
		return Cameras
	case CategoryMoonPhase:
		return MoonPhases
	case CategorySunEclipse, CategoryMoonEclipse:
		return Eclipses
	default:
		return nil
	}
}
