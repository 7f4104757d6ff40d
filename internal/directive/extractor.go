package directive

import (
	"regexp"
	"strings"
	"sync"
)

// inlinePattern matches the inline bracket dialect: [CATEGORY:value] or
// [CATEGORY:value,modifier]. Category is uppercase letters only; the value
// excludes ']' and ','; the modifier excludes ']'.
var inlinePattern = regexp.MustCompile(`\[([A-Z]+):([^\]\,]+)(?:,([^\]]+))?\]`)

// Extractor scans raw brain text for inline directives, removes them, and
// records each one with its offset in the cleaned text. Calling Parse again
// replaces all prior state; one Extractor owns one parse session at a time.
type Extractor struct {
	mu         sync.RWMutex
	directives []Directive
	cleanText  string
}

// NewExtractor creates an empty Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Parse scans raw left to right, strips every inline directive, and returns
// the clean text. Each recorded directive's Offset is the length of the
// clean-text accumulator at the moment the directive was encountered, so
// offsets live in the same coordinate space the narration engine paces
// against. Offsets are non-decreasing and source order is preserved.
func (e *Extractor) Parse(raw string) string {
	var sb strings.Builder
	var found []Directive

	matches := inlinePattern.FindAllStringSubmatchIndex(raw, -1)
	last := 0
	for _, m := range matches {
		sb.WriteString(raw[last:m[0]])

		d := Directive{
			Category: Category(raw[m[2]:m[3]]),
			RawValue: strings.TrimSpace(raw[m[4]:m[5]]),
			Offset:   sb.Len(),
		}
		if m[6] >= 0 {
			d.Modifier = strings.TrimSpace(raw[m[6]:m[7]])
		}
		found = append(found, d)
		last = m[1]
	}
	sb.WriteString(raw[last:])

	clean := sb.String()

	e.mu.Lock()
	e.directives = found
	e.cleanText = clean
	e.mu.Unlock()

	return clean
}

// CleanText returns the clean text produced by the last Parse.
func (e *Extractor) CleanText() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cleanText
}

// Directives returns a copy of the directive list from the last Parse,
// ordered ascending by offset.
func (e *Extractor) Directives() []Directive {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Directive, len(e.directives))
	copy(out, e.directives)
	return out
}

// HasDirectives reports whether the last Parse found any inline directives.
func (e *Extractor) HasDirectives() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.directives) > 0
}

// Reset clears all parse state.
func (e *Extractor) Reset() {
	e.mu.Lock()
	e.directives = nil
	e.cleanText = ""
	e.mu.Unlock()
}
