package directive

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractor_Parse_SpecExample(t *testing.T) {
	e := NewExtractor()
	clean := e.Parse("[MORPH:sphere]Hello [FEEL:happy,bounce] world")

	if clean != "Hello  world" {
		t.Errorf("clean text = %q, want %q", clean, "Hello  world")
	}

	ds := e.Directives()
	if len(ds) != 2 {
		t.Fatalf("expected 2 directives, got %d", len(ds))
	}

	if ds[0].Category != CategoryShape || ds[0].RawValue != "sphere" || ds[0].Offset != 0 {
		t.Errorf("first directive = %+v, want MORPH sphere at 0", ds[0])
	}
	if ds[1].Category != CategoryEmotion || ds[1].RawValue != "happy" || ds[1].Modifier != "bounce" {
		t.Errorf("second directive = %+v, want FEEL happy,bounce", ds[1])
	}
	if ds[1].Offset != len("Hello ") {
		t.Errorf("second directive offset = %d, want %d", ds[1].Offset, len("Hello "))
	}

	// "sphere" and "happy" are both correctable.
	if r := Correct(ds[0].RawValue, Shapes); !Shapes.Contains(r.Value) || !r.Corrected {
		t.Errorf("sphere should correct to a canonical shape, got %+v", r)
	}
	if r := Correct(ds[1].RawValue, Emotions); r.Value != "joy" || !r.Corrected {
		t.Errorf("happy should correct to joy, got %+v", r)
	}
}

func TestExtractor_Parse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantClean string
		wantCount int
	}{
		{"no directives", "Just a plain sentence.", "Just a plain sentence.", 0},
		{"directive only", "[FEEL:joy]", "", 1},
		{"leading text", "Hi there [MORPH:star]", "Hi there ", 1},
		{"adjacent directives", "[FEEL:joy][MORPH:star]done", "done", 2},
		{"lowercase category ignored", "look [feel:joy] here", "look [feel:joy] here", 0},
		{"unclosed bracket ignored", "a [FEEL:joy b", "a [FEEL:joy b", 0},
		{"empty value ignored", "x [FEEL:] y", "x [FEEL:] y", 0},
		{"modifier with spaces", "[FEEL:calm, slow sway]ok", "ok", 1},
		{"unknown category still extracted", "[ZAP:bang] pow", " pow", 1},
		{"multibyte text preserved", "héllo [FEEL:joy] wörld", "héllo  wörld", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor()
			clean := e.Parse(tt.input)
			if clean != tt.wantClean {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, clean, tt.wantClean)
			}
			if got := len(e.Directives()); got != tt.wantCount {
				t.Errorf("directive count = %d, want %d", got, tt.wantCount)
			}
			if e.HasDirectives() != (tt.wantCount > 0) {
				t.Errorf("HasDirectives() = %v, want %v", e.HasDirectives(), tt.wantCount > 0)
			}
		})
	}
}

func TestExtractor_OffsetsNonDecreasing(t *testing.T) {
	inputs := []string{
		"[FEEL:joy]a[MORPH:star]b[PRESET:gold]c",
		"start [CAMERA:close] middle [CHAIN:greeting] end [TOGGLE:halo,off]",
		"[A:x][B:y][C:z]",
		"no markers at all",
	}

	for _, input := range inputs {
		e := NewExtractor()
		clean := e.Parse(input)
		ds := e.Directives()

		prev := -1
		for i, d := range ds {
			if d.Offset < prev {
				t.Errorf("input %q: offset %d at index %d decreased below %d", input, d.Offset, i, prev)
			}
			if d.Offset > len(clean) {
				t.Errorf("input %q: offset %d beyond clean text length %d", input, d.Offset, len(clean))
			}
			prev = d.Offset
		}
	}
}

// Re-inserting each directive marker at its recorded offset must rebuild
// the original input.
func TestExtractor_Reconstruction(t *testing.T) {
	inputs := []string{
		"[MORPH:sphere]Hello [FEEL:happy,bounce] world",
		"a[FEEL:joy]b[MORPH:star]c",
		"[TOGGLE:halo,on]",
		"plain",
	}

	for _, input := range inputs {
		e := NewExtractor()
		clean := e.Parse(input)
		ds := e.Directives()

		var sb strings.Builder
		pos := 0
		for _, d := range ds {
			sb.WriteString(clean[pos:d.Offset])
			sb.WriteString("[" + string(d.Category) + ":" + d.RawValue)
			if d.Modifier != "" {
				sb.WriteString("," + d.Modifier)
			}
			sb.WriteString("]")
			pos = d.Offset
		}
		sb.WriteString(clean[pos:])

		if sb.String() != input {
			t.Errorf("reconstruction = %q, want %q", sb.String(), input)
		}
	}
}

func TestExtractor_ParseReplacesState(t *testing.T) {
	e := NewExtractor()

	e.Parse("[FEEL:joy] first")
	if len(e.Directives()) != 1 {
		t.Fatal("expected 1 directive after first parse")
	}

	clean := e.Parse("second, no markers")
	if clean != "second, no markers" {
		t.Errorf("second parse clean = %q", clean)
	}
	if e.HasDirectives() {
		t.Error("second parse should have replaced directive state")
	}
	if e.CleanText() != clean {
		t.Error("CleanText should reflect the latest parse")
	}
}

func TestExtractor_Idempotent(t *testing.T) {
	const input = "[MORPH:star]Twinkle [FEEL:joy,bounce] twinkle [PRESET:gold]"

	e := NewExtractor()
	clean1 := e.Parse(input)
	ds1 := e.Directives()

	e.Reset()
	clean2 := e.Parse(input)
	ds2 := e.Directives()

	if clean1 != clean2 {
		t.Errorf("clean text differs across parses: %q vs %q", clean1, clean2)
	}
	if !reflect.DeepEqual(ds1, ds2) {
		t.Errorf("directive lists differ across parses: %+v vs %+v", ds1, ds2)
	}
}

func TestExtractor_Reset(t *testing.T) {
	e := NewExtractor()
	e.Parse("[FEEL:joy] hi")
	e.Reset()

	if e.HasDirectives() || e.CleanText() != "" || len(e.Directives()) != 0 {
		t.Error("Reset should clear all parse state")
	}
}
