package render

import (
	"strings"
	"testing"
)

// mustBuiltinFont loads the embedded font used by all render tests.
// The test fails fast if the font cannot be parsed.
func mustBuiltinFont(t *testing.T) *Font {
	t.Helper()
	f, err := LoadFont(BuiltinFont)
	if err != nil {
		t.Fatalf("load builtin font: %v", err)
	}
	return f
}

// TestSelectFontSize_ShortTextKeepsInitialSize verifies that text which fits immediately keeps 12% of the height.
func TestSelectFontSize_ShortTextKeepsInitialSize(t *testing.T) {
	f := mustBuiltinFont(t)

	size, err := SelectFontSize(f, 1000, 800, "A")
	if err != nil {
		t.Fatalf("SelectFontSize error: %v", err)
	}
	if want := int(800 * initialSizeRatio); size != want {
		t.Fatalf("size: got %d want %d", size, want)
	}
}

// TestSelectFontSize_LongTextStopsAtFloor checks that text which never fits ends at 6% of the height.
func TestSelectFontSize_LongTextStopsAtFloor(t *testing.T) {
	f := mustBuiltinFont(t)

	text := strings.Repeat("very long caption ", 20)
	size, err := SelectFontSize(f, 1000, 800, text)
	if err != nil {
		t.Fatalf("SelectFontSize error: %v", err)
	}
	if want := int(800 * minSizeRatio); size != want {
		t.Fatalf("size: got %d want %d", size, want)
	}
}

// TestSelectFontSize_ResultFitsUnlessFloor asserts that any size above the floor actually fits the width ratio.
func TestSelectFontSize_ResultFitsUnlessFloor(t *testing.T) {
	f := mustBuiltinFont(t)
	w, h := 1200, 900
	floor := int(float64(h) * minSizeRatio)

	texts := []string{"A", "Monday again", "When the build passes on the first try", strings.Repeat("W", 40)}
	for _, text := range texts {
		size, err := SelectFontSize(f, w, h, text)
		if err != nil {
			t.Fatalf("%q: SelectFontSize error: %v", text, err)
		}
		if size < floor {
			t.Fatalf("%q: size %d below floor %d", text, size, floor)
		}
		if size == floor {
			continue
		}
		face, err := f.Face(size)
		if err != nil {
			t.Fatalf("%q: face: %v", text, err)
		}
		if got := MeasureWidth(face, text); float64(got) > float64(w)*DefaultWidthRatio {
			t.Fatalf("%q: width %d exceeds %.0f at size %d", text, got, float64(w)*DefaultWidthRatio, size)
		}
	}
}

// TestSelectFontSize_MonotonicInSuperstrings checks that extending a string never yields a larger size.
func TestSelectFontSize_MonotonicInSuperstrings(t *testing.T) {
	f := mustBuiltinFont(t)
	full := "Me explaining to my manager why the deploy on Friday evening was actually a great idea"

	prev := 1 << 30
	for i := 1; i <= len(full); i++ {
		size, err := SelectFontSize(f, 1000, 800, full[:i])
		if err != nil {
			t.Fatalf("prefix %d: SelectFontSize error: %v", i, err)
		}
		if size > prev {
			t.Fatalf("prefix %d (%q): size %d larger than shorter prefix size %d", i, full[:i], size, prev)
		}
		prev = size
	}
}

func TestSelectFontSize_Errors(t *testing.T) {
	f := mustBuiltinFont(t)

	if _, err := SelectFontSize(nil, 100, 100, "x"); err == nil || !strings.Contains(err.Error(), "font is nil") {
		t.Fatalf("expected nil font error, got %v", err)
	}
	if _, err := SelectFontSize(f, 0, 100, "x"); err == nil || !strings.Contains(err.Error(), "invalid image size") {
		t.Fatalf("expected invalid size error, got %v", err)
	}
}

func TestFontFace_InvalidSize(t *testing.T) {
	f := mustBuiltinFont(t)
	if _, err := f.Face(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestLoadFont_MissingFile(t *testing.T) {
	_, err := LoadFont("/nonexistent/font.ttf")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "read font") {
		t.Fatalf("unexpected error: %q", err.Error())
	}
}

func TestParseFont_Garbage(t *testing.T) {
	if _, err := ParseFont("junk", []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
}
