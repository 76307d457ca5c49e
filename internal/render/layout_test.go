package render

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

// TestComputeLayout_StandardResolution_ExactMath verifies the margin, spacing and anchoring formulas for 1000x800.
// The test fails on any mismatch in geometry or line positions.
func TestComputeLayout_StandardResolution_ExactMath(t *testing.T) {
	w, h, size := 1000, 800, 48
	face := mustFace(t, size)

	top := "When the code works on the first try"
	bottom := "and you have no idea why"
	l, err := ComputeLayout(w, h, face, size, top, bottom)
	if err != nil {
		t.Fatalf("ComputeLayout error: %v", err)
	}

	margin := int(float64(h) * marginRatio)
	lineHeight := int(float64(size) * lineHeightRatio)
	stroke := maxInt(minStrokeWidth, int(float64(size)*strokeRatio))

	if l.Width != w || l.Height != h {
		t.Fatalf("size: got %dx%d", l.Width, l.Height)
	}
	if l.Margin != margin || l.MaxTextWidth != w-2*margin {
		t.Fatalf("margin: got %d/%d want %d/%d", l.Margin, l.MaxTextWidth, margin, w-2*margin)
	}
	if l.LineHeight != lineHeight || l.StrokeWidth != stroke || l.FontSize != size {
		t.Fatalf("line metrics: got lh=%d stroke=%d size=%d", l.LineHeight, l.StrokeWidth, l.FontSize)
	}
	if len(l.Top) == 0 || len(l.Bottom) == 0 {
		t.Fatalf("expected both blocks, got top=%d bottom=%d", len(l.Top), len(l.Bottom))
	}

	for i, line := range l.Top {
		if want := margin + i*lineHeight; line.Y != want {
			t.Fatalf("top line %d Y: got %d want %d", i, line.Y, want)
		}
	}
	last := l.Bottom[len(l.Bottom)-1]
	if got := last.Y + lineHeight; got != h-margin {
		t.Fatalf("bottom block edge: got %d want %d", got, h-margin)
	}
	for _, line := range l.Lines() {
		if line.Width != MeasureWidth(face, line.Text) {
			t.Fatalf("line %q width: got %d want %d", line.Text, line.Width, MeasureWidth(face, line.Text))
		}
		if want := floorDiv(w-line.Width, 2); line.X != want {
			t.Fatalf("line %q X: got %d want %d", line.Text, line.X, want)
		}
	}
	if l.Overlaps() {
		t.Fatalf("typical captions must not overlap")
	}
}

// TestComputeLayout_OverlapIsReportedNotClamped pins the behavior for a pathological bottom caption:
// the block keeps its bottom anchor and rises over the top block, and Overlaps reports it.
func TestComputeLayout_OverlapIsReportedNotClamped(t *testing.T) {
	const w, h, size = 1000, 800, 48
	face := mustFace(t, size)

	bottom := strings.Repeat("this caption just keeps going ", 40)
	l, err := ComputeLayout(w, h, face, size, "top", bottom)
	if err != nil {
		t.Fatalf("ComputeLayout error: %v", err)
	}
	if !l.Overlaps() {
		t.Fatalf("expected overlap for %d bottom lines", len(l.Bottom))
	}
	if want := h - l.Margin - len(l.Bottom)*l.LineHeight; l.Bottom[0].Y != want {
		t.Fatalf("bottom start: got %d want %d", l.Bottom[0].Y, want)
	}
}

func TestComputeLayout_EmptyCaptions(t *testing.T) {
	face := mustFace(t, 40)
	l, err := ComputeLayout(800, 800, face, 40, "", "   ")
	if err != nil {
		t.Fatalf("ComputeLayout error: %v", err)
	}
	if len(l.Lines()) != 0 || l.Overlaps() {
		t.Fatalf("expected no lines, got %+v", l.Lines())
	}
}

func TestComputeLayout_ErrorsOnNilFace(t *testing.T) {
	_, err := ComputeLayout(800, 800, nil, 40, "t", "b")
	if err == nil || !strings.Contains(err.Error(), "font face is nil") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLongestCaption(t *testing.T) {
	cases := []struct {
		top, bottom, want string
	}{
		{"short", "much longer", "much longer"},
		{"much longer", "short", "much longer"},
		{"same", "size", "same"},
		// Character count, not bytes.
		{"ééé", "abcd", "abcd"},
	}
	for _, c := range cases {
		if got := LongestCaption(c.top, c.bottom); got != c.want {
			t.Fatalf("LongestCaption(%q, %q): got %q want %q", c.top, c.bottom, got, c.want)
		}
	}
}

// TestRenderCaptions_StaysInsideBounds draws into a sub-image of a larger canvas and checks that nothing
// outside the sub-image was touched, even for a word wider than the image.
func TestRenderCaptions_StaysInsideBounds(t *testing.T) {
	sentinel := color.RGBA{255, 0, 0, 255}
	canvas := solidRGBA(1400, 1200, sentinel)
	region := image.Rect(200, 150, 1200, 950)
	sub := canvas.SubImage(region).(*image.RGBA)

	f := mustBuiltinFont(t)
	top := "A caption with a " + strings.Repeat("W", 50) + " word"
	l, err := RenderCaptions(sub, f, top, "and a perfectly ordinary bottom line")
	if err != nil {
		t.Fatalf("RenderCaptions error: %v", err)
	}
	if l.Width != region.Dx() || l.Height != region.Dy() {
		t.Fatalf("layout size: got %dx%d", l.Width, l.Height)
	}

	changedInside := false
	for y := 0; y < 1200; y++ {
		for x := 0; x < 1400; x++ {
			c := canvas.RGBAAt(x, y)
			if (image.Point{X: x, Y: y}).In(region) {
				if c != sentinel {
					changedInside = true
				}
				continue
			}
			if c != sentinel {
				t.Fatalf("pixel (%d,%d) outside the target changed to %v", x, y, c)
			}
		}
	}
	if !changedInside {
		t.Fatalf("expected captions to be drawn inside the target")
	}
}

func TestRenderCaptions_UsesOneSizeForBothBlocks(t *testing.T) {
	f := mustBuiltinFont(t)
	img := solidRGBA(1000, 800, color.RGBA{0, 0, 0, 255})

	top := "A"
	bottom := "A noticeably longer bottom caption that drives the size"
	l, err := RenderCaptions(img, f, top, bottom)
	if err != nil {
		t.Fatalf("RenderCaptions error: %v", err)
	}
	want, err := SelectFontSize(f, 1000, 800, bottom)
	if err != nil {
		t.Fatalf("SelectFontSize error: %v", err)
	}
	if l.FontSize != want {
		t.Fatalf("font size: got %d want %d", l.FontSize, want)
	}
}
