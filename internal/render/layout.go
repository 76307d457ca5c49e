package render

import (
	"fmt"
	"image"
	"unicode/utf8"

	"golang.org/x/image/font"
)

const (
	marginRatio     = 0.06
	lineHeightRatio = 1.3
	strokeRatio     = 0.04
	minStrokeWidth  = 2
)

// Line is one wrapped caption line and the top-left corner it is drawn at.
type Line struct {
	Text  string
	X, Y  int
	Width int
}

// Layout defines all geometry used to draw the two caption blocks.
type Layout struct {
	Width, Height int

	FontSize     int
	Margin       int
	MaxTextWidth int
	LineHeight   int
	StrokeWidth  int

	Top    []Line
	Bottom []Line
}

// LongestCaption returns whichever caption has more characters, preferring top on a tie.
func LongestCaption(top, bottom string) string {
	if utf8.RuneCountInString(bottom) > utf8.RuneCountInString(top) {
		return bottom
	}
	return top
}

// ComputeLayout wraps both captions with face and positions them: the top block hangs from the top margin,
// the bottom block rests on the bottom margin, and every line is centered horizontally.
func ComputeLayout(width, height int, face font.Face, fontSize int, top, bottom string) (Layout, error) {
	if width <= 0 || height <= 0 {
		return Layout{}, fmt.Errorf("layout: invalid image size %dx%d", width, height)
	}
	if face == nil {
		return Layout{}, fmt.Errorf("layout: font face is nil")
	}

	margin := int(float64(height) * marginRatio)
	maxTextWidth := width - 2*margin
	lineHeight := int(float64(fontSize) * lineHeightRatio)
	strokeWidth := maxInt(minStrokeWidth, int(float64(fontSize)*strokeRatio))

	l := Layout{
		Width:        width,
		Height:       height,
		FontSize:     fontSize,
		Margin:       margin,
		MaxTextWidth: maxTextWidth,
		LineHeight:   lineHeight,
		StrokeWidth:  strokeWidth,
	}

	topLines := WrapText(face, top, maxTextWidth)
	l.Top = placeLines(face, topLines, width, margin, lineHeight)

	bottomLines := WrapText(face, bottom, maxTextWidth)
	bottomY := height - margin - len(bottomLines)*lineHeight
	l.Bottom = placeLines(face, bottomLines, width, bottomY, lineHeight)

	return l, nil
}

func placeLines(face font.Face, lines []string, width, startY, lineHeight int) []Line {
	placed := make([]Line, 0, len(lines))
	y := startY
	for _, text := range lines {
		lineWidth := MeasureWidth(face, text)
		placed = append(placed, Line{
			Text:  text,
			X:     floorDiv(width-lineWidth, 2),
			Y:     y,
			Width: lineWidth,
		})
		y += lineHeight
	}
	return placed
}

// Lines returns the top block followed by the bottom block.
func (l Layout) Lines() []Line {
	lines := make([]Line, 0, len(l.Top)+len(l.Bottom))
	lines = append(lines, l.Top...)
	return append(lines, l.Bottom...)
}

// TopEnd is the y coordinate just below the last top line.
func (l Layout) TopEnd() int {
	return l.Margin + len(l.Top)*l.LineHeight
}

// Overlaps reports whether the bottom block starts above the end of the top block.
// Blocks are never moved apart; callers decide what to do about it.
func (l Layout) Overlaps() bool {
	if len(l.Top) == 0 || len(l.Bottom) == 0 {
		return false
	}
	return l.Bottom[0].Y < l.TopEnd()
}

// RenderCaptions sizes, wraps and draws top and bottom onto dst in place.
// Both blocks share one font size, chosen from the caption with more characters.
func RenderCaptions(dst *image.RGBA, f *Font, top, bottom string) (Layout, error) {
	if dst == nil {
		return Layout{}, fmt.Errorf("render: destination is nil")
	}
	b := dst.Bounds()

	size, err := SelectFontSize(f, b.Dx(), b.Dy(), LongestCaption(top, bottom))
	if err != nil {
		return Layout{}, err
	}
	face, err := f.Face(size)
	if err != nil {
		return Layout{}, err
	}

	l, err := ComputeLayout(b.Dx(), b.Dy(), face, size, top, bottom)
	if err != nil {
		return Layout{}, err
	}

	for _, line := range l.Lines() {
		if err := DrawOutlined(dst, face, line.Text, b.Min.X+line.X, b.Min.Y+line.Y, l.StrokeWidth); err != nil {
			return Layout{}, err
		}
	}
	return l, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
