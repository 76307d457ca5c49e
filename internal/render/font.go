package render

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// BuiltinFont names the embedded Go Bold face. It can be used anywhere a font path is accepted.
const BuiltinFont = "builtin"

const fontDPI = 72

// Font is a parsed font file. It is safe to share between compositions; faces derived from it are not.
type Font struct {
	name   string
	parsed *opentype.Font
}

// LoadFont reads and parses the font at path. The BuiltinFont name loads the embedded face instead.
func LoadFont(path string) (*Font, error) {
	if path == BuiltinFont {
		return ParseFont(BuiltinFont, gobold.TTF)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: read font %q: %w", path, err)
	}
	return ParseFont(path, data)
}

// ParseFont parses TrueType or OpenType font data.
func ParseFont(name string, data []byte) (*Font, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parse font %q: %w", name, err)
	}
	return &Font{name: name, parsed: parsed}, nil
}

// Name returns the path or name the font was loaded from.
func (f *Font) Name() string {
	return f.name
}

// Face builds a face at the given pixel size.
func (f *Font) Face(size int) (font.Face, error) {
	if f == nil || f.parsed == nil {
		return nil, fmt.Errorf("render: font is nil")
	}
	if size <= 0 {
		return nil, fmt.Errorf("render: invalid font size %d", size)
	}
	face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     fontDPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("render: construct font face: %w", err)
	}
	return face, nil
}

// MeasureWidth returns the advance width of text in whole pixels.
func MeasureWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
