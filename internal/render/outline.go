package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	fillColor    = color.White
	outlineColor = color.Black
)

var diagonalOffsets = []image.Point{{1, 1}, {-1, -1}, {1, -1}, {-1, 1}}

// DrawOutlined draws one line of white text with a black outline and a black stroke of strokeWidth pixels.
// (x, y) is the top-left corner of the line box; the baseline sits one ascent below y.
// Drawing is clipped to dst.
//
// The glyphs are rasterized once into a coverage mask; the outline is that mask dilated by a disc of
// radius strokeWidth plus the four diagonal offsets, so the cost grows linearly with the stroke width.
func DrawOutlined(dst *image.RGBA, face font.Face, text string, x, y, strokeWidth int) error {
	if dst == nil {
		return fmt.Errorf("render: destination is nil")
	}
	if face == nil {
		return fmt.Errorf("render: font face is nil")
	}

	baseline := y + face.Metrics().Ascent.Ceil()

	radius := maxInt(strokeWidth, 1)
	mask := glyphMask(face, text, radius+1)
	outline := dilateDisc(mask, strokeWidth)
	orOffsets(outline, mask, diagonalOffsets)

	origin := image.Pt(x, baseline)
	draw.DrawMask(dst, outline.Bounds().Add(origin), image.NewUniform(outlineColor), image.Point{},
		outline, outline.Bounds().Min, draw.Over)

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)
	dc.SetColor(fillColor)
	dc.DrawString(text, float64(x), float64(baseline))
	return nil
}

// glyphMask rasterizes text with its dot at the origin into an alpha mask padded by pad pixels on every side.
func glyphMask(face font.Face, text string, pad int) *image.Alpha {
	b, _ := font.BoundString(face, text)
	r := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil()).Inset(-pad)
	mask := image.NewAlpha(r)
	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: fixed.P(0, 0)}
	d.DrawString(text)
	return mask
}

// dilateDisc returns a mask where every pixel holds the maximum coverage found within radius of it.
// Each disc row is a horizontal window, so one windowed-max pass per row offset is enough.
func dilateDisc(src *image.Alpha, radius int) *image.Alpha {
	r := src.Bounds()
	out := image.NewAlpha(r)
	if radius <= 0 || r.Empty() {
		copy(out.Pix, src.Pix)
		return out
	}

	w := r.Dx()
	row := make([]uint8, w)
	var wm windowMax
	for dy := -radius; dy <= radius; dy++ {
		half := int(math.Sqrt(float64(radius*radius - dy*dy)))
		for sy := r.Min.Y; sy < r.Max.Y; sy++ {
			ty := sy - dy
			if ty < r.Min.Y || ty >= r.Max.Y {
				continue
			}
			srow := src.Pix[src.PixOffset(r.Min.X, sy):][:w]
			wm.apply(row, srow, half)
			orow := out.Pix[out.PixOffset(r.Min.X, ty):][:w]
			for i, v := range row {
				if v > orow[i] {
					orow[i] = v
				}
			}
		}
	}
	return out
}

// orOffsets raises dst to src shifted by each offset wherever that is larger.
func orOffsets(dst, src *image.Alpha, offsets []image.Point) {
	r := src.Bounds()
	for _, off := range offsets {
		for sy := r.Min.Y; sy < r.Max.Y; sy++ {
			ty := sy + off.Y
			if ty < r.Min.Y || ty >= r.Max.Y {
				continue
			}
			for sx := r.Min.X; sx < r.Max.X; sx++ {
				tx := sx + off.X
				if tx < r.Min.X || tx >= r.Max.X {
					continue
				}
				v := src.Pix[src.PixOffset(sx, sy)]
				if i := dst.PixOffset(tx, ty); v > dst.Pix[i] {
					dst.Pix[i] = v
				}
			}
		}
	}
}

// windowMax computes sliding maxima with the van Herk/Gil-Werman block scheme; its buffers are reused across calls.
type windowMax struct {
	pad, g, h []uint8
}

// apply sets dst[i] to the maximum of src over [i-half, i+half], treating positions outside src as zero.
func (wm *windowMax) apply(dst, src []uint8, half int) {
	if half <= 0 {
		copy(dst, src)
		return
	}
	n := len(src)
	m := 2*half + 1
	size := n + 2*half
	if cap(wm.pad) < size {
		wm.pad = make([]uint8, size)
		wm.g = make([]uint8, size)
		wm.h = make([]uint8, size)
	}
	p, g, h := wm.pad[:size], wm.g[:size], wm.h[:size]
	clear(p)
	copy(p[half:], src)

	for i := 0; i < size; i++ {
		if i%m == 0 || p[i] > g[i-1] {
			g[i] = p[i]
		} else {
			g[i] = g[i-1]
		}
	}
	for i := size - 1; i >= 0; i-- {
		if i == size-1 || i%m == m-1 || p[i] > h[i+1] {
			h[i] = p[i]
		} else {
			h[i] = h[i+1]
		}
	}
	for i := 0; i < n; i++ {
		a, b := h[i], g[i+m-1]
		if b > a {
			a = b
		}
		dst[i] = a
	}
}
