package render

import (
	"image"
	stddraw "image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// MinDimension is the smallest width or height a template is rendered at.
const MinDimension = 800

// Normalize upscales img uniformly with Lanczos resampling until both sides reach MinDimension.
// Images that are already large enough are returned unchanged.
func Normalize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return img
	}
	if w >= MinDimension && h >= MinDimension {
		return img
	}

	ratio := math.Max(float64(MinDimension)/float64(w), float64(MinDimension)/float64(h))
	return imaging.Resize(img, scaledDimension(w, ratio), scaledDimension(h, ratio), imaging.Lanczos)
}

// scaledDimension rounds n*ratio up, ignoring float noise so exact targets stay exact.
func scaledDimension(n int, ratio float64) int {
	return int(math.Ceil(float64(n)*ratio - 1e-9))
}

// ToRGBA returns img as a zero-origin RGBA canvas, copying when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(canvas, canvas.Bounds(), img, b.Min, stddraw.Src)
	return canvas
}
