// Package compress re-encodes generated memes at smaller sizes.
package compress

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// ErrUnsupportedFormat is returned for formats without an encoder.
var ErrUnsupportedFormat = errors.New("compress: unsupported format")

const filePerm = 0o644

// Format is an output encoding.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	BMP  Format = "bmp"
	WebP Format = "webp"
)

// Quality selects a compression preset.
type Quality string

const (
	High   Quality = "high"
	Medium Quality = "medium"
	Low    Quality = "low"
)

type preset struct {
	jpegQuality int
	pngLevel    png.CompressionLevel
}

var presets = map[Quality]preset{
	High:   {jpegQuality: 85, pngLevel: png.BestCompression},
	Medium: {jpegQuality: 75, pngLevel: png.BestCompression},
	Low:    {jpegQuality: 60, pngLevel: png.DefaultCompression},
}

var extensions = map[Format]string{
	JPEG: ".jpg",
	PNG:  ".png",
	BMP:  ".bmp",
	WebP: ".webp",
}

// Qualities lists the presets from largest to smallest output.
func Qualities() []Quality {
	return []Quality{High, Medium, Low}
}

// ParseFormat accepts a format name, including the "jpg" alias.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "jpg" {
		f = JPEG
	}
	if _, ok := extensions[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// ParseQuality accepts a preset name. Unknown names are an error.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presets[q]; !ok {
		return "", fmt.Errorf("compress: unknown quality %q", s)
	}
	return q, nil
}

// Extension returns the file extension for f, with the leading dot.
func Extension(f Format) string {
	return extensions[f]
}

// Options controls one compression.
type Options struct {
	Format  Format
	Quality Quality
	// ResizeRatio below 1 shrinks the image with Lanczos resampling. Zero or values >= 1 keep the size.
	ResizeRatio float64
}

// Result describes one compressed file. Sizes are in kilobytes, rounded to two decimals.
type Result struct {
	OutputPath         string  `json:"output_path"`
	Format             Format  `json:"format"`
	Quality            Quality `json:"quality_level"`
	OriginalSizeKB     float64 `json:"original_size_kb"`
	CompressedSizeKB   float64 `json:"compressed_size_kb"`
	CompressionRatio   float64 `json:"compression_ratio"`
	OriginalReadable   string  `json:"original_size_readable"`
	CompressedReadable string  `json:"compressed_size_readable"`
	Extension          string  `json:"file_extension"`
}

// Compress decodes input and writes it to output with the requested format and preset.
func Compress(input, output string, opts Options) (Result, error) {
	if opts.Quality == "" {
		opts.Quality = Medium
	}
	p, ok := presets[opts.Quality]
	if !ok {
		return Result{}, fmt.Errorf("compress: unknown quality %q", opts.Quality)
	}
	if opts.Format == WebP {
		return Result{}, fmt.Errorf("%w: no webp encoder available", ErrUnsupportedFormat)
	}
	if _, ok := extensions[opts.Format]; !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}

	img, err := imaging.Open(input)
	if err != nil {
		return Result{}, fmt.Errorf("compress: open %q: %w", input, err)
	}
	if opts.Format == JPEG {
		img = flatten(img)
	}
	if opts.ResizeRatio > 0 && opts.ResizeRatio < 1 {
		img = resize(img, opts.ResizeRatio)
	}

	switch opts.Format {
	case JPEG:
		err = writeJPEG(output, img, p.jpegQuality)
	case PNG:
		err = writePNG(output, img, p.pngLevel)
	case BMP:
		err = writeBMP(output, img)
	}
	if err != nil {
		return Result{}, err
	}

	orig := FileSizeKB(input)
	comp := FileSizeKB(output)
	ratio := 0.0
	if orig > 0 {
		ratio = (orig - comp) / orig * 100
	}
	return Result{
		OutputPath:         output,
		Format:             opts.Format,
		Quality:            opts.Quality,
		OriginalSizeKB:     round2(orig),
		CompressedSizeKB:   round2(comp),
		CompressionRatio:   round2(ratio),
		OriginalReadable:   FormatSize(orig),
		CompressedReadable: FormatSize(comp),
		Extension:          Extension(opts.Format),
	}, nil
}

// CompressMultiple writes input once per format as <outputDir>/<base>_<format><ext>.
// Formats that fail are left out of the map and reported in the joined error.
func CompressMultiple(input, outputDir, base string, q Quality, formats []Format) (map[Format]Result, error) {
	results := make(map[Format]Result, len(formats))
	var errs []error
	for _, f := range formats {
		out := filepath.Join(outputDir, fmt.Sprintf("%s_%s%s", base, f, Extension(f)))
		res, err := Compress(input, out, Options{Format: f, Quality: q})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		results[f] = res
	}
	return results, errors.Join(errs...)
}

// flatten composites img over a white background, dropping transparency.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func resize(img image.Image, ratio float64) image.Image {
	b := img.Bounds()
	w := max(int(float64(b.Dx())*ratio), 1)
	h := max(int(float64(b.Dy())*ratio), 1)
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

func writeBMP(path string, img image.Image) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("compress: open bmp %q: %w", path, err)
	}
	defer file.Close()

	if err := bmp.Encode(file, img); err != nil {
		return fmt.Errorf("compress: encode bmp %q: %w", path, err)
	}
	return nil
}

func writeJPEG(path string, img image.Image, quality int) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("compress: open jpeg %q: %w", path, err)
	}
	defer file.Close()

	if err := imaging.Encode(file, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("compress: encode jpeg %q: %w", path, err)
	}
	return nil
}

func writePNG(path string, img image.Image, level png.CompressionLevel) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("compress: open png %q: %w", path, err)
	}
	defer file.Close()

	if err := imaging.Encode(file, img, imaging.PNG, imaging.PNGCompressionLevel(level)); err != nil {
		return fmt.Errorf("compress: encode png %q: %w", path, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
