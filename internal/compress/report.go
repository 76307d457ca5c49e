package compress

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Size thresholds in KB for the suggested preset.
const (
	highQualityBelowKB   = 500
	mediumQualityBelowKB = 1500
)

// FileSizeKB returns the size of path in kilobytes, or 0 when it cannot be read.
func FileSizeKB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024
}

// FormatSize renders a size given in KB as bytes, kilobytes or megabytes.
func FormatSize(kb float64) string {
	switch {
	case kb < 1:
		return fmt.Sprintf("%.0f B", kb*1024)
	case kb < 1024:
		return fmt.Sprintf("%.2f KB", kb)
	default:
		return fmt.Sprintf("%.2f MB", kb/1024)
	}
}

// SuggestQuality picks a preset from a file size in KB.
func SuggestQuality(kb float64) Quality {
	switch {
	case kb < highQualityBelowKB:
		return High
	case kb < mediumQualityBelowKB:
		return Medium
	default:
		return Low
	}
}

// Estimate is the measured outcome of one format/preset combination.
type Estimate struct {
	SizeKB           float64 `json:"size_kb"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// Recommendation summarizes an image and what each preset would do to it.
type Recommendation struct {
	CurrentSizeKB    float64             `json:"current_size_kb"`
	CurrentReadable  string              `json:"current_size_readable"`
	Dimensions       string              `json:"dimensions"`
	Format           string              `json:"format"`
	SuggestedQuality Quality             `json:"suggested_quality"`
	EstimatedSizes   map[string]Estimate `json:"estimated_sizes"`
}

// estimateFormats are the formats trial-encoded by Recommend.
var estimateFormats = []Format{JPEG, PNG}

// Recommend inspects path and trial-encodes it with every preset. Trial files are written
// next to path and removed afterwards. Estimates are keyed "<format>_<quality>".
func Recommend(path string) (Recommendation, error) {
	file, err := os.Open(path)
	if err != nil {
		return Recommendation{}, fmt.Errorf("compress: open %q: %w", path, err)
	}
	cfg, format, err := image.DecodeConfig(file)
	file.Close()
	if err != nil {
		return Recommendation{}, fmt.Errorf("compress: decode header %q: %w", path, err)
	}

	size := FileSizeKB(path)
	rec := Recommendation{
		CurrentSizeKB:    round2(size),
		CurrentReadable:  FormatSize(size),
		Dimensions:       fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		Format:           strings.ToUpper(format),
		SuggestedQuality: SuggestQuality(size),
		EstimatedSizes:   make(map[string]Estimate),
	}

	for _, q := range Qualities() {
		for _, f := range estimateFormats {
			est, err := estimate(path, f, q)
			if err != nil {
				return Recommendation{}, err
			}
			rec.EstimatedSizes[fmt.Sprintf("%s_%s", f, q)] = est
		}
	}
	return rec, nil
}

func estimate(path string, f Format, q Quality) (Estimate, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), fmt.Sprintf(".estimate-%s-%s-*%s", f, q, Extension(f)))
	if err != nil {
		return Estimate{}, fmt.Errorf("compress: create trial file: %w", err)
	}
	name := tmp.Name()
	tmp.Close()
	defer os.Remove(name)

	res, err := Compress(path, name, Options{Format: f, Quality: q})
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{SizeKB: res.CompressedSizeKB, CompressionRatio: res.CompressionRatio}, nil
}
