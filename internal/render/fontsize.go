package render

import "fmt"

const (
	// DefaultWidthRatio is the share of the image width a caption may take at its chosen size.
	DefaultWidthRatio = 0.80

	initialSizeRatio = 0.12
	minSizeRatio     = 0.06
	maxSizeRatio     = 0.15
	sizeStep         = 2
)

// SelectFontSize finds the largest font size for text on a width x height image using DefaultWidthRatio.
func SelectFontSize(f *Font, width, height int, text string) (int, error) {
	return SelectFontSizeRatio(f, width, height, text, DefaultWidthRatio)
}

// SelectFontSizeRatio steps the size down from 12% of the image height until text fits within ratio*width.
// The result never drops below 6% of the height, so long text is expected to be wrapped by the caller.
// A face that cannot be built at a candidate size is returned as an error.
func SelectFontSizeRatio(f *Font, width, height int, text string, ratio float64) (int, error) {
	if f == nil {
		return 0, fmt.Errorf("render: font is nil")
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("render: invalid image size %dx%d", width, height)
	}

	initial := int(float64(height) * initialSizeRatio)
	minSize := int(float64(height) * minSizeRatio)
	maxSize := int(float64(height) * maxSizeRatio)
	limit := float64(width) * ratio

	size := minInt(initial, maxSize)
	for size > minSize {
		face, err := f.Face(size)
		if err != nil {
			return 0, fmt.Errorf("render: load font at size %d: %w", size, err)
		}
		if float64(MeasureWidth(face, text)) <= limit {
			break
		}
		size -= sizeStep
	}

	return maxInt(maxInt(size, minSize), 1), nil
}
