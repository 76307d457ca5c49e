package compose

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	timestampLayout = "20060102_150405"
	defaultSlug     = "meme"
)

// OutputPath names the file for topic at t: <dir>/meme_<slug>_<YYYYMMDD_HHMMSS>.png.
// Two compositions with the same slug in the same second share a name.
func OutputPath(dir, topic string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("meme_%s_%s.png", Slug(topic), t.Format(timestampLayout)))
}

// Slug is the first word of topic, lower-cased and stripped to letters, digits and underscores.
func Slug(topic string) string {
	words := strings.Fields(topic)
	if len(words) == 0 {
		return defaultSlug
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(words[0]) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return defaultSlug
	}
	return sb.String()
}

// WritePNG encodes img to a temporary file next to path and renames it into place.
// The temporary file is removed on any failure.
func WritePNG(path string, img image.Image) (err error) {
	if img == nil {
		return fmt.Errorf("compose: image is nil")
	}

	file, err := os.CreateTemp(filepath.Dir(path), ".meme-*.png.tmp")
	if err != nil {
		return fmt.Errorf("compose: create temp file for %q: %w", path, err)
	}
	tmp := file.Name()
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = imaging.Encode(file, img, imaging.PNG); err != nil {
		return fmt.Errorf("compose: encode png %q: %w", path, err)
	}
	if err = file.Chmod(filePerm); err != nil {
		return fmt.Errorf("compose: chmod %q: %w", tmp, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("compose: close %q: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("compose: rename %q: %w", path, err)
	}
	return nil
}
