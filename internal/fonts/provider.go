// Package fonts locates the font file captions are rendered with.
package fonts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nickhildebrandt/memegen/internal/render"
)

// ErrUnavailable is returned when no usable font can be found or downloaded.
var ErrUnavailable = errors.New("fonts: no usable font")

const (
	DefaultURL      = "https://github.com/google/fonts/raw/main/apache/opensans/OpenSans%5Bwdth,wght%5D.ttf"
	downloadName    = "OpenSans-Bold.ttf"
	dirPerm         = 0o755
	filePerm        = 0o644
	maxDownloadSize = 32 << 20
)

// Provider resolves a font path in this order: the explicit Path, the first .ttf/.otf file in Dir,
// then a download from URL into Dir.
type Provider struct {
	Path       string
	Dir        string
	URL        string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Resolve returns a path accepted by render.LoadFont.
func (p *Provider) Resolve(ctx context.Context) (string, error) {
	if p.Path != "" {
		if p.Path == render.BuiltinFont {
			return p.Path, nil
		}
		if _, err := os.Stat(p.Path); err != nil {
			return "", fmt.Errorf("%w: font %q: %v", ErrUnavailable, p.Path, err)
		}
		return p.Path, nil
	}

	if p.Dir == "" {
		return "", fmt.Errorf("%w: no font path or fonts directory configured", ErrUnavailable)
	}

	if found, ok := findFontFile(p.Dir); ok {
		p.logger().Debug("using font from fonts directory", "path", found)
		return found, nil
	}

	if p.URL == "" {
		return "", fmt.Errorf("%w: no font in %q and no download URL", ErrUnavailable, p.Dir)
	}

	p.logger().Info("downloading font", "url", p.URL, "dir", p.Dir)
	path, err := p.download(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p.logger().Info("font downloaded", "path", path)
	return path, nil
}

// Load resolves and parses the font.
func (p *Provider) Load(ctx context.Context) (*render.Font, error) {
	path, err := p.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	f, err := render.LoadFont(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return f, nil
}

func findFontFile(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".ttf" || ext == ".otf" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

// download fetches URL into Dir via a temp file. Only data that parses as a font is moved into place.
func (p *Provider) download(ctx context.Context) (string, error) {
	if err := os.MkdirAll(p.Dir, dirPerm); err != nil {
		return "", fmt.Errorf("fonts: create dir %q: %w", p.Dir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", fmt.Errorf("fonts: build request: %w", err)
	}
	resp, err := p.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("fonts: download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("fonts: download returned http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return "", fmt.Errorf("fonts: read download: %w", err)
	}
	if len(data) > maxDownloadSize {
		return "", fmt.Errorf("fonts: download exceeds %d bytes", maxDownloadSize)
	}
	if _, err := render.ParseFont(p.URL, data); err != nil {
		return "", fmt.Errorf("fonts: downloaded file is not a font: %w", err)
	}

	tmp, err := os.CreateTemp(p.Dir, ".font-*.tmp")
	if err != nil {
		return "", fmt.Errorf("fonts: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("fonts: write font: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("fonts: close font: %w", err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return "", fmt.Errorf("fonts: chmod font: %w", err)
	}

	path := filepath.Join(p.Dir, downloadName)
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("fonts: move font into place: %w", err)
	}
	return path, nil
}

func (p *Provider) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *Provider) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
