// Package template fetches the background pictures memes are drawn on.
package template

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/webp"
)

// ErrUnavailable marks every failure to produce a template.
var ErrUnavailable = errors.New("template unavailable")

const (
	DefaultEndpoint = "https://api.imgflip.com/get_memes"
	DefaultCacheTTL = time.Hour

	catalogueKey   = "get_memes"
	maxImageSize   = 20 << 20
	cacheCleanupAt = 2 * time.Hour
)

// Template is a downloaded template image. Width and Height come from the catalogue for random picks
// and from the image header for explicit URLs.
type Template struct {
	ID     string
	Name   string
	URL    string
	Width  int
	Height int
	Data   []byte
}

// Source supplies template images.
type Source interface {
	// FetchRandomLandscape returns a random template whose width is at least its height.
	FetchRandomLandscape(ctx context.Context) (Template, error)
	// FetchURL downloads a specific template.
	FetchURL(ctx context.Context, url string) (Template, error)
}

type catalogueEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BoxCount int    `json:"box_count"`
}

type catalogueResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message"`
	Data         struct {
		Memes []catalogueEntry `json:"memes"`
	} `json:"data"`
}

// Config configures an Imgflip client. Zero values select the defaults.
type Config struct {
	Endpoint   string
	HTTPClient *http.Client
	CacheTTL   time.Duration
	// Pick returns a random index in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// Imgflip is a Source backed by the public Imgflip meme catalogue. The catalogue is cached for CacheTTL.
type Imgflip struct {
	endpoint   string
	httpClient *http.Client
	cache      *cache.Cache
	ttl        time.Duration
	pick       func(n int) int
}

// NewImgflip returns a client for the Imgflip catalogue.
func NewImgflip(cfg Config) *Imgflip {
	c := &Imgflip{
		endpoint:   cfg.Endpoint,
		httpClient: cfg.HTTPClient,
		ttl:        cfg.CacheTTL,
		pick:       cfg.Pick,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.ttl <= 0 {
		c.ttl = DefaultCacheTTL
	}
	if c.pick == nil {
		c.pick = rand.IntN
	}
	c.cache = cache.New(c.ttl, cacheCleanupAt)
	return c
}

// FetchRandomLandscape picks a random landscape entry from the catalogue and downloads it.
// It returns an error wrapping ErrUnavailable if the catalogue cannot be loaded, has no landscape entry,
// or the image download fails. The image bytes are not decoded here.
func (c *Imgflip) FetchRandomLandscape(ctx context.Context) (Template, error) {
	entries, err := c.catalogue(ctx)
	if err != nil {
		return Template{}, unavailable(err)
	}

	landscape := make([]catalogueEntry, 0, len(entries))
	for _, e := range entries {
		if e.URL != "" && e.Width >= e.Height {
			landscape = append(landscape, e)
		}
	}
	if len(landscape) == 0 {
		return Template{}, unavailable(fmt.Errorf("template: no landscape template among %d entries", len(entries)))
	}

	entry := landscape[c.pick(len(landscape))]
	data, err := c.download(ctx, entry.URL)
	if err != nil {
		return Template{}, unavailable(err)
	}

	return Template{
		ID:     entry.ID,
		Name:   entry.Name,
		URL:    entry.URL,
		Width:  entry.Width,
		Height: entry.Height,
		Data:   data,
	}, nil
}

// FetchURL downloads url and reads its dimensions from the image header.
func (c *Imgflip) FetchURL(ctx context.Context, url string) (Template, error) {
	data, err := c.download(ctx, url)
	if err != nil {
		return Template{}, unavailable(err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Template{}, unavailable(fmt.Errorf("template: decode header failed: %w", err))
	}
	return Template{URL: url, Width: cfg.Width, Height: cfg.Height, Data: data}, nil
}

// catalogue returns the cached meme list, loading it from the endpoint when missing or expired.
func (c *Imgflip) catalogue(ctx context.Context) ([]catalogueEntry, error) {
	if cached, ok := c.cache.Get(catalogueKey); ok {
		return cached.([]catalogueEntry), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("template: invalid catalogue endpoint: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("template: catalogue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("template: catalogue request returned http %d", resp.StatusCode)
	}

	var payload catalogueResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("template: decode catalogue failed: %w", err)
	}
	if !payload.Success && payload.ErrorMessage != "" {
		return nil, fmt.Errorf("template: catalogue error: %s", payload.ErrorMessage)
	}
	if len(payload.Data.Memes) == 0 {
		return nil, fmt.Errorf("template: catalogue is empty")
	}

	c.cache.Set(catalogueKey, payload.Data.Memes, cache.DefaultExpiration)
	return payload.Data.Memes, nil
}

// download fetches the resource over HTTP and returns its body.
func (c *Imgflip) download(ctx context.Context, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
	if err != nil {
		return nil, fmt.Errorf("template: invalid image url: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("template: image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("template: image request returned http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("template: read image failed: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("template: image exceeds %d bytes", maxImageSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("template: image body is empty")
	}
	return data, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
