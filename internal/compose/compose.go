// Package compose turns a topic or a pair of captions into a meme file on disk.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nickhildebrandt/memegen/internal/caption"
	"github.com/nickhildebrandt/memegen/internal/fonts"
	"github.com/nickhildebrandt/memegen/internal/render"
	"github.com/nickhildebrandt/memegen/internal/template"
)

// ErrorKind classifies a failed composition.
type ErrorKind string

const (
	TemplateUnavailable ErrorKind = "template_unavailable"
	CompositionFailed   ErrorKind = "composition_failed"
)

// DefaultOutputDir is used when Options.OutputDir is empty.
const DefaultOutputDir = "memes"

// Request describes one meme. When both TopText and BottomText are set they are drawn verbatim
// and no caption is generated. An empty TemplateURL selects a random template.
type Request struct {
	Topic       string
	Context     string
	TopText     string
	BottomText  string
	TemplateURL string
}

// Result is the record of one composition. Failures are reported here, never as panics.
type Result struct {
	Success    bool      `json:"success"`
	FilePath   string    `json:"filepath,omitempty"`
	FileName   string    `json:"filename,omitempty"`
	TopText    string    `json:"top_text,omitempty"`
	BottomText string    `json:"bottom_text,omitempty"`
	Topic      string    `json:"topic"`
	Context    string    `json:"context"`
	Timestamp  string    `json:"timestamp"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Message    string    `json:"error,omitempty"`
}

func (r Result) fail(kind ErrorKind, err error) Result {
	r.Success = false
	r.ErrorKind = kind
	r.Message = err.Error()
	return r
}

// Options wires a Composer. Font and Templates are required.
type Options struct {
	Font      *render.Font
	Templates template.Source
	// Captions defaults to a generator without a model, which always yields the fallback caption.
	Captions  caption.Source
	OutputDir string
	Logger    *slog.Logger
	// Now defaults to time.Now; it stamps file names and results.
	Now func() time.Time
}

// Composer orchestrates template fetch, captioning, rendering and the output write.
// It is safe for concurrent use.
type Composer struct {
	font      *render.Font
	templates template.Source
	captions  caption.Source
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// New validates opts and creates the output directory.
func New(opts Options) (*Composer, error) {
	if opts.Font == nil {
		return nil, fmt.Errorf("compose: %w", fonts.ErrUnavailable)
	}
	if opts.Templates == nil {
		return nil, fmt.Errorf("compose: template source is nil")
	}

	c := &Composer{
		font:      opts.Font,
		templates: opts.Templates,
		captions:  opts.Captions,
		outputDir: opts.OutputDir,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.captions == nil {
		c.captions = caption.NewGenerator(nil, c.logger)
	}
	if c.outputDir == "" {
		c.outputDir = DefaultOutputDir
	}
	if c.now == nil {
		c.now = time.Now
	}

	if err := os.MkdirAll(c.outputDir, dirPerm); err != nil {
		return nil, fmt.Errorf("compose: create output dir %q: %w", c.outputDir, err)
	}
	return c, nil
}

// CaptionsReady reports whether generated captions can come from a model rather than the fallback text.
// Sources that do not expose a Ready method are assumed ready.
func (c *Composer) CaptionsReady() bool {
	if r, ok := c.captions.(interface{ Ready() bool }); ok {
		return r.Ready()
	}
	return true
}

// OutputDir is the directory memes are written to.
func (c *Composer) OutputDir() string {
	return c.outputDir
}

// Compose produces one meme. A failed explicit template URL falls back to a random template;
// a caption generation failure falls back to fixed text and still succeeds.
// A panic in any stage is reported as CompositionFailed.
func (c *Composer) Compose(ctx context.Context, req Request) (res Result) {
	now := c.now()
	res = Result{
		Topic:     req.Topic,
		Context:   req.Context,
		Timestamp: now.Format(timestampLayout),
	}
	log := c.logger.With("topic", req.Topic)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "composition panicked", "panic", r)
			res = res.fail(CompositionFailed, fmt.Errorf("compose: panic: %v", r))
			res.FilePath, res.FileName = "", ""
		}
	}()

	tmpl, err := c.template(ctx, req.TemplateURL)
	if err != nil {
		log.WarnContext(ctx, "no template available", "error", err)
		return res.fail(TemplateUnavailable, err)
	}

	capt := caption.Caption{Top: req.TopText, Bottom: req.BottomText}
	if !capt.Complete() {
		capt = c.captions.Generate(ctx, req.Topic, req.Context)
	}
	res.TopText, res.BottomText = capt.Top, capt.Bottom

	path := OutputPath(c.outputDir, req.Topic, now)
	if err := c.render(ctx, tmpl, capt, path); err != nil {
		log.ErrorContext(ctx, "composition failed", "template", tmpl.Name, "error", err)
		return res.fail(CompositionFailed, err)
	}

	res.Success = true
	res.FilePath = path
	res.FileName = filepath.Base(path)
	log.InfoContext(ctx, "meme composed", "path", path, "template", tmpl.Name)
	return res
}

func (c *Composer) template(ctx context.Context, url string) (template.Template, error) {
	url = strings.TrimSpace(url)
	if url != "" {
		tmpl, err := c.templates.FetchURL(ctx, url)
		if err == nil {
			return tmpl, nil
		}
		c.logger.WarnContext(ctx, "template url failed, using a random template", "url", url, "error", err)
	}
	return c.templates.FetchRandomLandscape(ctx)
}

func (c *Composer) render(ctx context.Context, tmpl template.Template, capt caption.Caption, path string) error {
	src, format, err := image.Decode(bytes.NewReader(tmpl.Data))
	if err != nil {
		return fmt.Errorf("compose: decode template: %w", err)
	}

	canvas := render.ToRGBA(render.Normalize(src))
	layout, err := render.RenderCaptions(canvas, c.font, capt.Top, capt.Bottom)
	if err != nil {
		return fmt.Errorf("compose: render captions: %w", err)
	}
	if layout.Overlaps() {
		c.logger.WarnContext(ctx, "caption blocks overlap",
			"font_size", layout.FontSize,
			"top_end", layout.TopEnd(),
			"bottom_start", layout.Bottom[0].Y)
	}

	c.logger.DebugContext(ctx, "captions rendered",
		"source_format", format,
		"width", canvas.Bounds().Dx(),
		"height", canvas.Bounds().Dy(),
		"font_size", layout.FontSize,
		"lines", len(layout.Lines()))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	return WritePNG(path, canvas)
}
