// Package cli wires configuration, logging and the composer into cobra commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nickhildebrandt/memegen/internal/caption"
	"github.com/nickhildebrandt/memegen/internal/compose"
	"github.com/nickhildebrandt/memegen/internal/config"
	"github.com/nickhildebrandt/memegen/internal/fonts"
	"github.com/nickhildebrandt/memegen/internal/template"
)

// composer is what the commands need from compose.Composer.
type composer interface {
	Compose(ctx context.Context, req compose.Request) compose.Result
}

type globalFlags struct {
	outputDir   string
	fontsDir    string
	font        string
	httpTimeout time.Duration
	verbose     bool
}

// app carries state shared by the commands of one invocation.
type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the command line with the process arguments.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand builds the memegen command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "memegen",
		Short:         "Compose captioned meme images",
		Long:          "memegen fetches a meme template, captions it with generated or custom text and writes a PNG.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.outputDir, "output-dir", config.DefaultOutputDir, "directory generated memes are written to (env MEMEGEN_OUTPUT_DIR)")
	pf.StringVar(&a.flags.fontsDir, "fonts-dir", config.DefaultFontsDir, "directory searched for .ttf/.otf fonts (env MEMEGEN_FONTS_DIR)")
	pf.StringVar(&a.flags.font, "font", "", `font file, or "builtin" for the embedded face (env MEMEGEN_FONT)`)
	pf.DurationVar(&a.flags.httpTimeout, "http-timeout", config.DefaultHTTPTimeout, "timeout for outbound HTTP requests (env MEMEGEN_HTTP_TIMEOUT)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(a),
		newGenerateCommand(a),
		newRandomCommand(a),
		newBatchCommand(a),
		newInteractiveCommand(a),
		newCategoriesCommand(a),
		newCompressCommand(a),
	)
	return root
}

// setup loads the environment configuration and lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = a.flags.outputDir
	}
	if flags.Changed("fonts-dir") {
		cfg.FontsDir = a.flags.fontsDir
	}
	if flags.Changed("font") {
		cfg.FontPath = a.flags.font
	}
	if flags.Changed("http-timeout") {
		cfg.HTTPTimeout = a.flags.httpTimeout
	}

	level := slog.LevelInfo
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// newComposer resolves the font and builds the template and caption sources.
// A missing Gemini key is not fatal: captions fall back to fixed text.
func (a *app) newComposer(ctx context.Context) (*compose.Composer, error) {
	httpClient := &http.Client{Timeout: a.cfg.HTTPTimeout}

	provider := &fonts.Provider{
		Path:       a.cfg.FontPath,
		Dir:        a.cfg.FontsDir,
		URL:        a.cfg.FontURL,
		HTTPClient: httpClient,
		Logger:     a.logger,
	}
	font, err := provider.Load(ctx)
	if err != nil {
		return nil, err
	}

	templates := template.NewImgflip(template.Config{
		Endpoint:   a.cfg.ImgflipEndpoint,
		HTTPClient: httpClient,
		CacheTTL:   a.cfg.TemplateCacheTTL,
	})

	var model caption.TextModel
	if a.cfg.GeminiAPIKey == "" {
		a.logger.Warn("GEMINI_API_KEY is not set, generated captions use fallback text")
	} else {
		gm, err := caption.NewGeminiModel(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel)
		if err != nil {
			a.logger.Warn("gemini unavailable, generated captions use fallback text", "error", err)
		} else {
			model = gm
		}
	}

	c, err := compose.New(compose.Options{
		Font:      font,
		Templates: templates,
		Captions:  caption.NewGenerator(model, a.logger),
		OutputDir: a.cfg.OutputDir,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	a.logger.Debug("composer ready", "font", font.Name(), "output_dir", c.OutputDir())
	return c, nil
}
