package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nickhildebrandt/memegen/internal/categories"
	"github.com/nickhildebrandt/memegen/internal/compress"
	"github.com/nickhildebrandt/memegen/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.ListenAddr
			}
			c, err := a.newComposer(cmd.Context())
			if err != nil {
				return err
			}
			srv, err := server.New(server.Options{Composer: c, Logger: a.logger})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(listen) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (env MEMEGEN_LISTEN_ADDR, default :5000)")
	return cmd
}

func newCategoriesCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List topic categories and their example topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCategories(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the categories as JSON")
	return cmd
}

func printCategories(w io.Writer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(categories.ByKey())
	}
	for i, c := range categories.All() {
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, c.Name, c.Key)
		for _, ex := range c.Examples {
			fmt.Fprintf(w, "   - %s\n", ex)
		}
	}
	return nil
}

type compressOptions struct {
	format     string
	quality    string
	resize     float64
	output     string
	allFormats bool
	recommend  bool
}

// allFormats are the encodable formats written by --all-formats.
var allFormats = []compress.Format{compress.JPEG, compress.PNG, compress.BMP}

func newCompressCommand(a *app) *cobra.Command {
	var opts compressOptions
	cmd := &cobra.Command{
		Use:   "compress <image>",
		Short: "Re-encode an image at a quality preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd.OutOrStdout(), args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", string(compress.JPEG), "output format: jpeg, png or bmp")
	f.StringVarP(&opts.quality, "quality", "q", string(compress.Medium), "quality preset: high, medium or low")
	f.Float64Var(&opts.resize, "resize", 1.0, "resize ratio, values below 1 shrink the image")
	f.StringVarP(&opts.output, "output", "o", "", "output path (default <name>_compressed<ext> next to the input)")
	f.BoolVar(&opts.allFormats, "all-formats", false, "write one file per supported format")
	f.BoolVar(&opts.recommend, "recommend", false, "print size estimates for every preset instead of compressing")
	return cmd
}

func runCompress(w io.Writer, input string, opts compressOptions) error {
	if opts.recommend {
		rec, err := compress.Recommend(input)
		if err != nil {
			return err
		}
		printRecommendation(w, rec)
		return nil
	}

	quality, err := compress.ParseQuality(opts.quality)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	if opts.allFormats {
		results, err := compress.CompressMultiple(input, filepath.Dir(input), base, quality, allFormats)
		for _, f := range allFormats {
			if r, ok := results[f]; ok {
				printCompression(w, r)
			}
		}
		return err
	}

	format, err := compress.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = filepath.Join(filepath.Dir(input), base+"_compressed"+compress.Extension(format))
	}
	res, err := compress.Compress(input, output, compress.Options{Format: format, Quality: quality, ResizeRatio: opts.resize})
	if errors.Is(err, compress.ErrUnsupportedFormat) {
		return fmt.Errorf("%w (supported: jpeg, png, bmp)", err)
	}
	if err != nil {
		return err
	}
	printCompression(w, res)
	return nil
}

func printCompression(w io.Writer, r compress.Result) {
	fmt.Fprintf(w, "%s (%s, %s): %s -> %s (%.2f%% smaller)\n",
		r.OutputPath, r.Format, r.Quality, r.OriginalReadable, r.CompressedReadable, r.CompressionRatio)
}

func printRecommendation(w io.Writer, rec compress.Recommendation) {
	fmt.Fprintf(w, "Current size:      %s\nDimensions:        %s\nFormat:            %s\nSuggested quality: %s\nEstimates:\n",
		rec.CurrentReadable, rec.Dimensions, rec.Format, rec.SuggestedQuality)
	keys := make([]string, 0, len(rec.EstimatedSizes))
	for k := range rec.EstimatedSizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := rec.EstimatedSizes[k]
		fmt.Fprintf(w, "  %-12s %s (%.2f%% smaller)\n", k, compress.FormatSize(e.SizeKB), e.CompressionRatio)
	}
}
