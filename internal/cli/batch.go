package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nickhildebrandt/memegen/internal/compose"
)

type sampleTopic struct {
	Topic   string
	Context string
}

var sampleTopics = []sampleTopic{
	{"Gen Z explaining crypto to parents", "youth and technology"},
	{"Online classes vs sleeping schedule", "education and lifestyle"},
	{"ChatGPT vs Google vs actually knowing stuff", "AI and knowledge"},
	{"Social media break vs checking phone every 5 minutes", "technology addiction"},
	{"Indian parents asking about salary in family functions", "Indian family culture"},
	{"Using English vs Hindi in Indian office", "language and workplace"},
	{"Climate change awareness vs AC usage in summer", "environmental consciousness"},
	{"Remote work productivity vs home distractions", "work from home culture"},
	{"Dating apps vs arranged marriage suggestions", "modern relationships vs tradition"},
	{"Social media couple goals vs real relationship", "social media reality"},
}

const (
	defaultBatchConcurrency = 2
	defaultBatchInterval    = 2 * time.Second
)

func newBatchCommand(a *app) *cobra.Command {
	var (
		concurrency int
		interval    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compose memes for the built-in sample topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("batch: --concurrency must be at least 1")
			}
			c, err := a.newComposer(cmd.Context())
			if err != nil {
				return err
			}
			results, err := runBatch(cmd.Context(), c, sampleTopics, concurrency, interval)
			printBatchSummary(cmd.OutOrStdout(), results)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Success {
					return nil
				}
			}
			return fmt.Errorf("batch: no meme was generated")
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultBatchConcurrency, "compositions running at the same time")
	cmd.Flags().DurationVar(&interval, "interval", defaultBatchInterval, "minimum delay between starting compositions")
	return cmd
}

// runBatch composes every sample with at most concurrency compositions in flight and starts
// spaced by interval. Results keep the order of samples. A cancelled ctx stops new starts.
func runBatch(ctx context.Context, c composer, samples []sampleTopic, concurrency int, interval time.Duration) ([]compose.Result, error) {
	results := make([]compose.Result, len(samples))
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var waitErr error
	for i, s := range samples {
		if err := limiter.Wait(gctx); err != nil {
			waitErr = fmt.Errorf("batch: stopped after %d of %d: %w", i, len(samples), err)
			break
		}
		g.Go(func() error {
			results[i] = c.Compose(gctx, compose.Request{Topic: s.Topic, Context: s.Context})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, waitErr
}

func printBatchSummary(w io.Writer, results []compose.Result) {
	var ok, failed []compose.Result
	for _, r := range results {
		switch {
		case r.Success:
			ok = append(ok, r)
		case r.Topic != "":
			failed = append(failed, r)
		}
	}

	fmt.Fprintf(w, "Generated: %d\nFailed:    %d\n", len(ok), len(failed))
	for _, r := range ok {
		fmt.Fprintf(w, "  %s  %s\n", r.FileName, truncate(r.Topic, 50))
	}
	for _, r := range failed {
		fmt.Fprintf(w, "  FAILED  %s: %s\n", truncate(r.Topic, 50), r.Message)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
