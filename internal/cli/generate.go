package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nickhildebrandt/memegen/internal/categories"
	"github.com/nickhildebrandt/memegen/internal/compose"
)

// customTopic stands in for the topic when only custom captions are given.
const customTopic = "Custom Meme"

type generateOptions struct {
	topic       string
	context     string
	top         string
	bottom      string
	templateURL string
	asJSON      bool
}

// request validates the options and turns them into a compose request.
func (o generateOptions) request() (compose.Request, error) {
	topic := strings.TrimSpace(o.topic)
	top, bottom := strings.TrimSpace(o.top), strings.TrimSpace(o.bottom)
	custom := top != "" && bottom != ""
	if topic == "" && !custom {
		return compose.Request{}, fmt.Errorf("generate: --topic is required unless both --top and --bottom are set")
	}
	if topic == "" {
		topic = customTopic
	}
	req := compose.Request{
		Topic:       topic,
		Context:     strings.TrimSpace(o.context),
		TemplateURL: strings.TrimSpace(o.templateURL),
	}
	if custom {
		req.TopText, req.BottomText = top, bottom
	}
	return req, nil
}

func newGenerateCommand(a *app) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose one meme for a topic or custom captions",
		Example: `  memegen generate --topic "Monday mornings" --context office
  memegen generate --top "One does not simply" --bottom "skip standup" --font builtin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			c, err := a.newComposer(cmd.Context())
			if err != nil {
				return err
			}
			res := c.Compose(cmd.Context(), req)
			if err := printResult(cmd.OutOrStdout(), res, "", opts.asJSON); err != nil {
				return err
			}
			return resultError("generate", res)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.topic, "topic", "t", "", "meme topic")
	f.StringVarP(&opts.context, "context", "c", "", "optional context for caption generation")
	f.StringVar(&opts.top, "top", "", "custom top caption (needs --bottom)")
	f.StringVar(&opts.bottom, "bottom", "", "custom bottom caption (needs --top)")
	f.StringVar(&opts.templateURL, "template-url", "", "template image URL; falls back to a random template on failure")
	f.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newRandomCommand(a *app) *cobra.Command {
	var (
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Compose a meme for a random example topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pick := categories.Random(nil)
			if category != "" {
				p, err := categories.RandomIn(category, nil)
				if err != nil {
					return err
				}
				pick = p
			}

			c, err := a.newComposer(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("random topic selected", "category", pick.Category.Name, "topic", pick.Topic)
			res := c.Compose(cmd.Context(), compose.Request{Topic: pick.Topic, Context: pick.Context()})
			if err := printResult(cmd.OutOrStdout(), res, pick.Category.Name, asJSON); err != nil {
				return err
			}
			return resultError("random", res)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "restrict the pick to one category key (see 'memegen categories')")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// printResult writes a composition record either as indented JSON or as readable lines.
func printResult(w io.Writer, res compose.Result, category string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if category == "" {
			return enc.Encode(res)
		}
		return enc.Encode(struct {
			compose.Result
			Category string `json:"category"`
		}{res, category})
	}

	if !res.Success {
		_, err := fmt.Fprintf(w, "Failed (%s): %s\n", res.ErrorKind, res.Message)
		return err
	}
	if category != "" {
		fmt.Fprintf(w, "Category: %s\n", category)
	}
	_, err := fmt.Fprintf(w, "Meme saved: %s\nTopic:  %s\nTop:    %s\nBottom: %s\n",
		res.FilePath, res.Topic, res.TopText, res.BottomText)
	return err
}

func resultError(command string, res compose.Result) error {
	if res.Success {
		return nil
	}
	return fmt.Errorf("%s: %s: %s", command, res.ErrorKind, res.Message)
}
