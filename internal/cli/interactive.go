package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nickhildebrandt/memegen/internal/categories"
	"github.com/nickhildebrandt/memegen/internal/compose"
)

// defaultCustomTopic is used when the custom topic prompt is left empty.
const defaultCustomTopic = "Random daily life"

func newInteractiveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Pick categories and topics from a menu and compose memes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newComposer(cmd.Context())
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), c, nil)
		},
	}
}

// prompter reads one trimmed answer per line. Reaching the end of input ends the session.
type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(question string) (string, bool) {
	fmt.Fprint(p.out, question)
	if !p.sc.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.sc.Text()), true
}

// runInteractive loops: choose a category (or custom/random), choose a topic, compose, repeat on "y".
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, c composer, intn func(n int) int) error {
	p := &prompter{sc: bufio.NewScanner(in), out: out}
	cats := categories.All()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		topic, memeContext, ok := chooseTopic(p, cats, intn)
		if !ok {
			break
		}

		fmt.Fprintf(out, "\nGenerating meme for %q...\n", topic)
		res := c.Compose(ctx, compose.Request{Topic: topic, Context: memeContext})
		if err := printResult(out, res, "", false); err != nil {
			return err
		}

		again, ok := p.ask("\nGenerate another meme? (y/n): ")
		if !ok || !isYes(again) {
			break
		}
	}

	fmt.Fprintln(out, "Bye!")
	return nil
}

func chooseTopic(p *prompter, cats []categories.Category, intn func(n int) int) (topic, memeContext string, ok bool) {
	fmt.Fprintln(p.out, "\nCategories:")
	for i, c := range cats {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, c.Name)
	}
	customChoice := len(cats) + 1
	fmt.Fprintf(p.out, "  %d. Custom topic\n  0. Random selection\n", customChoice)

	var cat categories.Category
	for {
		answer, ok := p.ask(fmt.Sprintf("\nSelect a category (0-%d): ", customChoice))
		if !ok {
			return "", "", false
		}
		n, err := strconv.Atoi(answer)
		switch {
		case err != nil || n < 0 || n > customChoice:
			fmt.Fprintln(p.out, "Invalid choice, try again.")
			continue
		case n == 0:
			pick := categories.Random(intn)
			fmt.Fprintf(p.out, "Random topic selected: %s\n", pick.Topic)
			return pick.Topic, pick.Context(), true
		case n == customChoice:
			topic, ok := p.ask("Enter your custom meme topic: ")
			if !ok {
				return "", "", false
			}
			memeContext, ok := p.ask("Enter additional context (optional): ")
			if !ok {
				return "", "", false
			}
			if topic == "" {
				topic = defaultCustomTopic
			}
			return topic, memeContext, true
		}
		cat = cats[n-1]
		break
	}

	fmt.Fprintf(p.out, "\n%s examples:\n", cat.Name)
	for i, ex := range cat.Examples {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, ex)
	}
	own := len(cat.Examples) + 1
	fmt.Fprintf(p.out, "  %d. Enter my own topic for this category\n", own)

	memeContext = strings.ToLower(cat.Name)
	answer, ok := p.ask(fmt.Sprintf("\nSelect a topic (1-%d): ", own))
	if !ok {
		return "", "", false
	}
	n, err := strconv.Atoi(answer)
	switch {
	case err == nil && n >= 1 && n <= len(cat.Examples):
		return cat.Examples[n-1], memeContext, true
	case err == nil && n == own:
		custom, ok := p.ask(fmt.Sprintf("Enter your %s topic: ", memeContext))
		if !ok {
			return "", "", false
		}
		if custom == "" {
			custom = cat.Examples[0]
		}
		return custom, memeContext, true
	default:
		fmt.Fprintln(p.out, "Invalid selection, using the first example topic.")
		return cat.Examples[0], memeContext, true
	}
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "y" || s == "yes"
}
