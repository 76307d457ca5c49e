// Package caption produces the two lines of text drawn on a meme.
package caption

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Text returned whenever generation fails.
const (
	FallbackTop    = "Error generating meme text."
	FallbackBottom = "Please try again."
)

// Caption is a top/bottom text pair.
type Caption struct {
	Top    string
	Bottom string
}

// Complete reports whether both lines carry text.
func (c Caption) Complete() bool {
	return strings.TrimSpace(c.Top) != "" && strings.TrimSpace(c.Bottom) != ""
}

// Fallback is the caption used when generation fails.
func Fallback() Caption {
	return Caption{Top: FallbackTop, Bottom: FallbackBottom}
}

// Source generates captions for a topic. Implementations never fail; they degrade to Fallback.
type Source interface {
	Generate(ctx context.Context, topic, context string) Caption
}

// TextModel turns a prompt into free text.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Generator is a Source that prompts a TextModel and parses its answer.
type Generator struct {
	model  TextModel
	logger *slog.Logger
}

// Ready reports whether a text model is configured. Without one every call returns Fallback.
func (g *Generator) Ready() bool {
	return g.model != nil
}

// NewGenerator returns a Generator. A nil model makes every call return Fallback.
func NewGenerator(model TextModel, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{model: model, logger: logger}
}

// Generate asks the model for a caption about topic, optionally framed by memeContext.
func (g *Generator) Generate(ctx context.Context, topic, memeContext string) (c Caption) {
	defer func() {
		if r := recover(); r != nil {
			g.degraded(ctx, topic, fmt.Errorf("panic: %v", r))
			c = Fallback()
		}
	}()

	if g.model == nil {
		g.degraded(ctx, topic, fmt.Errorf("no text model configured"))
		return Fallback()
	}

	prompt, err := BuildPrompt(topic, memeContext)
	if err != nil {
		g.degraded(ctx, topic, err)
		return Fallback()
	}

	text, err := g.model.GenerateText(ctx, prompt)
	if err != nil {
		g.degraded(ctx, topic, err)
		return Fallback()
	}

	c = Parse(text)
	g.logger.DebugContext(ctx, "caption generated", "topic", topic, "top", c.Top, "bottom", c.Bottom)
	return c
}

func (g *Generator) degraded(ctx context.Context, topic string, err error) {
	g.logger.WarnContext(ctx, "caption generation degraded, using fallback text", "topic", topic, "error", err)
}
