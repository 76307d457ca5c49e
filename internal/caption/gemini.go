package caption

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"

	geminiTemperature = float32(0.7)
	geminiMaxTokens   = int32(512)
)

// GeminiModel is a TextModel backed by the Gemini API.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel connects to the Gemini API with apiKey. An empty model name selects DefaultGeminiModel.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("caption: gemini api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("caption: create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// GenerateText sends prompt as a single user turn and returns the concatenated text parts.
func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(geminiTemperature),
		MaxOutputTokens: geminiMaxTokens,
		ThinkingConfig:  &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	})
	if err != nil {
		return "", fmt.Errorf("caption: gemini %s: %w", m.model, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("caption: gemini %s returned no text", m.model)
	}
	return text, nil
}
