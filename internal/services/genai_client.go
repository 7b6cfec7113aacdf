package services

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// TextGenerator is the slice of the genai client the invocation engine needs.
// Kept narrow so tests can substitute a mock.
type TextGenerator interface {
	GenerateText(ctx context.Context, modelName string, maxOutputTokens int32, prompt string) (string, error)
}

type GeminiTextGenerator struct {
	client *genai.Client
}

func NewGeminiTextGenerator(client *genai.Client) *GeminiTextGenerator {
	return &GeminiTextGenerator{client: client}
}

// GenerateText runs a single synchronous generation bounded by
// maxOutputTokens. Any non-text or empty response is treated as a hard
// failure; callers never retry.
func (g *GeminiTextGenerator) GenerateText(ctx context.Context, modelName string, maxOutputTokens int32, prompt string) (string, error) {
	model := g.client.GenerativeModel(modelName)
	model.SetMaxOutputTokens(maxOutputTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generation returned no content")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("generation returned a non-text part")
	}

	return string(text), nil
}
