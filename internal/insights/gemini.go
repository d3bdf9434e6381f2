package insights

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAdvisor implements ModelClient against the Gemini API.
type GeminiAdvisor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAdvisor dials the Gemini API with the given key and model name.
func NewGeminiAdvisor(ctx context.Context, apiKey, modelName string) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	// Advice runs several sentences, unlike the single-word classifier
	// answers, so this model handle gets a larger token budget.
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(500)

	return &GeminiAdvisor{client: client, model: model}, nil
}

// GenerateInsights sends the prompt and returns the model's full answer.
func (g *GeminiAdvisor) GenerateInsights(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part %T", resp.Candidates[0].Content.Parts[0])
	}
	return string(text), nil
}

func (g *GeminiAdvisor) Close() error {
	return g.client.Close()
}
