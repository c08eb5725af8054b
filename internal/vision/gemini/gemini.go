// Package gemini calls the Gemini generateContent endpoint with a tablet photo
// sent as inline data.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/vbonduro/tabletinfo/internal/vision"
)

type GeminiExtractor struct {
	model  string
	config genai.ClientConfig
}

// NewGeminiExtractor stores the client settings. An empty baseURL uses the
// SDK's public endpoint. The client is created per request, so a missing key
// fails the first extraction rather than startup.
func NewGeminiExtractor(apiKey, model, baseURL string) *GeminiExtractor {
	return &GeminiExtractor{
		model: model,
		config: genai.ClientConfig{
			APIKey:      apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
		},
	}
}

func buildContents(req vision.Request) []*genai.Content {
	parts := make([]*genai.Part, 0, 3)
	for _, p := range req.Parts() {
		if p.Image != nil {
			parts = append(parts, genai.NewPartFromBytes(p.Image.Data(), p.Image.MIMEType()))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func (e *GeminiExtractor) Extract(ctx context.Context, req vision.Request) (string, error) {
	if req.Image == nil {
		return "", fmt.Errorf("gemini: image is required")
	}

	// NewClient fills defaults into the config it is given.
	cfg := e.config
	client, err := genai.NewClient(ctx, &cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, e.model, buildContents(req), nil)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", vision.ErrEmptyResponse)
	}
	return resp.Text(), nil
}
