package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/tabletinfo/internal/vision"
)

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type OllamaExtractor struct {
	host   string
	model  string
	apiKey string
	client *http.Client
}

// NewOllamaExtractor targets a hosted Ollama-compatible endpoint. apiKey is
// sent as a bearer token when set.
func NewOllamaExtractor(host, model, apiKey string) *OllamaExtractor {
	return &OllamaExtractor{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		apiKey: apiKey,
		client: &http.Client{},
	}
}

func (e *OllamaExtractor) Extract(ctx context.Context, req vision.Request) (string, error) {
	if req.Image == nil {
		return "", fmt.Errorf("ollama: image is required")
	}

	// /api/generate takes a single prompt string, so text parts are joined in
	// order and the image travels in the images array.
	var texts []string
	for _, p := range req.Parts() {
		if p.Image == nil {
			texts = append(texts, p.Text)
		}
	}

	payload, err := json.Marshal(generateRequest{
		Model:  e.model,
		Prompt: strings.Join(texts, "\n\n"),
		Images: []string{req.Image.Base64()},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, errBody)
	}

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("ollama error: %s", body.Error)
	}

	return body.Response, nil
}
