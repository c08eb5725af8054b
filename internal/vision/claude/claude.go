package claude

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/tabletinfo/internal/vision"
)

const maxTokens = 1024

type ClaudeExtractor struct {
	client *anthropic.Client
	model  string
}

// NewClaudeExtractor builds an extractor for the Anthropic Messages API. opts
// are passed through to the SDK client, e.g. anthropic.WithBaseURL in tests.
func NewClaudeExtractor(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeExtractor {
	return &ClaudeExtractor{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// buildMessages constructs the single user turn for an extraction request.
func buildMessages(req vision.Request) []anthropic.Message {
	content := make([]anthropic.MessageContent, 0, 3)
	for _, p := range req.Parts() {
		if p.Image != nil {
			content = append(content, anthropic.NewImageMessageContent(
				anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(p.Image.MIMEType()),
					p.Image.Base64(),
				),
			))
			continue
		}
		content = append(content, anthropic.NewTextMessageContent(p.Text))
	}
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

func (e *ClaudeExtractor) Extract(ctx context.Context, req vision.Request) (string, error) {
	if req.Image == nil {
		return "", fmt.Errorf("claude: image is required")
	}

	resp, err := e.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(e.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(req),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("claude: %w", vision.ErrEmptyResponse)
	}
	return resp.GetFirstContentText(), nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// Unknown types are coerced to jpeg; the upload filter only admits jpeg and png.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
