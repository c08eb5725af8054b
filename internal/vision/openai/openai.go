package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"github.com/vbonduro/tabletinfo/internal/vision"
)

// OpenAIExtractor sends the prompt and tablet photo through the Responses API.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor builds a client with SDK retries disabled: a failed
// extraction is reported once and never re-sent.
func NewOpenAIExtractor(apiKey, model, baseURL string) *OpenAIExtractor {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIExtractor{client: &client, model: model}
}

func buildInput(req vision.Request) responses.ResponseInputMessageContentListParam {
	content := make(responses.ResponseInputMessageContentListParam, 0, 3)
	for _, p := range req.Parts() {
		if p.Image != nil {
			content = append(content, responses.ResponseInputContentUnionParam{
				OfInputImage: &responses.ResponseInputImageParam{
					Detail:   responses.ResponseInputImageDetailAuto,
					ImageURL: openai.String(p.Image.DataURL()),
				},
			})
			continue
		}
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputText: &responses.ResponseInputTextParam{Text: p.Text},
		})
	}
	return content
}

func (e *OpenAIExtractor) Extract(ctx context.Context, req vision.Request) (string, error) {
	if req.Image == nil {
		return "", fmt.Errorf("openai: image is required")
	}

	resp, err := e.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: openai.ChatModel(e.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(buildInput(req), responses.EasyInputMessageRoleUser),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call openai: %w", err)
	}

	if len(resp.Output) == 0 {
		return "", fmt.Errorf("openai: %w", vision.ErrEmptyResponse)
	}
	return resp.OutputText(), nil
}
