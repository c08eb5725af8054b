package vision

import (
	"context"
	"errors"

	"github.com/vbonduro/tabletinfo/internal/ingest"
)

// ErrEmptyResponse is returned by adapters when the model answered without
// any content block to read text from.
var ErrEmptyResponse = errors.New("model returned no content")

// Request is one extraction call: the full instruction prompt, the tablet
// photo, and the user's free-text hint.
type Request struct {
	Prompt string
	Image  *ingest.ImagePayload
	Hint   string
}

// Extractor submits a tablet photo to a hosted multimodal model and returns
// the generated text verbatim. Implementations issue exactly one outbound
// request per call and never retry.
type Extractor interface {
	Extract(ctx context.Context, req Request) (string, error)
}

// Part is one ordered piece of a multimodal request. Exactly one of Text or
// Image is set.
type Part struct {
	Text  string
	Image *ingest.ImagePayload
}

// Parts returns the request as ordered parts: prompt, image, then hint. An
// empty hint is omitted.
func (r Request) Parts() []Part {
	parts := []Part{{Text: r.Prompt}, {Image: r.Image}}
	if r.Hint != "" {
		parts = append(parts, Part{Text: r.Hint})
	}
	return parts
}
