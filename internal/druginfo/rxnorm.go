package druginfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const DefaultRxNormURL = "https://rxnav.nlm.nih.gov/REST/rxcui.json"

type rxnormResponse struct {
	IDGroup *struct {
		RxNormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

// RxNormClient resolves a drug name to its RxNorm concept identifier (RxCUI).
type RxNormClient struct {
	endpoint string
	client   *http.Client
}

func NewRxNormClient(endpoint string, client *http.Client) *RxNormClient {
	if endpoint == "" {
		endpoint = DefaultRxNormURL
	}
	return &RxNormClient{endpoint: endpoint, client: defaultClient(client)}
}

func (c *RxNormClient) Source() Source { return SourceRxNorm }

// RxCUI returns the first identifier at idGroup.rxnormId[0], or nil when the
// status is not a success, the body does not decode, or the path is missing.
func (c *RxNormClient) RxCUI(ctx context.Context, name string) (*string, error) {
	var id *string
	err := get(ctx, c.client, c.endpoint, url.Values{"name": {name}}, func(resp *http.Response) error {
		if !isSuccess(resp.StatusCode) {
			return nil
		}
		var body rxnormResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
			return nil
		}
		if body.IDGroup == nil || len(body.IDGroup.RxNormID) == 0 || body.IDGroup.RxNormID[0] == "" {
			return nil
		}
		id = &body.IDGroup.RxNormID[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rxnorm lookup: %w", err)
	}
	return id, nil
}

func (c *RxNormClient) Lookup(ctx context.Context, name string) (Result, error) {
	id, err := c.RxCUI(ctx, name)
	if err != nil {
		return Fallback(SourceRxNorm), err
	}
	if id == nil {
		return Fallback(SourceRxNorm), nil
	}
	return Result{Source: SourceRxNorm, Value: *id, Found: true}, nil
}
