package druginfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultFDAURL = "https://api.fda.gov/drug/label.json"

// labelText decodes a label field that openFDA serves either as a string or as
// an array of paragraphs.
type labelText string

func (t *labelText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = labelText(s)
		return nil
	}
	var paras []string
	if err := json.Unmarshal(b, &paras); err != nil {
		return err
	}
	*t = labelText(strings.Join(paras, "\n\n"))
	return nil
}

type fdaResponse struct {
	Results []struct {
		Description labelText `json:"description"`
	} `json:"results"`
}

// FDAClient reads the product description from the openFDA drug label API.
type FDAClient struct {
	endpoint string
	client   *http.Client
}

func NewFDAClient(endpoint string, client *http.Client) *FDAClient {
	if endpoint == "" {
		endpoint = DefaultFDAURL
	}
	return &FDAClient{endpoint: endpoint, client: defaultClient(client)}
}

func (c *FDAClient) Source() Source { return SourceFDA }

// brandQuery builds the openFDA search expression. Multi-word names are quoted
// so they match as a phrase.
func brandQuery(name string) string {
	if strings.ContainsAny(name, " \t") {
		name = `"` + strings.ReplaceAll(name, `"`, "") + `"`
	}
	return "openfda.brand_name:" + name
}

// Description returns results[0].description, or FDAFallback when the status
// is not a success, results is missing or empty, or the description is blank.
func (c *FDAClient) Description(ctx context.Context, name string) (string, error) {
	desc := FDAFallback
	err := get(ctx, c.client, c.endpoint, url.Values{"search": {brandQuery(name)}}, func(resp *http.Response) error {
		if !isSuccess(resp.StatusCode) {
			return nil
		}
		var body fdaResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
			return nil
		}
		if len(body.Results) == 0 {
			return nil
		}
		if d := strings.TrimSpace(string(body.Results[0].Description)); d != "" {
			desc = d
		}
		return nil
	})
	if err != nil {
		return FDAFallback, fmt.Errorf("fda lookup: %w", err)
	}
	return desc, nil
}

func (c *FDAClient) Lookup(ctx context.Context, name string) (Result, error) {
	desc, err := c.Description(ctx, name)
	if err != nil {
		return Fallback(SourceFDA), err
	}
	return Result{Source: SourceFDA, Value: desc, Found: desc != FDAFallback}, nil
}
