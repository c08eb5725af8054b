package druginfo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const DefaultMedlinePlusURL = "https://wsearch.nlm.nih.gov/ws/query"

// MedlinePlusClient checks whether MedlinePlus answers a health topic search
// for the drug. Only the status code is inspected; the XML body is ignored.
type MedlinePlusClient struct {
	endpoint string
	client   *http.Client
}

func NewMedlinePlusClient(endpoint string, client *http.Client) *MedlinePlusClient {
	if endpoint == "" {
		endpoint = DefaultMedlinePlusURL
	}
	return &MedlinePlusClient{endpoint: endpoint, client: defaultClient(client)}
}

func (c *MedlinePlusClient) Source() Source { return SourceMedlinePlus }

// Availability returns MedlinePlusFound for a success status and
// MedlinePlusNotFound for anything else.
func (c *MedlinePlusClient) Availability(ctx context.Context, name string) (string, error) {
	status := MedlinePlusNotFound
	params := url.Values{"db": {"healthTopics"}, "term": {name}}
	err := get(ctx, c.client, c.endpoint, params, func(resp *http.Response) error {
		if isSuccess(resp.StatusCode) {
			status = MedlinePlusFound
		}
		return nil
	})
	if err != nil {
		return MedlinePlusNotFound, fmt.Errorf("medlineplus lookup: %w", err)
	}
	return status, nil
}

func (c *MedlinePlusClient) Lookup(ctx context.Context, name string) (Result, error) {
	status, err := c.Availability(ctx, name)
	if err != nil {
		return Fallback(SourceMedlinePlus), err
	}
	return Result{Source: SourceMedlinePlus, Value: status, Found: status == MedlinePlusFound}, nil
}
