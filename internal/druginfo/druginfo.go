// Package druginfo queries public drug reference databases by drug name.
//
// A source that answers with an error status or an unexpected body is not an
// error: each client converts it into that source's fixed fallback value.
// Only transport failures (connection refused, timeout, cancelled context) are
// returned as errors, and the caller decides what to do with them.
package druginfo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// Fixed strings shown when a source has nothing, or only a pointer, to offer.
const (
	RxNormNotAvailable  = "Not available"
	FDAFallback         = "No FDA-approved information available."
	MedlinePlusFound    = "Drug details available on MedlinePlus."
	MedlinePlusNotFound = "No MedlinePlus data found."
)

// The WHO Essential Medicines list is linked, never queried.
const (
	WHOLinkURL  = "https://list.essentialmeds.org/"
	WHOLinkText = "WHO Essential Medicines List"
)

// maxBodySize bounds how much of a reference response is decoded. openFDA
// label documents run to a few hundred kilobytes.
const maxBodySize = 4 << 20

type Source string

const (
	SourceRxNorm      Source = "rxnorm"
	SourceFDA         Source = "fda"
	SourceMedlinePlus Source = "medlineplus"
)

// Label is the human-readable name of the source.
func (s Source) Label() string {
	switch s {
	case SourceRxNorm:
		return "RxNorm ID"
	case SourceFDA:
		return "FDA label"
	case SourceMedlinePlus:
		return "MedlinePlus"
	default:
		return string(s)
	}
}

// Result is one source's answer for a drug name. Found is false when Value is
// the source's fallback string.
type Result struct {
	Source Source `json:"source"`
	Value  string `json:"value"`
	Found  bool   `json:"found"`
}

// Fallback returns the not-found result for s.
func Fallback(s Source) Result {
	switch s {
	case SourceRxNorm:
		return Result{Source: s, Value: RxNormNotAvailable}
	case SourceFDA:
		return Result{Source: s, Value: FDAFallback}
	case SourceMedlinePlus:
		return Result{Source: s, Value: MedlinePlusNotFound}
	default:
		return Result{Source: s}
	}
}

// Looker is implemented by every reference client.
type Looker interface {
	Source() Source
	Lookup(ctx context.Context, name string) (Result, error)
}

func defaultClient(c *http.Client) *http.Client {
	if c == nil {
		return &http.Client{}
	}
	return c
}

// buildURL merges params into endpoint's existing query string.
func buildURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// get issues a GET and hands the response to fn. The body is closed afterwards.
func get(ctx context.Context, client *http.Client, endpoint string, params url.Values, fn func(*http.Response) error) error {
	target, err := buildURL(endpoint, params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close lookup response body", "url", endpoint, "error", err)
		}
	}()
	return fn(resp)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
