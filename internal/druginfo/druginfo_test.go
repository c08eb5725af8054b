package druginfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queryRecorder holds the query string of the last request a fake source saw.
type queryRecorder struct {
	mu   sync.Mutex
	last url.Values
}

func (q *queryRecorder) Get(key string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last.Get(key)
}

// fakeSource serves a fixed status and body and records the last query.
func fakeSource(t *testing.T, status int, body string) (*httptest.Server, *queryRecorder) {
	t.Helper()
	rec := &queryRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.last = r.URL.Query()
		rec.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// deadEndpoint returns a URL nothing is listening on.
func deadEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func TestRxNormRxCUI(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *string
	}{
		{name: "found", status: http.StatusOK, body: `{"idGroup":{"rxnormId":["161"]}}`, want: ptr("161")},
		{name: "first of many", status: http.StatusOK, body: `{"idGroup":{"name":"x","rxnormId":["161","1234"]}}`, want: ptr("161")},
		{name: "empty object", status: http.StatusOK, body: `{}`},
		{name: "no rxnormId", status: http.StatusOK, body: `{"idGroup":{"name":"Paracetamol"}}`},
		{name: "empty list", status: http.StatusOK, body: `{"idGroup":{"rxnormId":[]}}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "server error", status: http.StatusInternalServerError, body: `{"idGroup":{"rxnormId":["161"]}}`},
		{name: "not found", status: http.StatusNotFound, body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, last := fakeSource(t, tt.status, tt.body)
			client := NewRxNormClient(srv.URL, nil)

			got, err := client.RxCUI(context.Background(), "Paracetamol")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Paracetamol", last.Get("name"))
		})
	}
}

func TestRxNormLookupResult(t *testing.T) {
	srv, _ := fakeSource(t, http.StatusOK, `{"idGroup":{"rxnormId":["161"]}}`)
	res, err := NewRxNormClient(srv.URL, nil).Lookup(context.Background(), "Paracetamol")
	require.NoError(t, err)
	assert.Equal(t, Result{Source: SourceRxNorm, Value: "161", Found: true}, res)

	srv, _ = fakeSource(t, http.StatusOK, `{}`)
	res, err = NewRxNormClient(srv.URL, nil).Lookup(context.Background(), "Unknownium")
	require.NoError(t, err)
	assert.Equal(t, Result{Source: SourceRxNorm, Value: RxNormNotAvailable}, res)
}

func TestFDADescription(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "string description", status: http.StatusOK, body: `{"results":[{"description":"X"}]}`, want: "X"},
		{name: "array description", status: http.StatusOK, body: `{"results":[{"description":["Para one.","Para two."]}]}`, want: "Para one.\n\nPara two."},
		{name: "empty results", status: http.StatusOK, body: `{"results":[]}`, want: FDAFallback},
		{name: "missing results", status: http.StatusOK, body: `{"meta":{}}`, want: FDAFallback},
		{name: "missing description", status: http.StatusOK, body: `{"results":[{"purpose":["Pain reliever"]}]}`, want: FDAFallback},
		{name: "wrong type", status: http.StatusOK, body: `{"results":[{"description":42}]}`, want: FDAFallback},
		{name: "not found status", status: http.StatusNotFound, body: `{"error":{"code":"NOT_FOUND"}}`, want: FDAFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeSource(t, tt.status, tt.body)
			got, err := NewFDAClient(srv.URL, nil).Description(context.Background(), "Tylenol")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFDASearchQuery(t *testing.T) {
	srv, last := fakeSource(t, http.StatusOK, `{"results":[]}`)
	client := NewFDAClient(srv.URL, nil)

	_, err := client.Description(context.Background(), "Tylenol")
	require.NoError(t, err)
	assert.Equal(t, "openfda.brand_name:Tylenol", last.Get("search"))

	_, err = client.Description(context.Background(), "Tylenol PM")
	require.NoError(t, err)
	assert.Equal(t, `openfda.brand_name:"Tylenol PM"`, last.Get("search"))
}

func TestFDALookupResult(t *testing.T) {
	srv, _ := fakeSource(t, http.StatusOK, `{"results":[{"description":"X"}]}`)
	res, err := NewFDAClient(srv.URL, nil).Lookup(context.Background(), "Tylenol")
	require.NoError(t, err)
	assert.Equal(t, Result{Source: SourceFDA, Value: "X", Found: true}, res)
}

func TestMedlinePlusAvailability(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "ok with results", status: http.StatusOK, body: `<nlmSearchResult><count>3</count></nlmSearchResult>`, want: MedlinePlusFound},
		{name: "ok with empty body", status: http.StatusOK, body: ``, want: MedlinePlusFound},
		{name: "ok with zero count", status: http.StatusOK, body: `<nlmSearchResult><count>0</count></nlmSearchResult>`, want: MedlinePlusFound},
		{name: "not found", status: http.StatusNotFound, want: MedlinePlusNotFound},
		{name: "server error", status: http.StatusServiceUnavailable, want: MedlinePlusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, last := fakeSource(t, tt.status, tt.body)
			got, err := NewMedlinePlusClient(srv.URL, nil).Availability(context.Background(), "Paracetamol")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "healthTopics", last.Get("db"))
			assert.Equal(t, "Paracetamol", last.Get("term"))
		})
	}
}

func TestLookupNetworkErrors(t *testing.T) {
	dead := deadEndpoint(t)
	client := &http.Client{Timeout: 2 * time.Second}

	lookers := []Looker{
		NewRxNormClient(dead, client),
		NewFDAClient(dead, client),
		NewMedlinePlusClient(dead, client),
	}
	for _, l := range lookers {
		t.Run(string(l.Source()), func(t *testing.T) {
			res, err := l.Lookup(context.Background(), "Paracetamol")
			assert.Error(t, err)
			assert.Equal(t, Fallback(l.Source()), res)
		})
	}
}

func TestBuildURLKeepsExistingQuery(t *testing.T) {
	got, err := buildURL("https://example.test/ws/query?tool=tabletinfo", url.Values{"term": {"a b"}})
	require.NoError(t, err)
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "tabletinfo", u.Query().Get("tool"))
	assert.Equal(t, "a b", u.Query().Get("term"))
}

func TestDefaultEndpoints(t *testing.T) {
	assert.Equal(t, DefaultRxNormURL, NewRxNormClient("", nil).endpoint)
	assert.Equal(t, DefaultFDAURL, NewFDAClient("", nil).endpoint)
	assert.Equal(t, DefaultMedlinePlusURL, NewMedlinePlusClient("", nil).endpoint)
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "RxNorm ID", SourceRxNorm.Label())
	assert.Equal(t, "FDA label", SourceFDA.Label())
	assert.Equal(t, "MedlinePlus", SourceMedlinePlus.Label())
}

func ptr(s string) *string { return &s }
