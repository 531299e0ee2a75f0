// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-monitor/internal/httputil"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

func init() {
	httputil.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
}

const searchFixture = `{
  "total": 1,
  "data": [{
    "paperId": "seed-1",
    "title": "Instructional Fingerprinting of Large Language Models",
    "authors": [{"authorId": "1", "name": "Jiashu Xu"}, {"authorId": "2", "name": "Fei Wang"}],
    "year": 2024,
    "abstract": "We present a fingerprinting method.",
    "citationCount": 42,
    "url": "https://www.semanticscholar.org/paper/seed-1"
  }]
}`

const citationsFixture = `{
  "offset": 0,
  "data": [
    {"citingPaper": {"paperId": "c1", "title": "Citing One", "year": 2025, "venue": "ACL",
      "authors": [{"name": "A"}, {"name": "B"}, {"name": "C"}, {"name": "D"}, {"name": "E"}, {"name": "F"}],
      "abstract": "abs", "url": "https://s2/c1", "citationCount": 3}},
    {"citingPaper": {"paperId": "c2", "title": null}},
    {"citingPaper": {"paperId": null, "title": "No Id Paper", "year": null, "venue": null, "authors": []}}
  ]
}`

func newTestClient(ts *httptest.Server, apiKey string) *Client {
	c := NewClient(types.ScholarConfig{BaseURL: ts.URL, APIKey: apiKey, MaxRetries: 3}, zerolog.Nop(), observability.NewMetrics("test"))
	c.HTTP = ts.Client()
	return c
}

func TestSearchByTitle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Instructional Fingerprinting", q.Get("query"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, searchFields, q.Get("fields"))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(searchFixture))
	}))
	defer ts.Close()

	c := newTestClient(ts, "test-key")
	p, err := c.SearchByTitle(context.Background(), "Instructional Fingerprinting")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "seed-1", p.ID)
	assert.Equal(t, []string{"Jiashu Xu", "Fei Wang"}, p.Authors)
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, 42, p.CitationCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ScholarRequests.WithLabelValues("search", "ok")))
}

func TestSearchByTitle_NoKeyHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present)
		w.Write([]byte(`{"total":0,"data":[]}`))
	}))
	defer ts.Close()

	p, err := newTestClient(ts, "").SearchByTitle(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetCitations(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/seed-1/citations", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, citationFields, r.URL.Query().Get("fields"))
		w.Write([]byte(citationsFixture))
	}))
	defer ts.Close()

	papers, err := newTestClient(ts, "").GetCitations(context.Background(), "seed-1", 25)
	require.NoError(t, err)
	require.Len(t, papers, 2, "record without title is dropped")

	assert.Equal(t, "Citing One", papers[0].Title)
	assert.Equal(t, "A, B, C, D, E et al.", papers[0].Authors)
	assert.Equal(t, 2025, papers[0].Year)
	assert.Equal(t, "ACL", papers[0].Venue)
	assert.Equal(t, "c1", papers[0].ScholarID)
	assert.Equal(t, 3, papers[0].CitationCount)
	assert.Empty(t, papers[0].CitedPaper)

	assert.Equal(t, "No Id Paper", papers[1].Title)
	assert.Empty(t, papers[1].ScholarID)
	assert.Equal(t, 0, papers[1].Year)
	assert.Equal(t, "title:no id paper", papers[1].IdentityKey())
}

func TestGetCitations_LimitClamped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":[]}`))
	}))
	defer ts.Close()

	papers, err := newTestClient(ts, "").GetCitations(context.Background(), "x", 5000)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestGetCitations_Exhausted(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := newTestClient(ts, "")
	_, err := c.GetCitations(context.Background(), "seed-1", 10)
	require.Error(t, err)
	assert.True(t, httputil.IsExhausted(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.ScholarRetries.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ScholarRequests.WithLabelValues("citations", "exhausted")))
}

func TestSearchByTitle_NonRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newTestClient(ts, "").SearchByTitle(context.Background(), "x")
	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.ScholarConfig{}, zerolog.Nop(), nil)
	assert.Equal(t, types.DefaultScholarBaseURL, c.BaseURL)
	assert.Equal(t, types.DefaultScholarTimeout, c.HTTP.Timeout)
	assert.Equal(t, "scholar-monitor", c.UserAgent)
}
