// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar is a client for the Semantic Scholar Graph API: title
// search and the citation list of a paper.
package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/internal/httputil"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

const (
	searchFields   = "paperId,title,authors,year,abstract,citationCount,url"
	citationFields = "paperId,title,authors,year,abstract,venue,url,citationCount"

	// maxCitationLimit is the largest page the citations endpoint serves.
	maxCitationLimit = 1000
)

// Paper is the top search hit for a seed title.
type Paper struct {
	ID            string
	Title         string
	Authors       []string
	Year          int
	Abstract      string
	CitationCount int
	URL           string
}

// Client queries the Semantic Scholar Graph API. It is safe for concurrent use.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	APIKey    string
	UserAgent string
	Policy    httputil.Policy

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewClient builds a Client from cfg, applying defaults for unset fields.
// metrics may be nil.
func NewClient(cfg types.ScholarConfig, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultScholarTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = types.DefaultScholarBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "scholar-monitor"
	}

	c := &Client{
		HTTP:      &http.Client{Timeout: timeout},
		BaseURL:   base,
		APIKey:    cfg.APIKey,
		UserAgent: ua,
		logger:    logger.With().Str("component", "scholar").Logger(),
		metrics:   metrics,
	}
	c.Policy = httputil.Policy{
		MaxAttempts: cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		OnRetry:     c.onRetry,
	}
	return c
}

func (c *Client) onRetry(attempt int, reason httputil.RetryReason, wait time.Duration, err error) {
	c.metrics.RecordScholarRetry(string(reason))
	c.logger.Warn().
		Err(err).
		Int("attempt", attempt).
		Str("reason", string(reason)).
		Dur("wait", wait).
		Msg("Semantic Scholar request failed, retrying")
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.UserAgent)
	h.Set("Accept", "application/json")
	if c.APIKey != "" {
		h.Set("x-api-key", c.APIKey)
	}
	return h
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	reqURL := c.BaseURL + path + "?" + params.Encode()
	err := httputil.GetJSON(ctx, c.HTTP, reqURL, c.header(), c.Policy, out)
	switch {
	case err == nil:
		c.metrics.RecordScholarRequest(endpoint, "ok")
	case httputil.IsExhausted(err):
		c.metrics.RecordScholarRequest(endpoint, "exhausted")
	default:
		c.metrics.RecordScholarRequest(endpoint, "error")
	}
	return err
}

// SearchByTitle returns the single top-ranked match for title, or nil when
// the search has no results. The hit is not checked against the query.
func (c *Client) SearchByTitle(ctx context.Context, title string) (*Paper, error) {
	params := url.Values{
		"query":  {title},
		"limit":  {"1"},
		"fields": {searchFields},
	}

	var sr searchResponse
	if err := c.get(ctx, "search", "/paper/search", params, &sr); err != nil {
		return nil, fmt.Errorf("Semantic Scholar search: %w", err)
	}
	if len(sr.Data) == 0 || sr.Data[0].PaperID == "" {
		return nil, nil
	}

	p := sr.Data[0]
	return &Paper{
		ID:            p.PaperID,
		Title:         p.Title,
		Authors:       p.authorNames(),
		Year:          p.year(),
		Abstract:      p.Abstract,
		CitationCount: p.CitationCount,
		URL:           p.URL,
	}, nil
}

// GetCitations returns up to limit papers citing paperID, in API order.
// Records without a title are dropped. CitedPaper is left for the caller.
func (c *Client) GetCitations(ctx context.Context, paperID string, limit int) ([]types.CitingPaper, error) {
	if limit <= 0 {
		limit = types.DefaultMaxCitationsPerSeed
	}
	if limit > maxCitationLimit {
		limit = maxCitationLimit
	}
	params := url.Values{
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {citationFields},
	}

	var cr citationsResponse
	path := "/paper/" + url.PathEscape(paperID) + "/citations"
	if err := c.get(ctx, "citations", path, params, &cr); err != nil {
		return nil, fmt.Errorf("Semantic Scholar citations: %w", err)
	}

	papers := make([]types.CitingPaper, 0, len(cr.Data))
	for _, item := range cr.Data {
		p := item.CitingPaper
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		papers = append(papers, types.CitingPaper{
			Title:         p.Title,
			Authors:       types.FormatAuthors(p.authorNames()),
			Year:          p.year(),
			Venue:         p.Venue,
			Abstract:      p.Abstract,
			URL:           p.URL,
			ScholarID:     p.PaperID,
			CitationCount: p.CitationCount,
		})
	}
	return papers, nil
}

// Semantic Scholar API JSON structures.
type searchResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type citationsResponse struct {
	Offset int            `json:"offset"`
	Next   *int           `json:"next"`
	Data   []citationItem `json:"data"`
}

type citationItem struct {
	CitingPaper semanticPaper `json:"citingPaper"`
}

type semanticPaper struct {
	PaperID       string           `json:"paperId"`
	Title         string           `json:"title"`
	Abstract      string           `json:"abstract"`
	Venue         string           `json:"venue"`
	URL           string           `json:"url"`
	Year          *int             `json:"year"`
	CitationCount int              `json:"citationCount"`
	Authors       []semanticAuthor `json:"authors"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

func (p semanticPaper) authorNames() []string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	return names
}

func (p semanticPaper) year() int {
	if p.Year == nil {
		return 0
	}
	return *p.Year
}
