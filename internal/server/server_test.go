// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-monitor/internal/analyze"
	"github.com/pdiddy/scholar-monitor/internal/discover"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/internal/scholar"
	"github.com/pdiddy/scholar-monitor/internal/session"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// mapSource resolves titles through hits and serves citations by paper ID.
// err fails every search; failOn fails searches for one title.
type mapSource struct {
	hits      map[string]string
	citations map[string][]types.CitingPaper
	err       error
	failOn    map[string]error
}

func (m *mapSource) SearchByTitle(_ context.Context, title string) (*scholar.Paper, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := m.failOn[title]; err != nil {
		return nil, err
	}
	id, ok := m.hits[title]
	if !ok {
		return nil, nil
	}
	return &scholar.Paper{ID: id, Title: title}, nil
}

func (m *mapSource) GetCitations(_ context.Context, id string, _ int) ([]types.CitingPaper, error) {
	return m.citations[id], nil
}

// relevantIfTitled marks papers relevant when their title contains
// "watermark".
type relevantIfTitled struct {
	mu    sync.Mutex
	calls []string
}

func (a *relevantIfTitled) Analyze(_ context.Context, p types.CitingPaper) types.AnalysisResult {
	a.mu.Lock()
	a.calls = append(a.calls, p.Title)
	a.mu.Unlock()
	return types.AnalysisResult{
		IsModelCopyrightProtection: strings.Contains(strings.ToLower(p.Title), "watermark"),
		Reasoning:                  "stub",
		BriefSummary:               "stub",
	}
}

type fixture struct {
	srv      *Server
	sess     *session.Session
	analyzer *relevantIfTitled
	llmSeen  []types.LLMConfig
	cfg      types.MonitorConfig
}

func newFixture(t *testing.T, src discover.Source) *fixture {
	t.Helper()
	f := &fixture{sess: session.New(), analyzer: &relevantIfTitled{}}
	f.cfg = types.MonitorConfig{}
	f.cfg.Report.Dir = filepath.Join(t.TempDir(), "paper_logs")
	f.cfg.Report.Timezone = "UTC"
	f.cfg.Seeds.Dir = t.TempDir()
	f.cfg.LLM.APIBase = "http://127.0.0.1:8000/v1"

	logger := zerolog.Nop()
	f.srv = New(Deps{
		Config:  f.cfg,
		Session: f.sess,
		Engine:  discover.New(src, discover.OptionsFromConfig(f.cfg.Discovery), logger, nil),
		NewAnalyzer: func(_ context.Context, cfg types.LLMConfig) (analyze.Analyzer, error) {
			f.llmSeen = append(f.llmSeen, cfg)
			return f.analyzer, nil
		},
		Metrics: observability.NewMetrics("test"),
		Logger:  logger,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func twoSeedSource() *mapSource {
	return &mapSource{
		hits: map[string]string{"Seed A": "a", "Seed B": "b"},
		citations: map[string][]types.CitingPaper{
			"a": {
				{Title: "Watermarking LLMs", ScholarID: "p1"},
				{Title: "Unrelated", ScholarID: "p2"},
			},
			"b": {
				{Title: "Watermarking LLMs", ScholarID: "p1"},
				{Title: "Seed A", ScholarID: "sa"},
			},
		},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodOptions, "/api/analyze", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestTaxonomy(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodGet, "/api/taxonomy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Categories []struct {
			Key string `json:"key"`
		} `json:"categories"`
	}](t, rec)
	assert.NotEmpty(t, body.Categories)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSeedLifecycle(t *testing.T) {
	f := newFixture(t, &mapSource{})

	rec := f.do(t, http.MethodPost, "/api/seed-papers/add", `{"title":"Seed A","url":"https://arxiv.org/abs/1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	f.do(t, http.MethodPost, "/api/seed-papers/add", `{"title":"Seed B"}`)

	rec = f.do(t, http.MethodGet, "/api/seed-papers", "")
	got := decodeBody[seedsResponse](t, rec)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "Seed A", got.Papers[0].Title)

	rec = f.do(t, http.MethodPost, "/api/seed-papers/remove?index=0", "")
	got = decodeBody[seedsResponse](t, rec)
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "Seed B", got.Papers[0].Title)

	rec = f.do(t, http.MethodPost, "/api/seed-papers/remove?index=7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[seedsResponse](t, rec).Count)

	rec = f.do(t, http.MethodPost, "/api/seed-papers/set", `{"papers":[{"title":"X"},{"title":"  "},{"title":"Y"}]}`)
	got = decodeBody[seedsResponse](t, rec)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, []types.SeedPaper{{Title: "X"}, {Title: "Y"}}, f.sess.Seeds())
}

func TestAddSeed_RequiresTitle(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodPost, "/api/seed-papers/add", `{"url":"https://x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.sess.Seeds())
}

func TestRemoveSeed_BadIndex(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodPost, "/api/seed-papers/remove?index=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractSeeds(t *testing.T) {
	f := newFixture(t, &mapSource{})
	page := `<html><body><script>
const papers = [
  { title: "Instructional Fingerprinting of Large Language Models", link: "https://arxiv.org/abs/2401.12255" },
];
</script></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Seeds.Dir, types.DefaultSeedFiles[0]), []byte(page), 0o644))

	rec := f.do(t, http.MethodPost, "/api/seed-papers/extract", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[seedsResponse](t, rec)
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "2401.12255", got.Papers[0].ArxivID)
	assert.Len(t, f.sess.Seeds(), 1)
}

func TestFindCitations_NoSeeds(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodPost, "/api/citations/find", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"`+msgNoSeeds+`"}`, rec.Body.String())
}

func TestFindCitations(t *testing.T) {
	f := newFixture(t, twoSeedSource())
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}, {Title: "Seed B"}})

	rec := f.do(t, http.MethodPost, "/api/citations/find", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[citationsResponse](t, rec)
	require.Equal(t, 2, got.Count)
	assert.Equal(t, "Watermarking LLMs", got.Citations[0].Title)
	assert.Equal(t, "Unrelated", got.Citations[1].Title)
	assert.Equal(t, got.Citations, f.sess.Citations())
}

func TestFindCitations_RequestSeedsAndLimit(t *testing.T) {
	f := newFixture(t, twoSeedSource())

	rec := f.do(t, http.MethodPost, "/api/citations/find",
		`{"seed_papers":[{"title":"Seed B"},{"title":"Seed A"}],"max_papers_to_check":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[citationsResponse](t, rec)
	require.Equal(t, 2, got.Count)
	// Only Seed B was checked, so Seed A is not excluded and "Unrelated"
	// is never reached.
	assert.Equal(t, "Watermarking LLMs", got.Citations[0].Title)
	assert.Equal(t, "Seed A", got.Citations[1].Title)
}

func TestFindCitations_RejectsNegativeLimit(t *testing.T) {
	f := newFixture(t, twoSeedSource())
	rec := f.do(t, http.MethodPost, "/api/citations/find",
		`{"seed_papers":[{"title":"Seed A"}],"max_citations_per_paper":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindCitations_EmptySeedListRejected(t *testing.T) {
	f := newFixture(t, twoSeedSource())
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}})

	rec := f.do(t, http.MethodPost, "/api/citations/find", `{"seed_papers":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"`+msgNoSeeds+`"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/citations/find", `{"seed_papers":null}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFindCitations_FailureKeepsPartialResults(t *testing.T) {
	src := twoSeedSource()
	src.failOn = map[string]error{"Seed B": errors.New("boom")}
	f := newFixture(t, src)
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}, {Title: "Seed B"}})

	rec := f.do(t, http.MethodPost, "/api/citations/find", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	got := decodeBody[findFailure](t, rec)
	assert.Contains(t, got.Detail, "boom")
	require.Equal(t, 2, got.Count)
	assert.Equal(t, "Watermarking LLMs", got.Citations[0].Title)
	assert.Equal(t, got.Citations, f.sess.Citations())
}

func TestFindCitations_Failure(t *testing.T) {
	f := newFixture(t, &mapSource{err: errors.New("boom")})
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}})
	rec := f.do(t, http.MethodPost, "/api/citations/find", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	got := decodeBody[findFailure](t, rec)
	assert.Contains(t, got.Detail, "boom")
	assert.NotNil(t, got.Citations)
	assert.Zero(t, got.Count)
	assert.Empty(t, f.sess.Citations())
}

func readFrames(t *testing.T, body string) []types.ProgressEvent {
	t.Helper()
	var events []types.ProgressEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "data: "), line)
		var ev types.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestStreamCitations(t *testing.T) {
	f := newFixture(t, twoSeedSource())
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}, {Title: "Seed B"}, {Title: "Missing"}})

	rec := f.do(t, http.MethodPost, "/api/citations/find/stream", `{"max_papers_to_check":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	events := readFrames(t, rec.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, types.EventStarted, events[0].Type)
	assert.Equal(t, 2, events[0].Total)

	last := events[len(events)-1]
	assert.Equal(t, types.EventDone, last.Type)
	assert.Equal(t, 2, last.Count)
	assert.Len(t, f.sess.Citations(), 2)

	runID := events[0].RunID
	for _, ev := range events {
		assert.Equal(t, runID, ev.RunID)
	}
}

func TestStreamCitations_Error(t *testing.T) {
	f := newFixture(t, &mapSource{err: errors.New("boom")})
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}})

	rec := f.do(t, http.MethodPost, "/api/citations/find/stream", "")
	events := readFrames(t, rec.Body.String())
	last := events[len(events)-1]
	assert.Equal(t, types.EventError, last.Type)
	assert.Contains(t, last.Detail, "boom")
	assert.Empty(t, f.sess.Citations())
}

func TestStreamCitations_ErrorKeepsPartialResults(t *testing.T) {
	src := twoSeedSource()
	src.failOn = map[string]error{"Seed B": errors.New("boom")}
	f := newFixture(t, src)
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}, {Title: "Seed B"}})

	rec := f.do(t, http.MethodPost, "/api/citations/find/stream", "")
	require.Contains(t, rec.Body.String(), `"detail":"`)
	events := readFrames(t, rec.Body.String())
	last := events[len(events)-1]
	assert.Equal(t, types.EventError, last.Type)
	assert.Equal(t, 2, last.Count)
	assert.Len(t, f.sess.Citations(), 2)
}

func TestAnalyze_NoCitations(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodPost, "/api/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), msgNoCitations)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, &mapSource{})
	f.sess.SetSeeds([]types.SeedPaper{{Title: "Seed A"}})
	f.sess.SetCitations([]types.CitingPaper{
		{Title: "Watermarking LLMs"},
		{Title: "seed  a"},
		{Title: "Unrelated"},
	})

	rec := f.do(t, http.MethodPost, "/api/analyze", `{"concurrency":2,"api_key":"k","model":"m"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[analyzeResponse](t, rec)
	require.Equal(t, 3, got.Count)
	assert.True(t, got.Papers[0].Analysis.Relevant())
	assert.Equal(t, analyze.SkipResult(), *got.Papers[1].Analysis)
	assert.False(t, got.Papers[2].Analysis.Relevant())
	assert.Nil(t, got.Reports)

	assert.ElementsMatch(t, []string{"Watermarking LLMs", "Unrelated"}, f.analyzer.calls)
	assert.Len(t, f.sess.Analyzed(), 3)

	require.Len(t, f.llmSeen, 1)
	assert.Equal(t, "http://127.0.0.1:8000/v1", f.llmSeen[0].APIBase)
	assert.Equal(t, "k", f.llmSeen[0].APIKey)
	assert.Equal(t, "m", f.llmSeen[0].Model)
}

func TestAnalyze_RejectsConcurrencyOutOfRange(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodPost, "/api/analyze", `{"citations":[{"title":"A"}],"concurrency":65}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_SaveWritesReports(t *testing.T) {
	f := newFixture(t, &mapSource{})

	rec := f.do(t, http.MethodPost, "/api/analyze",
		`{"citations":[{"title":"Watermarking LLMs"},{"title":"Other"}],"save":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[analyzeResponse](t, rec)
	require.NotNil(t, got.Reports)
	assert.FileExists(t, got.Reports.All)
	assert.FileExists(t, got.Reports.Relevant)
	assert.FileExists(t, got.Reports.Summary)

	rec = f.do(t, http.MethodGet, "/api/paper-logs/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string][]logFile](t, rec)
	require.Len(t, list["files"], 2)
	assert.True(t, strings.HasPrefix(list["files"][0].Name, "scholar_relevant_"))

	rec = f.do(t, http.MethodGet, "/api/paper-logs/"+list["files"][0].Name, "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeBody[struct {
		RelevantPapersCount int `json:"relevant_papers_count"`
	}](t, rec)
	assert.Equal(t, 1, doc.RelevantPapersCount)
}

func TestPaperLogs_MissingDirectory(t *testing.T) {
	f := newFixture(t, &mapSource{})
	rec := f.do(t, http.MethodGet, "/api/paper-logs/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files":[]}`, rec.Body.String())
}

func TestGetLog_Errors(t *testing.T) {
	f := newFixture(t, &mapSource{})

	rec := f.do(t, http.MethodGet, "/api/paper-logs/..secret.json", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid filename"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/paper-logs/scholar_relevant_20990101.json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"File not found"}`, rec.Body.String())
}
