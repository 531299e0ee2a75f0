// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/scholar-monitor/internal/analyze"
	"github.com/pdiddy/scholar-monitor/internal/classify"
	"github.com/pdiddy/scholar-monitor/internal/discover"
	"github.com/pdiddy/scholar-monitor/internal/report"
	"github.com/pdiddy/scholar-monitor/internal/seeds"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

const (
	msgNoSeeds     = "No seed papers. Extract or add seeds first."
	msgNoCitations = "No citations to analyze. Run find-citations first."
)

type seedsResponse struct {
	Papers []types.SeedPaper `json:"papers"`
	Count  int               `json:"count"`
}

type addSeedRequest struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url"`
}

type setSeedsRequest struct {
	Papers []types.SeedPaper `json:"papers"`
}

// findRequest uses the session's seeds only when seed_papers is absent; an
// explicit empty list is rejected.
type findRequest struct {
	SeedPapers           *[]types.SeedPaper `json:"seed_papers"`
	MaxPapersToCheck     *int               `json:"max_papers_to_check" validate:"omitempty,gte=0"`
	MaxCitationsPerPaper *int               `json:"max_citations_per_paper" validate:"omitempty,gte=0"`
}

type citationsResponse struct {
	Citations []types.CitingPaper `json:"citations"`
	Count     int                 `json:"count"`
}

// findFailure is the 500 body of a discovery run that stopped early. It
// carries whatever was collected before the error.
type findFailure struct {
	Detail    string              `json:"detail"`
	Citations []types.CitingPaper `json:"citations"`
	Count     int                 `json:"count"`
}

type analyzeRequest struct {
	Citations   []types.CitingPaper `json:"citations"`
	Concurrency int                 `json:"concurrency" validate:"gte=0,lte=64"`
	APIBase     string              `json:"api_base" validate:"omitempty,url"`
	APIKey      string              `json:"api_key"`
	Model       string              `json:"model"`
	Save        bool                `json:"save"`
}

type analyzeResponse struct {
	Papers  []types.AnalyzedPaper `json:"papers"`
	Count   int                   `json:"count"`
	Reports *report.Paths         `json:"reports,omitempty"`
}

type logFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) taxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, classify.DefaultTaxonomy())
}

func (s *Server) writeSeeds(w http.ResponseWriter, r *http.Request) {
	current := s.session.Seeds()
	if s.store != nil {
		if err := s.store.SaveSeeds(r.Context(), current); err != nil {
			s.logger.Warn().Err(err).Msg("persisting seeds")
		}
	}
	writeJSON(w, http.StatusOK, seedsResponse{Papers: current, Count: len(current)})
}

func (s *Server) listSeeds(w http.ResponseWriter, _ *http.Request) {
	current := s.session.Seeds()
	writeJSON(w, http.StatusOK, seedsResponse{Papers: current, Count: len(current)})
}

func (s *Server) extractSeeds(w http.ResponseWriter, r *http.Request) {
	dir := s.cfg.Seeds.Dir
	if dir == "" {
		dir = types.DefaultSeedDir
	}
	files := s.cfg.Seeds.Files
	if len(files) == 0 {
		files = types.DefaultSeedFiles
	}
	extracted, err := seeds.ExtractAll(dir, files, s.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.session.SetSeeds(extracted)
	s.writeSeeds(w, r)
}

func (s *Server) addSeed(w http.ResponseWriter, r *http.Request) {
	var req addSeedRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.session.AddSeed(types.SeedPaper{Title: req.Title, URL: req.URL}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeSeeds(w, r)
}

func (s *Server) setSeeds(w http.ResponseWriter, r *http.Request) {
	var req setSeedsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.session.SetSeeds(req.Papers)
	s.writeSeeds(w, r)
}

// removeSeed deletes the seed at ?index=N. An index outside the list leaves
// it unchanged.
func (s *Server) removeSeed(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	if _, err := s.session.RemoveSeed(index); err != nil {
		s.logger.Debug().Err(err).Msg("remove seed ignored")
	}
	s.writeSeeds(w, r)
}

// discoveryEngine applies per-request overrides on top of the configured
// discovery options.
func (s *Server) discoveryEngine(req findRequest) *discover.Engine {
	opts := discover.OptionsFromConfig(s.cfg.Discovery)
	if req.MaxPapersToCheck != nil {
		opts.MaxSeeds = *req.MaxPapersToCheck
	}
	if req.MaxCitationsPerPaper != nil {
		opts.MaxCitationsPerSeed = *req.MaxCitationsPerPaper
	}
	return s.engine.WithOptions(opts)
}

// findRun decodes a discovery request and resolves its seeds. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) findRun(w http.ResponseWriter, r *http.Request) (*discover.Engine, []types.SeedPaper, bool) {
	var req findRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	var seedList []types.SeedPaper
	if req.SeedPapers != nil {
		seedList = *req.SeedPapers
	} else {
		seedList = s.session.Seeds()
	}
	if len(seedList) == 0 {
		writeError(w, http.StatusBadRequest, msgNoSeeds)
		return nil, nil, false
	}
	return s.discoveryEngine(req), seedList, true
}

func (s *Server) findCitations(w http.ResponseWriter, r *http.Request) {
	engine, seedList, ok := s.findRun(w, r)
	if !ok {
		return
	}
	citations, err := engine.CollectCitations(r.Context(), seedList, nil)
	if err != nil {
		s.logger.Error().Err(err).Int("partial", len(citations)).Msg("citation discovery failed")
		if len(citations) > 0 {
			s.storeCitations(r, citations)
		}
		if citations == nil {
			citations = []types.CitingPaper{}
		}
		writeJSON(w, http.StatusInternalServerError, findFailure{
			Detail:    err.Error(),
			Citations: citations,
			Count:     len(citations),
		})
		return
	}
	s.storeCitations(r, citations)
	writeJSON(w, http.StatusOK, citationsResponse{Citations: citations, Count: len(citations)})
}

func (s *Server) storeCitations(r *http.Request, citations []types.CitingPaper) {
	s.session.SetCitations(citations)
	if s.store != nil {
		if err := s.store.SaveCitations(r.Context(), citations); err != nil {
			s.logger.Warn().Err(err).Msg("persisting citations")
		}
	}
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	citations := req.Citations
	if len(citations) == 0 {
		citations = s.session.Citations()
	}
	if len(citations) == 0 {
		writeError(w, http.StatusBadRequest, msgNoCitations)
		return
	}

	llm := s.cfg.LLM
	if req.APIBase != "" {
		llm.APIBase = req.APIBase
	}
	if req.APIKey != "" {
		llm.APIKey = req.APIKey
	}
	if req.Model != "" {
		llm.Model = req.Model
	}
	analyzer, err := s.newAnalyzer(r.Context(), llm)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	concurrency := req.Concurrency
	if concurrency == 0 {
		concurrency = s.cfg.Analysis.Concurrency
	}
	if concurrency == 0 {
		concurrency = types.DefaultConcurrency
	}
	papers := analyze.Run(r.Context(), analyzer, citations, s.session.Seeds(), analyze.Options{
		Concurrency:       concurrency,
		RequestsPerSecond: s.cfg.Analysis.RequestsPerSecond,
		Logger:            s.logger,
		Metrics:           s.metrics,
	})
	s.session.SetAnalyzed(papers)
	if s.store != nil {
		if err := s.store.SaveAnalyses(r.Context(), papers); err != nil {
			s.logger.Warn().Err(err).Msg("persisting analyses")
		}
	}

	resp := analyzeResponse{Papers: papers, Count: len(papers)}
	if req.Save {
		date := report.DateStamp(time.Now(), s.cfg.Report.Timezone)
		paths, err := report.Save(s.reportDir(), date, papers)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Reports = &paths
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) reportDir() string {
	if s.cfg.Report.Dir == "" {
		return types.DefaultReportDir
	}
	return s.cfg.Report.Dir
}

func (s *Server) listLogs(w http.ResponseWriter, _ *http.Request) {
	names, err := report.List(s.reportDir())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	files := make([]logFile, 0, len(names))
	for _, name := range names {
		files = append(files, logFile{Name: name, Path: filepath.Join(s.reportDir(), name)})
	}
	writeJSON(w, http.StatusOK, map[string][]logFile{"files": files})
}

func (s *Server) getLog(w http.ResponseWriter, r *http.Request) {
	data, err := report.Load(s.reportDir(), chi.URLParam(r, "filename"))
	switch {
	case errors.Is(err, report.ErrInvalidLogName):
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	case errors.Is(err, report.ErrLogNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
