// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package monitor runs the end-to-end pipeline: extract seeds, discover
// citing papers (or load them from the cache), classify them, and write the
// dated reports.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/internal/analyze"
	"github.com/pdiddy/scholar-monitor/internal/discover"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/internal/report"
	"github.com/pdiddy/scholar-monitor/internal/seeds"
	"github.com/pdiddy/scholar-monitor/internal/store"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

var (
	// ErrNoSeeds is returned when the seed listings yield no papers.
	ErrNoSeeds = errors.New("no seed papers found")

	// ErrNoCache is returned when a run skips discovery without a store.
	ErrNoCache = errors.New("skipping discovery requires the citation cache")
)

// Options selects which stages a run performs.
type Options struct {
	SkipSearch   bool
	SkipAnalysis bool
}

// Result summarizes one run. Reports is zero when nothing was written.
type Result struct {
	Date      string
	Seeds     int
	Citations int
	Relevant  int
	Reports   report.Paths
}

// Pipeline holds the collaborators of a run. Store and Metrics may be nil.
type Pipeline struct {
	Config      types.MonitorConfig
	Engine      *discover.Engine
	NewAnalyzer analyze.Factory
	Store       *store.Store
	Metrics     *observability.Metrics
	Logger      zerolog.Logger

	// Now stamps the reports; time.Now when nil.
	Now func() time.Time
}

// Run executes one pipeline pass.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	log := p.Logger.With().Str("component", "monitor").Str("run_id", uuid.NewString()).Logger()
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	res := Result{Date: report.DateStamp(now(), p.Config.Report.Timezone)}

	log.Info().Msg("step 1: extracting seed papers")
	seedList, err := seeds.ExtractAll(p.Config.Seeds.Dir, p.Config.Seeds.Files, log)
	if err != nil {
		return res, fmt.Errorf("extracting seeds: %w", err)
	}
	if len(seedList) == 0 {
		return res, ErrNoSeeds
	}
	res.Seeds = len(seedList)
	if p.Store != nil {
		if err := p.Store.SaveSeeds(ctx, seedList); err != nil {
			return res, err
		}
	}

	citations, err := p.citations(ctx, seedList, opts, log)
	if err != nil {
		return res, err
	}
	res.Citations = len(citations)
	if len(citations) == 0 {
		log.Info().Msg("no new citations found")
		return res, nil
	}

	var papers []types.AnalyzedPaper
	if opts.SkipAnalysis {
		log.Info().Msg("step 3: skipping analysis")
		papers = types.Unanalyzed(citations)
	} else {
		log.Info().Msg("step 3: analyzing citations")
		analyzer, err := p.NewAnalyzer(ctx, p.Config.LLM)
		if err != nil {
			return res, fmt.Errorf("creating analyzer: %w", err)
		}
		papers = analyze.Run(ctx, analyzer, citations, seedList, analyze.Options{
			Concurrency:       p.Config.Analysis.Concurrency,
			RequestsPerSecond: p.Config.Analysis.RequestsPerSecond,
			Logger:            log,
			Metrics:           p.Metrics,
		})
		if p.Store != nil {
			if err := p.Store.SaveAnalyses(ctx, papers); err != nil {
				return res, err
			}
		}
	}
	res.Relevant = len(analyze.Relevant(papers))

	log.Info().Msg("step 4: saving reports")
	paths, err := report.Save(p.Config.Report.Dir, res.Date, papers)
	if err != nil {
		return res, err
	}
	res.Reports = paths
	log.Info().Int("citations", res.Citations).Int("relevant", res.Relevant).
		Str("summary", paths.Summary).Msg("run completed")
	return res, nil
}

func (p *Pipeline) citations(ctx context.Context, seedList []types.SeedPaper, opts Options, log zerolog.Logger) ([]types.CitingPaper, error) {
	if opts.SkipSearch {
		log.Info().Msg("step 2: loading citations from cache")
		if p.Store == nil {
			return nil, ErrNoCache
		}
		return p.Store.LoadCitations(ctx)
	}

	log.Info().Msg("step 2: searching for citations")
	citations, err := p.Engine.CollectCitations(ctx, seedList, LogProgress(log))
	if err != nil {
		return nil, fmt.Errorf("discovering citations: %w", err)
	}
	if p.Store != nil {
		if err := p.Store.SaveCitations(ctx, citations); err != nil {
			return nil, err
		}
	}
	return citations, nil
}

// LogProgress returns a progress callback that logs per-seed outcomes.
func LogProgress(logger zerolog.Logger) func(types.ProgressEvent) {
	return func(ev types.ProgressEvent) {
		if ev.Type != types.EventPaper {
			return
		}
		log := observability.WithPaper(logger, ev.Title)
		switch ev.Action {
		case types.ActionSuccess:
			log.Info().Int("added", ev.Added).Int("done", ev.Completed).Int("total", ev.Total).Msg("seed processed")
		case types.ActionNotFound:
			log.Warn().Int("done", ev.Completed).Int("total", ev.Total).Msg("seed not found")
		case types.ActionRetry:
			log.Warn().Int("attempt", ev.Attempt).Int("max", ev.MaxRetries).Msg("seed requeued")
		case types.ActionFailed:
			log.Error().Int("attempts", ev.Attempt).Msg("seed dropped")
		}
	}
}
