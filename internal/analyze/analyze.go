// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze runs the classifier over a batch of citing papers with
// bounded concurrency.
package analyze

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-monitor/internal/classify"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// skipReason is recorded for citing papers that are themselves seeds.
const skipReason = "Already a seed paper; analysis skipped."

// Analyzer classifies one paper and never fails. *classify.Classifier
// satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, p types.CitingPaper) types.AnalysisResult
}

// Factory builds an Analyzer for a classification endpoint.
type Factory func(ctx context.Context, cfg types.LLMConfig) (Analyzer, error)

// Options tunes a batch run.
type Options struct {
	// Concurrency bounds in-flight classifications; it is clamped to 1-16.
	Concurrency int

	// RequestsPerSecond throttles dispatch when positive.
	RequestsPerSecond float64

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// ClampConcurrency maps n into [1, types.MaxConcurrency].
func ClampConcurrency(n int) int {
	switch {
	case n < 1:
		return 1
	case n > types.MaxConcurrency:
		return types.MaxConcurrency
	default:
		return n
	}
}

// SkipResult is the constant result given to papers that match a seed.
func SkipResult() types.AnalysisResult {
	return types.AnalysisResult{
		IsModelCopyrightProtection: false,
		Reasoning:                  skipReason,
		BriefSummary:               skipReason,
	}
}

// Run analyzes papers and returns one AnalyzedPaper per input, in input
// order. Papers whose normalized title matches a seed get SkipResult without
// calling the analyzer. The rest are classified by at most
// ClampConcurrency(opts.Concurrency) goroutines, each writing only its own
// result slot. A panicking analyzer yields a fallback result for that paper.
func Run(ctx context.Context, analyzer Analyzer, papers []types.CitingPaper, seeds []types.SeedPaper, opts Options) []types.AnalyzedPaper {
	results := make([]types.AnalyzedPaper, len(papers))
	if len(papers) == 0 {
		return results
	}

	seedTitles := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		seedTitles[types.NormalizeTitle(s.Title)] = struct{}{}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	workers := ClampConcurrency(opts.Concurrency)
	log := opts.Logger.With().Str("component", "analyze").Logger()
	log.Info().Int("papers", len(papers)).Int("concurrency", workers).Msg("analyzing citing papers")

	p := pool.New().WithMaxGoroutines(workers)
	skipped := 0
	for i := range papers {
		results[i].CitingPaper = papers[i]
		if _, isSeed := seedTitles[types.NormalizeTitle(papers[i].Title)]; isSeed {
			r := SkipResult()
			results[i].Analysis = &r
			opts.Metrics.RecordClassification("skipped", 0)
			skipped++
			continue
		}

		p.Go(func() {
			r := analyzeOne(ctx, analyzer, limiter, papers[i], log)
			results[i].Analysis = &r
		})
	}
	p.Wait()

	relevant := 0
	for _, r := range results {
		if r.Analysis.Relevant() {
			relevant++
		}
	}
	log.Info().Int("relevant", relevant).Int("skipped", skipped).Msg("analysis finished")
	return results
}

func analyzeOne(ctx context.Context, analyzer Analyzer, limiter *rate.Limiter, p types.CitingPaper, log zerolog.Logger) (result types.AnalysisResult) {
	defer func() {
		if v := recover(); v != nil {
			log.Error().Interface("panic", v).Str("paper", p.Title).Msg("analyzer panicked")
			result = classify.Fallback(fmt.Sprintf("Analysis error: %v", v))
		}
	}()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return classify.Fallback(fmt.Sprintf("Analysis error: %v", err))
		}
	}
	return analyzer.Analyze(ctx, p)
}

// Relevant filters analyzed papers down to those marked in scope.
func Relevant(papers []types.AnalyzedPaper) []types.AnalyzedPaper {
	var out []types.AnalyzedPaper
	for _, p := range papers {
		if p.Analysis.Relevant() {
			out = append(out, p)
		}
	}
	return out
}
