// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover walks a list of seed papers, resolves each one on
// Semantic Scholar, and gathers the deduplicated set of papers citing them.
package discover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/internal/httputil"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/internal/scholar"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// ErrNoSeeds is returned when discovery is started without seed papers.
var ErrNoSeeds = errors.New("no seed papers")

// sleep is the inter-request and requeue wait. Tests replace it.
var sleep = func(ctx context.Context, d time.Duration) error {
	return httputil.Sleep(ctx, d)
}

// Source is the bibliographic API the engine queries. *scholar.Client
// satisfies it.
type Source interface {
	SearchByTitle(ctx context.Context, title string) (*scholar.Paper, error)
	GetCitations(ctx context.Context, paperID string, limit int) ([]types.CitingPaper, error)
}

// Options tunes a discovery run. Zero values select the defaults.
type Options struct {
	MaxCitationsPerSeed int
	MaxSeeds            int
	MaxSeedRetries      int
	RequestDelay        time.Duration
	RequeueDelay        time.Duration
}

// OptionsFromConfig converts the configuration block to Options.
func OptionsFromConfig(cfg types.DiscoveryConfig) Options {
	return Options{
		MaxCitationsPerSeed: cfg.MaxCitationsPerSeed,
		MaxSeeds:            cfg.MaxSeeds,
		MaxSeedRetries:      cfg.MaxSeedRetries,
		RequestDelay:        cfg.RequestDelay,
		RequeueDelay:        cfg.RequeueDelay,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxCitationsPerSeed <= 0 {
		o.MaxCitationsPerSeed = types.DefaultMaxCitationsPerSeed
	}
	if o.MaxSeedRetries <= 0 {
		o.MaxSeedRetries = types.DefaultMaxSeedRetries
	}
	if o.RequestDelay < 0 {
		o.RequestDelay = 0
	}
	if o.RequeueDelay <= 0 {
		o.RequeueDelay = types.DefaultRetryDelay
	}
	return o
}

// Engine runs citation discovery. An Engine holds no per-run state and may
// serve several runs, though each run is sequential by nature.
type Engine struct {
	source  Source
	opts    Options
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates an Engine. metrics may be nil.
func New(source Source, opts Options, logger zerolog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		source:  source,
		opts:    opts.withDefaults(),
		logger:  logger.With().Str("component", "discover").Logger(),
		metrics: metrics,
	}
}

// WithOptions returns a copy of e using opts.
func (e *Engine) WithOptions(opts Options) *Engine {
	cp := *e
	cp.opts = opts.withDefaults()
	return &cp
}

// queued is a seed waiting in the work queue with the attempts already spent on it.
type queued struct {
	seed  types.SeedPaper
	tries int
}

// selectSeeds applies MaxSeeds.
func (e *Engine) selectSeeds(seeds []types.SeedPaper) []types.SeedPaper {
	if e.opts.MaxSeeds > 0 && e.opts.MaxSeeds < len(seeds) {
		return seeds[:e.opts.MaxSeeds]
	}
	return seeds
}

// CollectCitations discovers the papers citing seeds.
//
// Seeds are processed from a FIFO queue. A seed whose lookup exhausts the
// client's request retries goes back to the tail of the queue until it has
// used MaxSeedRetries attempts, after which it is dropped. Citing papers are
// deduplicated by identity key across all seeds, and papers whose title
// matches a seed are excluded. Results keep first-discovery order.
//
// progress may be nil. Errors other than exhausted retries abort the run;
// the citations gathered so far are returned with the error, as they are
// on cancellation.
func (e *Engine) CollectCitations(ctx context.Context, seeds []types.SeedPaper, progress func(types.ProgressEvent)) ([]types.CitingPaper, error) {
	seeds = e.selectSeeds(seeds)
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	emit := func(ev types.ProgressEvent) {
		if progress != nil {
			progress(ev)
		}
	}

	total := len(seeds)
	maxTries := e.opts.MaxSeedRetries
	seedTitles := make(map[string]struct{}, total)
	seen := make(map[string]struct{})
	queue := make([]queued, 0, total)
	for _, s := range seeds {
		seedTitles[types.NormalizeTitle(s.Title)] = struct{}{}
		seen[s.Key()] = struct{}{}
		queue = append(queue, queued{seed: s})
	}

	e.logger.Info().Int("seeds", total).Msg("starting citation discovery")

	var results []types.CitingPaper
	completed, attempts := 0, 0
	paperEvent := func(ev types.ProgressEvent) {
		ev.Type = types.EventPaper
		ev.Attempts = attempts
		ev.MaxRetries = maxTries
		ev.Completed = completed
		ev.Total = total
		ev.Count = len(results)
		emit(ev)
	}
	finish := func(ev types.ProgressEvent) {
		completed++
		paperEvent(ev)
		emit(types.ProgressEvent{
			Type:      types.EventProgress,
			Title:     ev.Title,
			Processed: completed,
			Total:     total,
			Count:     len(results),
		})
		e.metrics.RecordSeedOutcome(string(ev.Action))
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		item := queue[0]
		queue = queue[1:]
		attempts++
		attempt := item.tries + 1
		title := item.seed.Title
		log := observability.WithPaper(e.logger, title)

		citing, found, err := e.lookup(ctx, item.seed)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			if !httputil.IsExhausted(err) {
				log.Error().Err(err).Msg("citation lookup failed")
				return results, fmt.Errorf("discovering citations for %q: %w", title, err)
			}

			if attempt < maxTries {
				log.Warn().Err(err).Int("attempt", attempt).Int("max_retries", maxTries).Msg("seed lookup exhausted retries, requeueing")
				paperEvent(types.ProgressEvent{
					Action:  types.ActionRetry,
					Title:   title,
					Attempt: attempt,
					Reason:  err.Error(),
				})
				e.metrics.RecordSeedOutcome(string(types.ActionRetry))
				if err := sleep(ctx, e.opts.RequeueDelay); err != nil {
					return results, err
				}
				queue = append(queue, queued{seed: item.seed, tries: attempt})
				continue
			}

			log.Error().Err(err).Int("attempts", attempt).Msg("giving up on seed")
			finish(types.ProgressEvent{
				Action:  types.ActionFailed,
				Title:   title,
				Attempt: attempt,
				Reason:  err.Error(),
			})
			continue
		}

		if !found {
			log.Info().Msg("seed not found on Semantic Scholar")
			finish(types.ProgressEvent{Action: types.ActionNotFound, Title: title, Attempt: attempt})
			continue
		}

		added := 0
		for _, p := range citing {
			if _, isSeed := seedTitles[types.NormalizeTitle(p.Title)]; isSeed {
				continue
			}
			key := p.IdentityKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			p.CitedPaper = title
			results = append(results, p)
			added++
		}
		e.metrics.RecordCitations(added)
		log.Info().Int("returned", len(citing)).Int("added", added).Int("total", len(results)).Msg("collected citations")
		finish(types.ProgressEvent{
			Action:  types.ActionSuccess,
			Title:   title,
			Attempt: attempt,
			Added:   added,
		})
	}

	e.logger.Info().Int("citations", len(results)).Msg("citation discovery finished")
	return results, nil
}

// lookup resolves one seed and fetches its citations, pausing RequestDelay
// after each API call. found is false when the search has no hit.
func (e *Engine) lookup(ctx context.Context, seed types.SeedPaper) (citing []types.CitingPaper, found bool, err error) {
	paper, err := e.source.SearchByTitle(ctx, seed.Title)
	if err != nil {
		return nil, false, err
	}
	if err := sleep(ctx, e.opts.RequestDelay); err != nil {
		return nil, false, err
	}
	if paper == nil {
		return nil, false, nil
	}

	citing, err = e.source.GetCitations(ctx, paper.ID, e.opts.MaxCitationsPerSeed)
	if err != nil {
		return nil, false, err
	}
	if err := sleep(ctx, e.opts.RequestDelay); err != nil {
		return nil, false, err
	}
	return citing, true, nil
}
