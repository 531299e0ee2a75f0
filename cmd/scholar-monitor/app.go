// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-monitor/internal/analyze"
	"github.com/pdiddy/scholar-monitor/internal/classify"
	"github.com/pdiddy/scholar-monitor/internal/discover"
	"github.com/pdiddy/scholar-monitor/internal/monitor"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/internal/scholar"
	"github.com/pdiddy/scholar-monitor/internal/secrets"
	"github.com/pdiddy/scholar-monitor/internal/store"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// app carries the configuration and shared collaborators of one CLI
// invocation.
type app struct {
	cfg     types.MonitorConfig
	logger  zerolog.Logger
	metrics *observability.Metrics

	logFile *os.File
	store   *store.Store
}

func newApp(v *viper.Viper) (*app, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, metrics: observability.NewMetrics("scholar_monitor")}
	if cfg.Logging.Dir != "" {
		f, err := observability.OpenDailyLog(cfg.Logging.Dir, time.Now())
		if err != nil {
			return nil, err
		}
		a.logFile = f
		a.logger = observability.NewLogger(cfg.Logging, os.Stderr, f)
	} else {
		a.logger = observability.NewLogger(cfg.Logging, os.Stderr)
	}

	s, err := secrets.Load(v.GetString("secrets_dir"), a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		a.logger.Debug().Strs("keys", keys).Msg("loaded secrets")
	}
	secrets.Apply(&a.cfg, s)
	return a, nil
}

// Store opens the citation cache on first use.
func (a *app) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(a.cfg.Report.CachePath)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// Engine builds a discovery engine over the Semantic Scholar client.
func (a *app) Engine() *discover.Engine {
	client := scholar.NewClient(a.cfg.Scholar, a.logger, a.metrics)
	return discover.New(client, discover.OptionsFromConfig(a.cfg.Discovery), a.logger, a.metrics)
}

// NewAnalyzer is the analyze.Factory backed by the LLM classifier.
func (a *app) NewAnalyzer(ctx context.Context, cfg types.LLMConfig) (analyze.Analyzer, error) {
	c, err := classify.NewFromConfig(ctx, cfg, a.logger, a.metrics)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Pipeline assembles the monitor pipeline with the cache attached.
func (a *app) Pipeline() (*monitor.Pipeline, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	return &monitor.Pipeline{
		Config:      a.cfg,
		Engine:      a.Engine(),
		NewAnalyzer: a.NewAnalyzer,
		Store:       st,
		Metrics:     a.metrics,
		Logger:      a.logger,
	}, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing cache")
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
