// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scheduler runs the monitor pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled pipeline run. ctx is cancelled when the scheduler
// stops.
type Job func(ctx context.Context)

// Scheduler fires a Job on a standard five-field cron spec (or a
// descriptor such as "@daily") in a fixed timezone. A run still in
// progress when the next one is due causes that run to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	loc      *time.Location
	job      Job
	logger   zerolog.Logger
}

// New validates spec and timezone and returns a stopped Scheduler.
func New(spec, timezone string, job Job, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	logger = logger.With().Str("component", "scheduler").Str("spec", spec).Logger()
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		schedule: schedule,
		loc:      loc,
		job:      job,
		logger:   logger,
	}, nil
}

// Next reports when the job would next fire after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running job to return.
func (s *Scheduler) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		start := time.Now()
		s.logger.Info().Msg("scheduled run starting")
		s.job(runCtx)
		s.logger.Info().Dur("elapsed", time.Since(start)).
			Time("next", s.Next(time.Now())).Msg("scheduled run finished")
	}))
	s.cron.Start()
	s.logger.Info().Time("next", s.Next(time.Now())).Msg("scheduler started")

	<-ctx.Done()
	cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
