// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-monitor/internal/monitor"
	"github.com/pdiddy/scholar-monitor/internal/scheduler"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the full pipeline once or on a schedule",
	Long: `Monitor extracts the seed papers, discovers their citing papers (or reuses
the cache with --skip-search), classifies them (unless --skip-analysis), and
writes the dated reports.

With --schedule (or schedule.cron in the config) the pipeline runs on that
cron expression in the report timezone until interrupted.`,
	RunE: runMonitor,
}

func init() {
	addDiscoveryFlags(monitorCmd)
	addLLMFlags(monitorCmd)
	monitorCmd.Flags().Bool("skip-search", false, "reuse cached citations instead of querying Semantic Scholar")
	monitorCmd.Flags().Bool("skip-analysis", false, "write reports without classifying")
	monitorCmd.Flags().String("schedule", "", `cron expression, e.g. "0 8 * * *" (default from config)`)

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	applyDiscoveryFlags(cmd, &rt.cfg.Discovery)
	applyLLMFlags(cmd, &rt.cfg)

	pipeline, err := rt.Pipeline()
	if err != nil {
		return err
	}
	var opts monitor.Options
	opts.SkipSearch, _ = cmd.Flags().GetBool("skip-search")
	opts.SkipAnalysis, _ = cmd.Flags().GetBool("skip-analysis")

	spec, _ := cmd.Flags().GetString("schedule")
	if spec == "" {
		spec = rt.cfg.Schedule.Cron
	}
	if spec == "" {
		res, err := pipeline.Run(ctx, opts)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	}

	sched, err := scheduler.New(spec, rt.cfg.Report.Timezone, func(ctx context.Context) {
		res, err := pipeline.Run(ctx, opts)
		if err != nil {
			rt.logger.Error().Err(err).Msg("scheduled run failed")
			return
		}
		printResult(res)
	}, rt.logger)
	if err != nil {
		return err
	}
	return sched.Run(ctx)
}

func printResult(res monitor.Result) {
	fmt.Printf("%s: %d seeds, %d citing papers, %d relevant\n", res.Date, res.Seeds, res.Citations, res.Relevant)
	if res.Reports.Summary != "" {
		fmt.Printf("Summary: %s\n", res.Reports.Summary)
	}
}
