// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-monitor/internal/report"
)

var logsCmd = &cobra.Command{
	Use:   "logs [name]",
	Short: "List saved reports or print one",
	Long: `Logs lists the dated JSON reports, newest first. Given a report name it
prints that report. --cache prints row counts from the citation cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().Bool("cache", false, "print citation cache statistics")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir := rt.cfg.Report.Dir

	if showCache, _ := cmd.Flags().GetBool("cache"); showCache {
		st, err := rt.Store()
		if err != nil {
			return err
		}
		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("seeds: %d\ncitations: %d\nanalyzed: %d\nrelevant: %d\n",
			stats.Seeds, stats.Citations, stats.Analyzed, stats.Relevant)
		return nil
	}

	if len(args) == 1 {
		data, err := report.Load(dir, args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	names, err := report.List(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
