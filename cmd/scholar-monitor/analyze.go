// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-monitor/internal/analyze"
	"github.com/pdiddy/scholar-monitor/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify the cached citing papers with a language model",
	Long: `Analyze sends every cached citing paper to the configured OpenAI-compatible
endpoint and records whether it concerns model copyright protection, with a
category from the research taxonomy. Papers that are themselves seeds are
skipped. Results are cached and, unless --save=false, written as dated
reports.`,
	RunE: runAnalyze,
}

func init() {
	addLLMFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("save", true, "write the dated JSON and Markdown reports")
	analyzeCmd.Flags().Bool("json", false, "output analyzed papers as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := rt.cfg
	applyLLMFlags(cmd, &cfg)

	st, err := rt.Store()
	if err != nil {
		return err
	}
	citations, err := st.LoadCitations(ctx)
	if err != nil {
		return err
	}
	if len(citations) == 0 {
		return fmt.Errorf("no cached citations; run 'scholar-monitor discover' first")
	}
	seedList, err := st.LoadSeeds(ctx)
	if err != nil {
		return err
	}

	analyzer, err := rt.NewAnalyzer(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	papers := analyze.Run(ctx, analyzer, citations, seedList, analyze.Options{
		Concurrency:       cfg.Analysis.Concurrency,
		RequestsPerSecond: cfg.Analysis.RequestsPerSecond,
		Logger:            rt.logger,
		Metrics:           rt.metrics,
	})
	if err := st.SaveAnalyses(ctx, papers); err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		paths, err := report.Save(cfg.Report.Dir, report.DateStamp(time.Now(), cfg.Report.Timezone), papers)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Reports: %s, %s, %s\n", paths.All, paths.Relevant, paths.Summary)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, papers)
	}
	relevant := analyze.Relevant(papers)
	for _, p := range relevant {
		fmt.Printf("* %s [%s]\n", p.Title, categoryLabel(p.Analysis.Category, p.Analysis.Subcategory))
	}
	fmt.Printf("%d of %d papers relevant\n", len(relevant), len(papers))
	return nil
}

func categoryLabel(cat, sub *string) string {
	switch {
	case cat == nil:
		return "uncategorized"
	case sub == nil:
		return *cat
	default:
		return *cat + "/" + *sub
	}
}
