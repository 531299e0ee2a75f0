// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-monitor/internal/discover"
	"github.com/pdiddy/scholar-monitor/internal/monitor"
	"github.com/pdiddy/scholar-monitor/internal/scholar"
	"github.com/pdiddy/scholar-monitor/internal/seeds"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find papers citing the cached seed papers",
	Long: `Discover looks up every cached seed paper (extracting them when the cache
has none) on Semantic Scholar and collects
the papers citing it. Seeds whose lookups keep failing are retried from the
back of the queue. Results are deduplicated and written to the cache for the
analyze stage.`,
	RunE: runDiscover,
}

func init() {
	addDiscoveryFlags(discoverCmd)
	discoverCmd.Flags().Bool("json", false, "output citing papers as JSON")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := rt.cfg.Discovery
	applyDiscoveryFlags(cmd, &cfg)

	st, err := rt.Store()
	if err != nil {
		return err
	}
	seedList, err := st.LoadSeeds(ctx)
	if err != nil {
		return err
	}
	if len(seedList) == 0 {
		if seedList, err = seeds.ExtractAll(rt.cfg.Seeds.Dir, rt.cfg.Seeds.Files, rt.logger); err != nil {
			return err
		}
	}
	if len(seedList) == 0 {
		return fmt.Errorf("no seed papers found in %s", rt.cfg.Seeds.Dir)
	}

	client := scholar.NewClient(rt.cfg.Scholar, rt.logger, rt.metrics)
	engine := discover.New(client, discover.OptionsFromConfig(cfg), rt.logger, rt.metrics)
	citations, err := engine.CollectCitations(ctx, seedList, monitor.LogProgress(rt.logger))
	if len(citations) > 0 {
		if saveErr := st.SaveCitations(ctx, citations); saveErr != nil {
			return saveErr
		}
	}
	if err != nil {
		return fmt.Errorf("discovery stopped after %d citing papers: %w", len(citations), err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, citations)
	}
	fmt.Printf("%d unique citing papers from %d seeds\n", len(citations), len(seedList))
	return nil
}
