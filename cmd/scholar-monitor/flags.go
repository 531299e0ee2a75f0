// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

func addDiscoveryFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-papers", 0, "maximum seed papers to check (default all)")
	cmd.Flags().Int("max-citations", 0, "maximum citations fetched per seed (default 50)")
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-base", "", "OpenAI-compatible API base URL")
	cmd.Flags().String("api-key", "", "API key for the classification endpoint")
	cmd.Flags().String("model", "", "model name (default: first model the endpoint lists)")
	cmd.Flags().Int("concurrency", 0, "parallel classifications, 1-16 (default 4)")
}

// applyDiscoveryFlags copies explicitly set discovery flags into cfg.
func applyDiscoveryFlags(cmd *cobra.Command, cfg *types.DiscoveryConfig) {
	if cmd.Flags().Changed("max-papers") {
		cfg.MaxSeeds, _ = cmd.Flags().GetInt("max-papers")
	}
	if cmd.Flags().Changed("max-citations") {
		cfg.MaxCitationsPerSeed, _ = cmd.Flags().GetInt("max-citations")
	}
}

// applyLLMFlags copies explicitly set classification flags into cfg.
func applyLLMFlags(cmd *cobra.Command, cfg *types.MonitorConfig) {
	if cmd.Flags().Changed("api-base") {
		cfg.LLM.APIBase, _ = cmd.Flags().GetString("api-base")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.LLM.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if cmd.Flags().Changed("model") {
		cfg.LLM.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Analysis.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
