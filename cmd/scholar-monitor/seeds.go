// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-monitor/internal/seeds"
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Extract seed papers from the listing pages",
	Long: `Seeds scans the configured HTML listing pages for paper entries (title and
link), deduplicates them by normalized title, stores them in the cache, and
prints them.`,
	RunE: runSeeds,
}

func init() {
	seedsCmd.Flags().String("dir", "", "directory holding the listing pages (default from config)")
	seedsCmd.Flags().Bool("json", false, "output seeds as JSON")
	seedsCmd.Flags().Bool("yaml", false, "output seeds as YAML, suitable for editing and re-importing")

	rootCmd.AddCommand(seedsCmd)
}

func runSeeds(cmd *cobra.Command, args []string) error {
	cfg := rt.cfg.Seeds
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.Dir = dir
	}

	found, err := seeds.ExtractAll(cfg.Dir, cfg.Files, rt.logger)
	if err != nil {
		return err
	}
	st, err := rt.Store()
	if err != nil {
		return err
	}
	if err := st.SaveSeeds(cmd.Context(), found); err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(os.Stdout, found)
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(found)
	}
	for i, s := range found {
		fmt.Printf("%3d. %s\n", i+1, s.Title)
		if s.URL != "" {
			fmt.Printf("     %s\n", s.URL)
		}
	}
	fmt.Printf("%d seed papers\n", len(found))
	return nil
}
