// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-monitor CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rt is the runtime built before each subcommand runs.
var rt *app

// rootCmd is the base command for the scholar-monitor CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-monitor",
	Short: "Track new citations of seed papers and classify them",
	Long: `scholar-monitor watches Semantic Scholar for papers that cite a curated set
of seed papers, asks an OpenAI-compatible language model whether each citing
paper is about protecting the copyright of the model itself, and writes dated
JSON and Markdown reports.

Each pipeline stage is a subcommand: seeds, discover, and analyze. monitor runs
all of them, optionally on a cron schedule, and serve exposes them over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(viper.GetViper())
		if err != nil {
			return err
		}
		rt = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt != nil {
			rt.Close()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-monitor.yaml or ~/.config/scholar-monitor/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of API key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configure(viper.GetViper(), cfgFile)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
