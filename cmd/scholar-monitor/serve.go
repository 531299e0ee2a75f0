// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-monitor/internal/server"
	"github.com/pdiddy/scholar-monitor/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the monitor over HTTP",
	Long: `Serve starts the HTTP API used by the web front end: seed management,
citation discovery (plain or as a server-sent event stream), analysis, the
saved reports, and Prometheus metrics at /metrics. The session starts from
the cached seeds, citations, and analyses.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8765)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		rt.cfg.Server.Addr = addr
	}

	st, err := rt.Store()
	if err != nil {
		return err
	}
	sess := session.New()
	cachedSeeds, err := st.LoadSeeds(ctx)
	if err != nil {
		return err
	}
	sess.SetSeeds(cachedSeeds)
	cachedCitations, err := st.LoadCitations(ctx)
	if err != nil {
		return err
	}
	sess.SetCitations(cachedCitations)
	analyzed, err := st.LoadAnalyzed(ctx)
	if err != nil {
		return err
	}
	sess.SetAnalyzed(analyzed)

	srv := server.New(server.Deps{
		Config:      rt.cfg,
		Session:     sess,
		Engine:      rt.Engine(),
		NewAnalyzer: rt.NewAnalyzer,
		Store:       st,
		Metrics:     rt.metrics,
		Logger:      rt.logger,
	})
	return srv.Run(ctx)
}
