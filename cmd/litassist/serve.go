// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-assistant/internal/logging"
	"github.com/pdiddy/literature-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline as a JSON HTTP API",
	Long: `Serve starts an HTTP server exposing the pipeline as a single action
endpoint: POST / with {"action": "ingest"|"ask"|"insights"|"gaps"} plus the
action's parameters. GET /healthz reports readiness.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().String("log-mode", "dev", "log encoder: dev or prod")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	mode, _ := cmd.Flags().GetString("log-mode")
	log, err := logging.New(mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	srv := &server.Server{
		Ingest: p.ingest,
		Engine: p.engine,
		Config: cfg,
		Log:    log,
	}

	log.Infow("listening",
		"addr", cfg.Server.Addr,
		"vectorProvider", p.store.Name(),
		"embeddingModel", p.embedder.Model(),
		"synthesis", p.chat != nil,
	)
	return srv.Router().Run(cfg.Server.Addr)
}
