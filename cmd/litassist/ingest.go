// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Discover, chunk, embed, and index papers",
	Long: `Ingest builds the vector index. With --query it discovers candidate
papers from the configured academic APIs; with --papers-file it reads a JSON
array of paper records instead. Candidates are deduplicated, prioritized,
chunked, embedded, and upserted under a wall-clock time budget. The report
accounts for every candidate as ingested, skipped, or failed.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("query", "", "free-text discovery query")
	ingestCmd.Flags().String("papers-file", "", "JSON file with an array of paper records")
	ingestCmd.Flags().Int("limit", 0, "discovery result limit per request")
	ingestCmd.Flags().Int("max-candidates", 0, "cap on candidates ingested in one run")
	ingestCmd.Flags().Bool("extract-pdf", true, "download and extract open-access PDF text")
	ingestCmd.Flags().Int("time-budget", 0, "ingestion time budget in seconds")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	query, _ := cmd.Flags().GetString("query")
	papersFile, _ := cmd.Flags().GetString("papers-file")
	if query == "" && papersFile == "" {
		return fmt.Errorf("provide --query or --papers-file")
	}

	req := types.IngestRequest{Query: query}
	if papersFile != "" {
		raw, err := os.ReadFile(papersFile)
		if err != nil {
			return fmt.Errorf("reading papers file: %w", err)
		}
		if err := json.Unmarshal(raw, &req.Papers); err != nil {
			return fmt.Errorf("parsing papers file: %w", err)
		}
	}
	if v, _ := cmd.Flags().GetInt("limit"); v > 0 {
		req.Limit = &v
	}
	if v, _ := cmd.Flags().GetInt("max-candidates"); v > 0 {
		req.MaxCandidates = &v
	}
	if cmd.Flags().Changed("extract-pdf") {
		v, _ := cmd.Flags().GetBool("extract-pdf")
		req.ExtractPDFText = &v
	}
	if v, _ := cmd.Flags().GetInt("time-budget"); v > 0 {
		req.TimeBudgetSeconds = &v
	}

	settings := req.Resolve(cfg.Ingest, cfg.VectorStore.Namespace)
	report, err := p.ingest.Run(context.Background(), settings, os.Stderr)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
