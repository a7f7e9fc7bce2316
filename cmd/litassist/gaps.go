// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps [topic]",
	Short: "Report under-covered evidence and open questions",
	Long: `Gaps derives research gaps from recurring limitation and future-work
statements across the corpus, optionally sharpened by a chat model into
citation-tagged gap statements with supporting evidence.`,
	RunE: runGaps,
}

func init() {
	gapsCmd.Flags().Int("top-k", 0, "number of chunks to retrieve")
	gapsCmd.Flags().String("style", "", "citation style: apa, mla, or ieee")
	gapsCmd.Flags().Bool("json", false, "output the full response as JSON")

	rootCmd.AddCommand(gapsCmd)
}

func runGaps(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	req := types.GapsRequest{Topic: strings.Join(args, " ")}
	req.CitationStyle, _ = cmd.Flags().GetString("style")
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		req.TopK = &v
	}

	resp, err := p.engine.Gaps(context.Background(), req.Resolve(cfg.Retrieval, cfg.VectorStore.Namespace))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printSection("Research gaps", resp.Gaps)
	printSection("Supporting evidence", resp.SupportingEvidence)
	if len(resp.References) > 0 {
		fmt.Println("References:")
		for _, ref := range resp.References {
			fmt.Printf("  [%d] %s\n", ref.CitationNumber, ref.Formatted)
		}
	}
	return nil
}
