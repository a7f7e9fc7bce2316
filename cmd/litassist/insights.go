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

var insightsCmd = &cobra.Command{
	Use:   "insights [topic]",
	Short: "Map agreements, methods, and timeline across the corpus",
	Long: `Insights surveys the indexed corpus around a topic: agreement
clusters, contradictions, methodological differences, a publication
timeline, and research gaps, each grounded in per-paper profiles. Without a
topic the whole research area is mapped.`,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().Int("top-k", 0, "number of chunks to retrieve")
	insightsCmd.Flags().String("style", "", "citation style: apa, mla, or ieee")
	insightsCmd.Flags().Bool("json", false, "output the full response as JSON")

	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	req := types.InsightsRequest{Topic: strings.Join(args, " ")}
	req.CitationStyle, _ = cmd.Flags().GetString("style")
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		req.TopK = &v
	}

	resp, err := p.engine.Insights(context.Background(), req.Resolve(cfg.Retrieval, cfg.VectorStore.Namespace))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printSection("Agreement clusters", resp.Insights.AgreementClusters)
	printSection("Contradictions", resp.Insights.Contradictions)
	printSection("Methodological differences", resp.Insights.MethodologicalDifferences)
	printSection("Timeline", resp.Insights.TimelineEvolution)
	printSection("Research gaps", resp.Insights.ResearchGaps)
	if len(resp.References) > 0 {
		fmt.Println("References:")
		for _, ref := range resp.References {
			fmt.Printf("  [%d] %s\n", ref.CitationNumber, ref.Formatted)
		}
	}
	return nil
}

func printSection(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, line := range lines {
		fmt.Printf("  - %s\n", line)
	}
	fmt.Println()
}
