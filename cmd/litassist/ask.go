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

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question over the indexed corpus with citations",
	Long: `Ask embeds the question, retrieves and reranks the most relevant
chunks, and synthesizes an answer with inline [n] citations and a formatted
reference list. Without a chat API key the answer is extractive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int("top-k", 0, "number of chunks to retrieve")
	askCmd.Flags().String("task", "qa", "synthesis framing: qa, synthesis, comparison, or outline")
	askCmd.Flags().String("style", "", "citation style: apa, mla, or ieee")
	askCmd.Flags().Bool("contexts", false, "include retrieved chunks in the output")
	askCmd.Flags().Bool("json", false, "output the full response as JSON")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	req := types.AskRequest{Question: strings.Join(args, " ")}
	req.Task, _ = cmd.Flags().GetString("task")
	req.CitationStyle, _ = cmd.Flags().GetString("style")
	req.ReturnContexts, _ = cmd.Flags().GetBool("contexts")
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		req.TopK = &v
	}

	resp, err := p.engine.Ask(context.Background(), req.Resolve(cfg.Retrieval, cfg.VectorStore.Namespace))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printAnswer(resp)
}

func printAnswer(resp types.AskResponse) error {
	fmt.Println(resp.Answer)
	if len(resp.CrossPaperSynthesis) > 0 {
		fmt.Println("\nCross-paper synthesis:")
		for _, line := range resp.CrossPaperSynthesis {
			fmt.Printf("  - %s\n", line)
		}
	}
	if len(resp.Limitations) > 0 {
		fmt.Println("\nLimitations:")
		for _, line := range resp.Limitations {
			fmt.Printf("  - %s\n", line)
		}
	}
	if len(resp.References) > 0 {
		fmt.Println("\nReferences:")
		for _, ref := range resp.References {
			fmt.Printf("  [%d] %s\n", ref.CitationNumber, ref.Formatted)
		}
	}
	fmt.Printf("\nConfidence: %s (retrieved %d chunks from namespace %q)\n",
		resp.Confidence, resp.Retrieval.Returned, resp.Retrieval.Namespace)
	return nil
}
