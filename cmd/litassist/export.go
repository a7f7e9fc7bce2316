// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-assistant/internal/vector"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed chunk metadata as YAML",
	Long: `Export dumps every record in a namespace of the local SQLite index as
YAML, ordered by record ID. Only the sqlite provider supports export; the
Pinecone provider does not expose a full scan.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("output", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	store, ok := p.store.(*vector.SQLiteStore)
	if !ok {
		return fmt.Errorf("export requires the sqlite vector store provider, configured provider is %q", p.store.Name())
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return store.ExportYAML(context.Background(), cfg.VectorStore.Namespace, out)
}
