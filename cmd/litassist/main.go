// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litassist CLI.
// Implements: prd010-ingestion, prd011-retrieval, prd012-synthesis,
//             prd013-api (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/literature-assistant/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the litassist CLI.
var rootCmd = &cobra.Command{
	Use:   "litassist",
	Short: "Retrieval-augmented literature assistant",
	Long: `litassist ingests academic papers into a vector index and answers
questions over them with cited, synthesized responses.

Each pipeline operation is a subcommand: ingest discovers and indexes
papers, ask answers a question with inline citations, insights maps a
research area, and gaps reports under-covered evidence. serve exposes the
same operations as a JSON HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litassist.yaml or ~/.config/litassist/config.yaml)")
	rootCmd.PersistentFlags().String("namespace", "", "vector namespace (default: configured namespace)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litassist")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litassist"))
		}
	}

	viper.SetEnvPrefix("LITASSIST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
