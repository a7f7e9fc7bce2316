// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, pinecone-api-key, semantic-scholar-api-key, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

// Key file names recognized by Apply.
const (
	KeyOpenAI          = "openai-api-key"
	KeyPinecone        = "pinecone-api-key"
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyOpenAlexEmail   = "openalex-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies recognized secrets into the config, filling only fields the
// config leaves empty so explicit configuration wins over the key files.
func Apply(cfg *types.PipelineConfig, secrets map[string]string) {
	if v := secrets[KeyOpenAI]; v != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
		if cfg.Chat.APIKey == "" {
			cfg.Chat.APIKey = v
		}
	}
	if v := secrets[KeyPinecone]; v != "" && cfg.VectorStore.APIKey == "" {
		cfg.VectorStore.APIKey = v
	}
	if v := secrets[KeySemanticScholar]; v != "" && cfg.Discovery.SemanticScholarAPIKey == "" {
		cfg.Discovery.SemanticScholarAPIKey = v
	}
	if v := secrets[KeyOpenAlexEmail]; v != "" && cfg.Discovery.OpenAlexEmail == "" {
		cfg.Discovery.OpenAlexEmail = v
	}
}
