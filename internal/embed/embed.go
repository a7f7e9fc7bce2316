// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns chunk text into dense vectors through an embedding
// API. Implements: prd012-indexing (R1); docs/ARCHITECTURE § Indexing.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/pdiddy/literature-assistant/internal/httputil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// batchSize caps how many inputs go into a single embeddings request.
const batchSize = 64

// Embedder produces one vector per input text, in input order. Per the
// Strategy pattern so tests can supply a deterministic implementation.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// openAIEmbeddingsURL is the embeddings endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAIEmbeddingsURL = "https://api.openai.com/v1/embeddings"

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	Client *http.Client
	Config types.EmbeddingConfig
}

// Model returns the configured embedding model identifier.
func (e *OpenAIEmbedder) Model() string { return e.Config.Model }

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed vectorizes the texts in batches of 64, preserving input order. A
// response with a missing vector is an error: silently dropping one would
// misalign vectors with their chunks.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.Config.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is not configured")
	}

	var all [][]float32
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}
	if len(all) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(all), len(texts))
	}
	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingsRequest{Model: e.Config.Model, Input: batch})
	if err != nil {
		return nil, fmt.Errorf("encoding embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEmbeddingsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if e.Config.UserAgent != "" {
		req.Header.Set("User-Agent", e.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("embeddings API returned HTTP %d", resp.StatusCode)
	}

	var parsed embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing embeddings response: %w", err)
	}

	rows := parsed.Data
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	vectors := make([][]float32, 0, len(rows))
	for _, row := range rows {
		if len(row.Embedding) == 0 {
			continue
		}
		vectors = append(vectors, row.Embedding)
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for batch of %d", len(vectors), len(batch))
	}
	return vectors, nil
}
