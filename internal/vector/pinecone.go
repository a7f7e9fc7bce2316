// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/literature-assistant/internal/httputil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// PineconeStore talks to a Pinecone serverless index over its data-plane
// HTTP API.
type PineconeStore struct {
	Client *http.Client
	host   string
	apiKey string
	ua     string
}

// NewPineconeStore validates the config and returns a ready client. The
// index host may be given with or without a scheme.
func NewPineconeStore(cfg types.VectorStoreConfig) (*PineconeStore, error) {
	host := strings.TrimSpace(cfg.IndexHost)
	if host == "" {
		return nil, fmt.Errorf("pinecone index host is not configured")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is not configured")
	}
	return &PineconeStore{
		Client: &http.Client{Timeout: cfg.Timeout},
		host:   strings.TrimRight(host, "/"),
		apiKey: cfg.APIKey,
		ua:     cfg.UserAgent,
	}, nil
}

// Name identifies the provider.
func (s *PineconeStore) Name() string { return "pinecone" }

// Close is a no-op; the store holds no persistent resources.
func (s *PineconeStore) Close() error { return nil }

type pineconeVector struct {
	ID       string              `json:"id"`
	Values   []float32           `json:"values"`
	Metadata types.ChunkMetadata `json:"metadata"`
}

type pineconeUpsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace,omitempty"`
}

// Upsert writes records through the /vectors/upsert endpoint.
func (s *PineconeStore) Upsert(ctx context.Context, namespace string, records []types.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	payload := pineconeUpsertRequest{Namespace: namespace}
	for _, r := range records {
		payload.Vectors = append(payload.Vectors, pineconeVector{ID: r.ID, Values: r.Values, Metadata: r.Metadata})
	}

	if _, err := s.post(ctx, "/vectors/upsert", payload); err != nil {
		return fmt.Errorf("pinecone upsert: %w", err)
	}
	return nil
}

type pineconeQueryRequest struct {
	Vector          []float32         `json:"vector"`
	TopK            int               `json:"topK"`
	IncludeMetadata bool              `json:"includeMetadata"`
	Namespace       string            `json:"namespace,omitempty"`
	Filter          map[string]string `json:"filter,omitempty"`
}

type pineconeQueryResponse struct {
	Matches []struct {
		ID       string              `json:"id"`
		Score    float64             `json:"score"`
		Metadata types.ChunkMetadata `json:"metadata"`
	} `json:"matches"`
}

// Query runs a similarity search through the /query endpoint.
func (s *PineconeStore) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]types.Match, error) {
	payload := pineconeQueryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
		Namespace:       namespace,
		Filter:          filter,
	}

	body, err := s.post(ctx, "/query", payload)
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	var parsed pineconeQueryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing pinecone response: %w", err)
	}

	matches := make([]types.Match, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		matches = append(matches, types.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

func (s *PineconeStore) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if s.ua != "" {
		req.Header.Set("User-Agent", s.ua)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		snippet := string(body)
		if len(snippet) > 400 {
			snippet = snippet[:400]
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}
	return body, nil
}
