// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vector persists chunk embeddings and serves similarity queries.
// Two providers implement the Store interface: a Pinecone HTTP client and a
// local SQLite database for self-contained deployments.
// Implements: prd012-indexing (R2, R3); docs/ARCHITECTURE § Vector Store.
package vector

import (
	"context"
	"fmt"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

// Store reads and writes chunk vectors. Implementations are selected by
// configuration per the Strategy pattern.
type Store interface {
	// Name identifies the provider ("pinecone" or "sqlite").
	Name() string

	// Upsert writes records into the namespace, replacing records that
	// share an ID.
	Upsert(ctx context.Context, namespace string, records []types.VectorRecord) error

	// Query returns the topK records nearest to the vector, most similar
	// first. A non-nil filter keeps only records whose metadata matches
	// every key exactly.
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]types.Match, error)

	// Close releases the provider's resources.
	Close() error
}

// New constructs the configured store provider.
func New(cfg types.VectorStoreConfig) (Store, error) {
	switch cfg.Provider {
	case "pinecone":
		return NewPineconeStore(cfg)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown vector store provider %q", cfg.Provider)
	}
}
