// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "literature-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DiscoveryConfig holds settings for the paper discovery stage.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`

	// Sources is the backend allowlist (e.g. "openalex", "semantic_scholar",
	// "crossref", "arxiv").
	Sources []string `json:"sources" yaml:"sources"`

	// Limit is the per-source result limit (default 8).
	Limit int `json:"limit" yaml:"limit"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// RequestsPerSecond caps the per-backend request rate. Zero disables
	// rate limiting.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// EmbeddingConfig holds settings for the embedding service client.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the embedding model identifier (default "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the embedding API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// ChatConfig holds settings for the LLM completion client.
type ChatConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the chat model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the chat API. When empty, synthesis
	// degrades to deterministic fallbacks.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// VectorStoreConfig selects and configures the vector store.
type VectorStoreConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider is "pinecone" or "sqlite".
	Provider string `json:"provider" yaml:"provider"`

	// IndexHost is the Pinecone index host (provider "pinecone").
	IndexHost string `json:"index_host,omitempty" yaml:"index_host,omitempty"`

	// APIKey authenticates Pinecone calls (provider "pinecone").
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Path is the SQLite database path (provider "sqlite").
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Namespace is the default namespace when a request supplies none.
	Namespace string `json:"namespace" yaml:"namespace"`
}

// IngestConfig holds tuning defaults for the ingestion orchestrator.
// Request fields override these within the documented clamp ranges.
type IngestConfig struct {
	// ChunkSizeWords is the word-window size (default 220).
	ChunkSizeWords int `json:"chunk_size_words" yaml:"chunk_size_words"`

	// ChunkOverlapWords is the window overlap (default 40). Must stay below
	// ChunkSizeWords; the clamp ranges guarantee it.
	ChunkOverlapWords int `json:"chunk_overlap_words" yaml:"chunk_overlap_words"`

	// MinChunkWords drops trailing windows shorter than this (default 60).
	MinChunkWords int `json:"min_chunk_words" yaml:"min_chunk_words"`

	// MaxChunksPerPaper truncates a paper's chunk list (default 16).
	MaxChunksPerPaper int `json:"max_chunks_per_paper" yaml:"max_chunks_per_paper"`

	// MaxCandidates caps the papers processed per request (default 10).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// QueryPDFPaperLimit caps PDF extraction in query-driven ingestion
	// (default 2).
	QueryPDFPaperLimit int `json:"query_pdf_paper_limit" yaml:"query_pdf_paper_limit"`

	// TimeBudgetSeconds is the default wall-clock budget (default 24).
	TimeBudgetSeconds int `json:"time_budget_seconds" yaml:"time_budget_seconds"`

	// ExtractPDFText enables PDF extraction for requests that omit the
	// knob. Nil means the documented default, true; a pointer keeps an
	// explicit config-level false distinguishable from absent.
	ExtractPDFText *bool `json:"extract_pdf_text,omitempty" yaml:"extract_pdf_text,omitempty"`

	// MaxPDFTextChars caps extracted PDF text (default 120000).
	MaxPDFTextChars int `json:"max_pdf_text_chars" yaml:"max_pdf_text_chars"`

	// MaxPDFPages caps the pages read per PDF (default 8).
	MaxPDFPages int `json:"max_pdf_pages" yaml:"max_pdf_pages"`
}

// RetrievalConfig holds tuning defaults for retrieval and synthesis.
type RetrievalConfig struct {
	// TopK is the default number of reranked matches for ask (default 8).
	TopK int `json:"top_k" yaml:"top_k"`

	// InsightsTopK is the default for insights and gaps (default 12).
	InsightsTopK int `json:"insights_top_k" yaml:"insights_top_k"`

	// RerankMultiplier over-fetches raw matches before reranking (default 4).
	RerankMultiplier int `json:"rerank_multiplier" yaml:"rerank_multiplier"`

	// MaxContextChars bounds the assembled context block (default 16000).
	MaxContextChars int `json:"max_context_chars" yaml:"max_context_chars"`

	// InsightsMaxPapers bounds paper profiles (default 24).
	InsightsMaxPapers int `json:"insights_max_papers" yaml:"insights_max_papers"`

	// CitationStyle is the default reference style: apa, mla, or ieee.
	CitationStyle string `json:"citation_style" yaml:"citation_style"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// PipelineConfig groups all stage configurations. It is constructed once at
// process start and passed by reference into every component; nothing reads
// the environment after construction.
type PipelineConfig struct {
	Discovery   DiscoveryConfig   `json:"discovery" yaml:"discovery"`
	Embedding   EmbeddingConfig   `json:"embedding" yaml:"embedding"`
	Chat        ChatConfig        `json:"chat" yaml:"chat"`
	VectorStore VectorStoreConfig `json:"vector_store" yaml:"vector_store"`
	Ingest      IngestConfig      `json:"ingest" yaml:"ingest"`
	Retrieval   RetrievalConfig   `json:"retrieval" yaml:"retrieval"`
	Server      ServerConfig      `json:"server" yaml:"server"`
}

// WithDefaults fills zero-valued fields with the documented defaults and
// returns the completed config.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = 8 * time.Second
	}
	if c.Discovery.UserAgent == "" {
		c.Discovery.UserAgent = "literature-assistant/0.1"
	}
	if c.Discovery.Limit == 0 {
		c.Discovery.Limit = 8
	}
	if len(c.Discovery.Sources) == 0 {
		c.Discovery.Sources = []string{"openalex", "semantic_scholar", "crossref"}
	}
	if c.Embedding.Timeout == 0 {
		c.Embedding.Timeout = 45 * time.Second
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Chat.Timeout == 0 {
		c.Chat.Timeout = 60 * time.Second
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "gpt-4o-mini"
	}
	if c.VectorStore.Timeout == 0 {
		c.VectorStore.Timeout = 30 * time.Second
	}
	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = "sqlite"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "data/vectors.db"
	}
	if c.VectorStore.Namespace == "" {
		c.VectorStore.Namespace = "default"
	}
	if c.Ingest.ChunkSizeWords == 0 {
		c.Ingest.ChunkSizeWords = 220
	}
	if c.Ingest.ChunkOverlapWords == 0 {
		c.Ingest.ChunkOverlapWords = 40
	}
	if c.Ingest.MinChunkWords == 0 {
		c.Ingest.MinChunkWords = 60
	}
	if c.Ingest.MaxChunksPerPaper == 0 {
		c.Ingest.MaxChunksPerPaper = 16
	}
	if c.Ingest.MaxCandidates == 0 {
		c.Ingest.MaxCandidates = 10
	}
	if c.Ingest.QueryPDFPaperLimit == 0 {
		c.Ingest.QueryPDFPaperLimit = 2
	}
	if c.Ingest.TimeBudgetSeconds == 0 {
		c.Ingest.TimeBudgetSeconds = 24
	}
	if c.Ingest.ExtractPDFText == nil {
		extract := true
		c.Ingest.ExtractPDFText = &extract
	}
	if c.Ingest.MaxPDFTextChars == 0 {
		c.Ingest.MaxPDFTextChars = 120000
	}
	if c.Ingest.MaxPDFPages == 0 {
		c.Ingest.MaxPDFPages = 8
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 8
	}
	if c.Retrieval.InsightsTopK == 0 {
		c.Retrieval.InsightsTopK = 12
	}
	if c.Retrieval.RerankMultiplier == 0 {
		c.Retrieval.RerankMultiplier = 4
	}
	if c.Retrieval.MaxContextChars == 0 {
		c.Retrieval.MaxContextChars = 16000
	}
	if c.Retrieval.InsightsMaxPapers == 0 {
		c.Retrieval.InsightsMaxPapers = 24
	}
	if c.Retrieval.CitationStyle == "" {
		c.Retrieval.CitationStyle = "apa"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	return c
}
