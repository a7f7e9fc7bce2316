// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/literature-assistant/internal/answer"
	"github.com/pdiddy/literature-assistant/internal/discover"
	"github.com/pdiddy/literature-assistant/internal/embed"
	"github.com/pdiddy/literature-assistant/internal/ingest"
	"github.com/pdiddy/literature-assistant/internal/pdftext"
	"github.com/pdiddy/literature-assistant/internal/secrets"
	"github.com/pdiddy/literature-assistant/internal/vector"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// pipelineConfig assembles the effective configuration: viper (config file
// and LITASSIST_* environment), then .secrets/ for any credential the
// config leaves empty, then defaults.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	var cfg types.PipelineConfig

	cfg.Discovery.Sources = viper.GetStringSlice("discovery.sources")
	cfg.Discovery.Limit = viper.GetInt("discovery.limit")
	cfg.Discovery.UserAgent = viper.GetString("discovery.user_agent")
	cfg.Discovery.SemanticScholarAPIKey = viper.GetString("discovery.semantic_scholar_api_key")
	cfg.Discovery.OpenAlexEmail = viper.GetString("discovery.openalex_email")
	cfg.Discovery.RequestsPerSecond = viper.GetFloat64("discovery.requests_per_second")

	cfg.Embedding.Model = viper.GetString("embedding.model")
	cfg.Embedding.APIKey = viper.GetString("embedding.api_key")

	cfg.Chat.Model = viper.GetString("chat.model")
	cfg.Chat.APIKey = viper.GetString("chat.api_key")

	cfg.VectorStore.Provider = viper.GetString("vector_store.provider")
	cfg.VectorStore.IndexHost = viper.GetString("vector_store.index_host")
	cfg.VectorStore.APIKey = viper.GetString("vector_store.api_key")
	cfg.VectorStore.Path = viper.GetString("vector_store.path")
	cfg.VectorStore.Namespace = viper.GetString("vector_store.namespace")

	cfg.Ingest.ChunkSizeWords = viper.GetInt("ingest.chunk_size_words")
	cfg.Ingest.ChunkOverlapWords = viper.GetInt("ingest.chunk_overlap_words")
	cfg.Ingest.MinChunkWords = viper.GetInt("ingest.min_chunk_words")
	cfg.Ingest.MaxChunksPerPaper = viper.GetInt("ingest.max_chunks_per_paper")
	cfg.Ingest.MaxCandidates = viper.GetInt("ingest.max_candidates")
	cfg.Ingest.QueryPDFPaperLimit = viper.GetInt("ingest.query_pdf_paper_limit")
	cfg.Ingest.TimeBudgetSeconds = viper.GetInt("ingest.time_budget_seconds")
	if viper.IsSet("ingest.extract_pdf_text") {
		extract := viper.GetBool("ingest.extract_pdf_text")
		cfg.Ingest.ExtractPDFText = &extract
	}
	cfg.Ingest.MaxPDFTextChars = viper.GetInt("ingest.max_pdf_text_chars")
	cfg.Ingest.MaxPDFPages = viper.GetInt("ingest.max_pdf_pages")

	cfg.Retrieval.TopK = viper.GetInt("retrieval.top_k")
	cfg.Retrieval.InsightsTopK = viper.GetInt("retrieval.insights_top_k")
	cfg.Retrieval.RerankMultiplier = viper.GetInt("retrieval.rerank_multiplier")
	cfg.Retrieval.MaxContextChars = viper.GetInt("retrieval.max_context_chars")
	cfg.Retrieval.InsightsMaxPapers = viper.GetInt("retrieval.insights_max_papers")
	cfg.Retrieval.CitationStyle = viper.GetString("retrieval.citation_style")

	cfg.Server.Addr = viper.GetString("server.addr")

	secrets.Apply(&cfg, loadedSecrets)
	cfg = cfg.WithDefaults()

	if ns, _ := cmd.Flags().GetString("namespace"); ns != "" {
		cfg.VectorStore.Namespace = ns
	}
	return cfg
}

// pipeline holds the wired components behind every subcommand.
type pipeline struct {
	cfg      types.PipelineConfig
	store    vector.Store
	embedder embed.Embedder
	chat     answer.ChatBackend
	ingest   *ingest.Orchestrator
	engine   *answer.Engine
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

// newPipeline wires discovery backends, the embedder, the vector store, and
// the optional chat backend from cfg.
func newPipeline(cfg types.PipelineConfig) (*pipeline, error) {
	store, err := vector.New(cfg.VectorStore)
	if err != nil {
		return nil, err
	}

	embedder := &embed.OpenAIEmbedder{
		Client: &http.Client{Timeout: cfg.Embedding.Timeout},
		Config: cfg.Embedding,
	}

	// NewOpenAIChat returns nil without an API key; the engine treats a nil
	// backend as synthesis-disabled.
	var chat answer.ChatBackend
	if c := answer.NewOpenAIChat(&http.Client{Timeout: cfg.Chat.Timeout}, cfg.Chat); c != nil {
		chat = c
	}

	orchestrator := &ingest.Orchestrator{
		Backends: discover.Backends(cfg.Discovery),
		Embedder: embedder,
		Store:    store,
		PDF: pdftext.NewExtractor(
			&http.Client{Timeout: cfg.Discovery.Timeout},
			cfg.Ingest,
			cfg.Discovery.UserAgent,
		),
		Config: cfg,
	}

	engine := &answer.Engine{
		Embedder: embedder,
		Store:    store,
		Chat:     chat,
		Config:   cfg.Retrieval,
	}

	return &pipeline{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		chat:     chat,
		ingest:   orchestrator,
		engine:   engine,
	}, nil
}
