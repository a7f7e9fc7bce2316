// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Requests carry optional tuning knobs as pointers so that "absent" and
// "explicit zero" stay distinguishable. Resolve applies config defaults and
// clamps every knob into its documented range.

// IngestRequest asks the pipeline to discover, process, and index papers.
// A non-empty Query triggers query-driven discovery; explicit Papers are
// merged with whatever discovery finds.
type IngestRequest struct {
	// Query searches the discovery backends when non-empty.
	Query string `json:"query,omitempty"`

	// Papers supplies caller-provided records directly.
	Papers []Paper `json:"papers,omitempty"`

	// Namespace scopes the upserted vectors. Empty means the configured
	// default namespace.
	Namespace string `json:"namespace,omitempty"`

	Limit              *int  `json:"limit,omitempty"`
	MaxCandidates      *int  `json:"maxCandidates,omitempty"`
	ExtractPDFText     *bool `json:"extractPdfText,omitempty"`
	QueryPDFPaperLimit *int  `json:"queryPdfPaperLimit,omitempty"`
	ChunkSizeWords     *int  `json:"chunkSizeWords,omitempty"`
	ChunkOverlapWords  *int  `json:"chunkOverlapWords,omitempty"`
	MinChunkWords      *int  `json:"minChunkWords,omitempty"`
	TimeBudgetSeconds  *int  `json:"timeBudgetSeconds,omitempty"`
}

// IngestSettings is an IngestRequest after Resolve: every knob concrete and
// in range.
type IngestSettings struct {
	Query              string
	Papers             []Paper
	Namespace          string
	Limit              int
	MaxCandidates      int
	ExtractPDFText     bool
	QueryPDFPaperLimit int
	ChunkSizeWords     int
	ChunkOverlapWords  int
	MinChunkWords      int
	TimeBudgetSeconds  int

	// QueryMode reports whether the request carries a discovery query.
	// The orchestrator runs discovery and priority ranking only in query
	// mode.
	QueryMode bool
}

// Resolve fills absent knobs from cfg and clamps all of them.
func (r IngestRequest) Resolve(cfg IngestConfig, defaultNamespace string) IngestSettings {
	s := IngestSettings{
		Query:              r.Query,
		Papers:             r.Papers,
		Namespace:          r.Namespace,
		Limit:              clampInt(orInt(r.Limit, 8), 1, 50),
		MaxCandidates:      clampInt(orInt(r.MaxCandidates, cfg.MaxCandidates), 1, 40),
		ExtractPDFText:     orBool(r.ExtractPDFText, orBool(cfg.ExtractPDFText, true)),
		QueryPDFPaperLimit: clampInt(orInt(r.QueryPDFPaperLimit, cfg.QueryPDFPaperLimit), 0, 8),
		ChunkSizeWords:     clampInt(orInt(r.ChunkSizeWords, cfg.ChunkSizeWords), 80, 800),
		ChunkOverlapWords:  clampInt(orInt(r.ChunkOverlapWords, cfg.ChunkOverlapWords), 0, 200),
		MinChunkWords:      clampInt(orInt(r.MinChunkWords, cfg.MinChunkWords), 20, 200),
		TimeBudgetSeconds:  clampInt(orInt(r.TimeBudgetSeconds, cfg.TimeBudgetSeconds), 8, 28),
		QueryMode:          strings.TrimSpace(r.Query) != "",
	}
	if s.Namespace == "" {
		s.Namespace = defaultNamespace
	}
	return s
}

// AskRequest retrieves evidence for a question and synthesizes a cited answer.
type AskRequest struct {
	Question  string `json:"question"`
	Namespace string `json:"namespace,omitempty"`

	// Task selects the synthesis framing: qa, synthesis, comparison, or
	// outline. Unknown values fall back to qa.
	Task string `json:"task,omitempty"`

	TopK *int `json:"topK,omitempty"`

	// CitationStyle is apa, mla, or ieee. Unknown values fall back to the
	// configured default.
	CitationStyle string `json:"citationStyle,omitempty"`

	// ReturnContexts includes the used chunks in the response.
	ReturnContexts bool `json:"returnContexts,omitempty"`

	// MetadataFilter restricts retrieval to records whose metadata matches
	// every key exactly.
	MetadataFilter map[string]string `json:"metadataFilter,omitempty"`
}

// AskSettings is an AskRequest after Resolve.
type AskSettings struct {
	Question       string
	Namespace      string
	Task           string
	TopK           int
	CitationStyle  string
	ReturnContexts bool
	MetadataFilter map[string]string
}

// Resolve fills absent knobs from cfg and clamps TopK to 1..30.
func (r AskRequest) Resolve(cfg RetrievalConfig, defaultNamespace string) AskSettings {
	s := AskSettings{
		Question:       r.Question,
		Namespace:      r.Namespace,
		Task:           normalizeTask(r.Task),
		TopK:           clampInt(orInt(r.TopK, cfg.TopK), 1, 30),
		CitationStyle:  normalizeStyle(r.CitationStyle, cfg.CitationStyle),
		ReturnContexts: r.ReturnContexts,
		MetadataFilter: r.MetadataFilter,
	}
	if s.Namespace == "" {
		s.Namespace = defaultNamespace
	}
	return s
}

// InsightsRequest summarizes themes, methods, and agreements across the
// indexed corpus, optionally focused by Topic.
type InsightsRequest struct {
	Topic          string            `json:"topic,omitempty"`
	Namespace      string            `json:"namespace,omitempty"`
	TopK           *int              `json:"topK,omitempty"`
	CitationStyle  string            `json:"citationStyle,omitempty"`
	ReturnContexts bool              `json:"returnContexts,omitempty"`
	MetadataFilter map[string]string `json:"metadataFilter,omitempty"`
}

// GapsRequest surfaces underexplored areas and limitations, optionally
// focused by Topic.
type GapsRequest struct {
	Topic          string            `json:"topic,omitempty"`
	Namespace      string            `json:"namespace,omitempty"`
	TopK           *int              `json:"topK,omitempty"`
	CitationStyle  string            `json:"citationStyle,omitempty"`
	MetadataFilter map[string]string `json:"metadataFilter,omitempty"`
}

// CorpusSettings is an InsightsRequest or GapsRequest after Resolve. Topic
// is never empty: an absent topic gets a generic survey prompt so the
// corpus-wide operations work without one.
type CorpusSettings struct {
	Topic          string
	Namespace      string
	TopK           int
	CitationStyle  string
	ReturnContexts bool
	MetadataFilter map[string]string
}

// DefaultInsightsTopic seeds topic-less insights requests.
const DefaultInsightsTopic = "Map this research area."

// DefaultGapsTopic seeds topic-less gaps requests.
const DefaultGapsTopic = "What are the major research gaps?"

// Resolve fills absent knobs from cfg and clamps TopK to 3..40.
func (r InsightsRequest) Resolve(cfg RetrievalConfig, defaultNamespace string) CorpusSettings {
	s := resolveCorpus(r.Topic, r.Namespace, r.TopK, r.CitationStyle, r.MetadataFilter, cfg, defaultNamespace)
	s.ReturnContexts = r.ReturnContexts
	if s.Topic == "" {
		s.Topic = DefaultInsightsTopic
	}
	return s
}

// Resolve fills absent knobs from cfg and clamps TopK to 3..40.
func (r GapsRequest) Resolve(cfg RetrievalConfig, defaultNamespace string) CorpusSettings {
	s := resolveCorpus(r.Topic, r.Namespace, r.TopK, r.CitationStyle, r.MetadataFilter, cfg, defaultNamespace)
	if s.Topic == "" {
		s.Topic = DefaultGapsTopic
	}
	return s
}

func resolveCorpus(topic, namespace string, topK *int, style string, filter map[string]string, cfg RetrievalConfig, defaultNamespace string) CorpusSettings {
	s := CorpusSettings{
		Topic:          topic,
		Namespace:      namespace,
		TopK:           clampInt(orInt(topK, cfg.InsightsTopK), 3, 40),
		CitationStyle:  normalizeStyle(style, cfg.CitationStyle),
		MetadataFilter: filter,
	}
	if s.Namespace == "" {
		s.Namespace = defaultNamespace
	}
	return s
}

func normalizeTask(task string) string {
	switch task {
	case "qa", "synthesis", "comparison", "outline":
		return task
	}
	return "qa"
}

func normalizeStyle(style, fallback string) string {
	switch style {
	case "apa", "mla", "ieee":
		return style
	}
	switch fallback {
	case "apa", "mla", "ieee":
		return fallback
	}
	return "apa"
}

func orInt(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

func orBool(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
