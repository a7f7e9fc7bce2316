// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the literature-assistant
// pipeline. Implements: prd010-ingestion (Paper, Chunk, VectorRecord);
//
//	prd011-retrieval (Match, Reference, UsedChunk);
//	prd012-synthesis (AnswerPayload, InsightsPayload).
//
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

// Paper is the canonical representation of a bibliographic record after
// normalization. All free-text fields are whitespace-collapsed; DOI is
// lower-cased with any https://doi.org/ prefix stripped.
type Paper struct {
	// PaperID is a stable identifier: the source ID when present, otherwise
	// a content hash of title|doi|year prefixed "paper_".
	PaperID string `json:"paperId" yaml:"paper_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// FullText is the full body text when a source supplies it.
	FullText string `json:"fullText,omitempty" yaml:"full_text,omitempty"`

	// Authors lists author display names in source order. Order is meaningful.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// CitationCount is the number of citing works reported by the source.
	CitationCount int `json:"citationCount" yaml:"citation_count"`

	// PublicationDate is the full publication date string when available.
	PublicationDate string `json:"publicationDate,omitempty" yaml:"publication_date,omitempty"`

	// Venue is the journal, conference, or preprint server.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// URL is the landing-page URL.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is an open-access PDF location, when one is known.
	PDFURL string `json:"pdfUrl,omitempty" yaml:"pdf_url,omitempty"`

	// DOI is the normalized Digital Object Identifier (no scheme prefix).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Source identifies which backend produced the record (e.g. "OpenAlex").
	Source string `json:"source" yaml:"source"`

	// AllowPDFExtract gates synchronous PDF text extraction for this record.
	AllowPDFExtract bool `json:"allowPdfExtract" yaml:"allow_pdf_extract"`
}

// HasAnyText reports whether the record carries retrievable prose beyond
// its title.
func (p Paper) HasAnyText() bool {
	return p.Abstract != "" || p.FullText != ""
}

// Chunk is one overlapping word-window of a paper's text, labeled with the
// section it was cut from. A chunk is owned by the ingestion pass that
// produced it and is immutable once embedded.
type Chunk struct {
	// Text is the cleaned, non-empty chunk text.
	Text string `json:"text"`

	// Section is a label from the section vocabulary, or "body".
	Section string `json:"section"`

	// SectionIndex is the 0-based position of the section within the document.
	SectionIndex int `json:"sectionIndex"`
}

// StructuredFields holds the heuristic per-paper extractions stored in
// chunk metadata.
type StructuredFields struct {
	ResearchQuestion string `json:"researchQuestion"`
	Methodology      string `json:"methodology"`
	DatasetSize      string `json:"datasetSize"`
	ModelType        string `json:"modelType"`
	KeyFindings      string `json:"keyFindings"`
	LimitationsText  string `json:"limitationsText"`
	FutureWork       string `json:"futureWork"`
}

// ChunkMetadata is the metadata persisted with each vector record. The key
// set is the wire contract between ingestion and retrieval: retrieval code
// reads exactly these fields back from the store.
type ChunkMetadata struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Authors       string `json:"authors"` // joined display names, ", " separated
	Year          int    `json:"year"`
	CitationCount int    `json:"citationCount"`
	Venue         string `json:"venue"`
	DOI           string `json:"doi"`
	URL           string `json:"url"`
	PDFURL        string `json:"pdfUrl"`
	Source        string `json:"source"`
	ChunkIndex    int    `json:"chunkIndex"`
	Section       string `json:"section"`
	SectionIndex  int    `json:"sectionIndex"`
	ChunkText     string `json:"chunkText"` // truncated to MaxChunkTextChars

	StructuredFields
}

// MaxChunkTextChars bounds the chunk text stored in vector metadata.
const MaxChunkTextChars = 4000

// VectorRecord is one chunk as persisted in the vector store. ID is
// deterministic ("<paperId>::chunk::<index>") so re-ingestion overwrites
// rather than duplicates.
type VectorRecord struct {
	ID       string        `json:"id"`
	Values   []float32     `json:"values"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Match is a vector-store hit. Score is the raw similarity returned by the
// store; HybridScore is filled in by reranking and stays nil before it, so
// a legitimate 0.0 hybrid score is distinguishable from absent. A Match
// lives for one retrieval request.
type Match struct {
	ID          string        `json:"id"`
	Score       float64       `json:"score"`
	HybridScore *float64      `json:"hybridScore,omitempty"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// RankScore is the best available ordering score: the hybrid score once
// reranking has run, the raw similarity before that.
func (m Match) RankScore() float64 {
	if m.HybridScore != nil {
		return *m.HybridScore
	}
	return m.Score
}
