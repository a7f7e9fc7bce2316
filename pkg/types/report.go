// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SkippedPaper identifies a paper that ingestion deferred or skipped, with a
// human-readable reason. Budget exhaustion is reported this way: it is an
// outcome, not an error.
type SkippedPaper struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	Reason  string `json:"reason"`
}

// FailedPaper identifies a paper whose ingestion failed with an error.
type FailedPaper struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	Error   string `json:"error"`
}

// IngestStats holds per-run counters from the ingestion loop. Every selected
// candidate ends up in exactly one of ingested, skipped, or failed.
type IngestStats struct {
	IngestedPapers    int            `json:"ingestedPapers"`
	IngestedChunks    int            `json:"ingestedChunks"`
	SkippedPapers     []SkippedPaper `json:"skippedPapers"`
	FailedPapers      []FailedPaper  `json:"failedPapers"`
	TimedOut          bool           `json:"timedOut"`
	TimeBudgetSeconds int            `json:"timeBudgetSeconds"`
}

// Accounted returns the number of papers with a recorded outcome.
func (s IngestStats) Accounted() int {
	return s.IngestedPapers + len(s.SkippedPapers) + len(s.FailedPapers)
}

// IngestReport is the full response body for the ingest action.
type IngestReport struct {
	Namespace               string `json:"namespace"`
	DiscoveredCount         int    `json:"discoveredCount"`
	CandidateCount          int    `json:"candidateCount"`
	SelectedCandidateCount  int    `json:"selectedCandidateCount"`
	TruncatedCandidates     int    `json:"truncatedCandidates"`

	IngestStats

	RequestedPDFExtraction      bool   `json:"requestedPdfExtraction"`
	EffectivePDFExtraction      bool   `json:"effectivePdfExtraction"`
	PDFExtractionDisabledReason string `json:"pdfExtractionDisabledReason,omitempty"`
	QueryPDFPaperLimit          int    `json:"queryPdfPaperLimit,omitempty"`
	QueryPDFExtractionSelected  int    `json:"queryPdfExtractionSelected"`

	DiscoveryBudgetSeconds int      `json:"discoveryBudgetSeconds"`
	DiscoveryBudgetHit     bool     `json:"discoveryBudgetHit"`
	SourceErrors           []string `json:"sourceErrors,omitempty"`

	EmbeddingModel string `json:"embeddingModel"`
	VectorProvider string `json:"vectorProvider"`
	Message        string `json:"message,omitempty"`
}
