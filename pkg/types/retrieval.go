// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Reference is one cited paper in a response. Citation numbers are 1-based
// and assigned in order of first appearance in the ranked match list; every
// chunk from the same paper shares one number.
type Reference struct {
	CitationNumber int    `json:"citationNumber"`
	PaperID        string `json:"paperId"`
	Title          string `json:"title"`
	Year           int    `json:"year,omitempty"`
	Venue          string `json:"venue,omitempty"`
	Source         string `json:"source,omitempty"`
	DOI            string `json:"doi,omitempty"`
	URL            string `json:"url,omitempty"`

	// Formatted is the style-rendered reference string (APA, MLA, or IEEE).
	Formatted string `json:"formatted"`
}

// UsedChunk records one chunk actually included in the assembled context,
// independent of whether synthesis used the LLM or a fallback. The list is
// the audit trail for an answer.
type UsedChunk struct {
	Rank           int     `json:"rank"`
	CitationNumber int     `json:"citationNumber,omitempty"`
	PaperID        string  `json:"paperId"`
	Title          string  `json:"title"`
	Score          float64 `json:"score"`
	HybridScore    float64 `json:"hybridScore"`
	Section        string  `json:"section"`
	ChunkIndex     int     `json:"chunkIndex"`
	Snippet        string  `json:"snippet"`
}

// RetrievalInfo describes how a retrieval request was executed.
type RetrievalInfo struct {
	TopK           int    `json:"topK"`
	Returned       int    `json:"returned"`
	Namespace      string `json:"namespace"`
	EmbeddingModel string `json:"embeddingModel,omitempty"`
	ChatModel      string `json:"chatModel,omitempty"`
	Mode           string `json:"mode,omitempty"`
}

// AnswerPayload is the structured answer produced by synthesis (or its
// deterministic fallback) for the ask action.
type AnswerPayload struct {
	Answer              string   `json:"answer"`
	CrossPaperSynthesis []string `json:"cross_paper_synthesis"`
	Limitations         []string `json:"limitations"`
	NextQuestions       []string `json:"next_questions"`
	Confidence          string   `json:"confidence"`
}

// AskResponse is the response body for the ask action.
type AskResponse struct {
	Question            string        `json:"question"`
	Task                string        `json:"task"`
	Answer              string        `json:"answer"`
	CrossPaperSynthesis []string      `json:"crossPaperSynthesis"`
	Limitations         []string      `json:"limitations"`
	NextQuestions       []string      `json:"nextQuestions"`
	Confidence          string        `json:"confidence"`
	References          []Reference   `json:"references"`
	Retrieval           RetrievalInfo `json:"retrieval"`
	Contexts            []UsedChunk   `json:"contexts,omitempty"`
}

// PaperProfile summarizes the best-ranked chunk of one paper for the
// insights and gaps actions.
type PaperProfile struct {
	CitationNumber int     `json:"citationNumber,omitempty"`
	PaperID        string  `json:"paperId"`
	Title          string  `json:"title"`
	Year           int     `json:"year,omitempty"`
	Source         string  `json:"source,omitempty"`
	Methodology    string  `json:"methodology,omitempty"`
	DatasetSize    string  `json:"datasetSize,omitempty"`
	ModelType      string  `json:"modelType,omitempty"`
	KeyFindings    string  `json:"keyFindings,omitempty"`
	Limitations    string  `json:"limitations,omitempty"`
	FutureWork     string  `json:"futureWork,omitempty"`
	Score          float64 `json:"score"`
}

// InsightsPayload groups the cross-corpus observations for the insights action.
type InsightsPayload struct {
	AgreementClusters         []string       `json:"agreementClusters"`
	Contradictions            []string       `json:"contradictions"`
	MethodologicalDifferences []string       `json:"methodologicalDifferences"`
	TimelineEvolution         []string       `json:"timelineEvolution"`
	ResearchGaps              []string       `json:"researchGaps"`
	PaperProfiles             []PaperProfile `json:"paperProfiles"`
}

// InsightsResponse is the response body for the insights action.
type InsightsResponse struct {
	Question   string          `json:"question"`
	Insights   InsightsPayload `json:"insights"`
	References []Reference     `json:"references"`
	Retrieval  RetrievalInfo   `json:"retrieval"`
	Contexts   []UsedChunk     `json:"contexts,omitempty"`
}

// GapsResponse is the response body for the gaps action.
type GapsResponse struct {
	Question           string        `json:"question"`
	Gaps               []string      `json:"gaps"`
	SupportingEvidence []string      `json:"supportingEvidence"`
	References         []Reference   `json:"references"`
	Retrieval          RetrievalInfo `json:"retrieval"`
}
