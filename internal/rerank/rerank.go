// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank reorders raw vector matches with a hybrid score blending
// semantic similarity, lexical overlap with the question, and a citation
// boost. Implements: prd013-retrieval (R2); docs/ARCHITECTURE § Retrieval.
package rerank

import (
	"sort"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// Hybrid score weights. Semantic similarity dominates; lexical overlap
// rescues exact-term matches that embeddings rank loosely; the citation
// boost is a mild tie breaker.
const (
	semanticWeight = 0.70
	lexicalWeight  = 0.25
	citationWeight = 0.05

	// citationCap bounds the citation boost so a mega-cited paper cannot
	// dominate on citations alone.
	citationCap = 5000

	// minSpan guards the min-max normalization against a degenerate score
	// range.
	minSpan = 1e-8
)

// Hybrid rescores matches and returns the topK in descending hybrid order.
// Semantic scores are min-max normalized across the candidate set; ties
// keep their original order.
func Hybrid(question string, matches []types.Match, topK int) []types.Match {
	if len(matches) == 0 {
		return nil
	}

	minScore := matches[0].Score
	maxScore := matches[0].Score
	for _, m := range matches[1:] {
		if m.Score < minScore {
			minScore = m.Score
		}
		if m.Score > maxScore {
			maxScore = m.Score
		}
	}
	span := maxScore - minScore
	if span < minSpan {
		span = minSpan
	}

	ranked := make([]types.Match, len(matches))
	for i, m := range matches {
		semantic := (m.Score - minScore) / span
		lexical := textutil.OverlapScore(question, m.Metadata.ChunkText)
		citations := m.Metadata.CitationCount
		if citations > citationCap {
			citations = citationCap
		}
		boost := float64(citations) / citationCap

		hybrid := semanticWeight*semantic + lexicalWeight*lexical + citationWeight*boost
		m.HybridScore = &hybrid
		ranked[i] = m
	}

	sort.SliceStable(ranked, func(i, j int) bool { return *ranked[i].HybridScore > *ranked[j].HybridScore })
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
