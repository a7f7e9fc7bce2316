// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls structured research fields out of paper text with
// keyword and pattern heuristics. The fields ride along as chunk metadata so
// synthesis can cite methodology and limitations without re-reading papers.
// Implements: prd011-processing (R4); docs/ARCHITECTURE § Text Processing.
package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

var (
	researchQuestionKeywords = []string{"we investigate", "this paper studies", "research question", "we ask whether", "aim of this"}
	methodologyKeywords      = []string{"method", "we use", "we propose", "experiment", "trial", "survey", "model", "approach"}
	keyFindingsKeywords      = []string{"we find", "results show", "our results", "we observe", "conclude", "significant"}
	limitationsKeywords      = []string{"limitation", "limited by", "constraint", "threat to validity", "caution"}
	futureWorkKeywords       = []string{"future work", "further research", "next steps", "remain unknown"}
)

var datasetSizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(n\s*=\s*\d[\d,]*)\b`),
	regexp.MustCompile(`(?i)\b(\d[\d,]*\s+(?:participants|patients|subjects|samples|records|observations))\b`),
	regexp.MustCompile(`(?i)\b(dataset\s+of\s+\d[\d,]*)\b`),
}

// modelTypeLabels is checked in order; the first label found in the text wins.
var modelTypeLabels = []string{
	"randomized controlled trial",
	"meta-analysis",
	"systematic review",
	"transformer",
	"bert",
	"gpt",
	"cnn",
	"rnn",
	"xgboost",
	"random forest",
	"bayesian",
	"difference-in-differences",
	"regression",
}

// DatasetSize returns the first cohort or dataset size expression found in
// the text, or "".
func DatasetSize(text string) string {
	for _, re := range datasetSizePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return textutil.Clean(m[1])
		}
	}
	return ""
}

// ModelType returns the first study design or model family label mentioned
// in the text, or "".
func ModelType(text string) string {
	lower := strings.ToLower(text)
	for _, label := range modelTypeLabels {
		if strings.Contains(lower, label) {
			return label
		}
	}
	return ""
}

// Fields extracts all structured fields from the text. Missing signals leave
// the corresponding field empty.
func Fields(text string) types.StructuredFields {
	clean := textutil.Clean(text)
	if clean == "" {
		return types.StructuredFields{}
	}
	return types.StructuredFields{
		ResearchQuestion: textutil.KeywordSentence(clean, researchQuestionKeywords),
		Methodology:      textutil.KeywordSentence(clean, methodologyKeywords),
		DatasetSize:      DatasetSize(clean),
		ModelType:        ModelType(clean),
		KeyFindings:      textutil.KeywordSentence(clean, keyFindingsKeywords),
		LimitationsText:  textutil.KeywordSentence(clean, limitationsKeywords),
		FutureWork:       textutil.KeywordSentence(clean, futureWorkKeywords),
	}
}
