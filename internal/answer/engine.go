// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package answer retrieves evidence from the vector store and synthesizes
// cited answers, corpus insights, and research-gap reports. Generative
// synthesis is optional: every operation degrades to a deterministic
// extractive fallback when no chat backend is configured.
// Implements: prd011-retrieval (R1-R4); prd012-synthesis (R1-R5);
//
//	docs/ARCHITECTURE § Retrieval, § Synthesis.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/literature-assistant/internal/cite"
	"github.com/pdiddy/literature-assistant/internal/embed"
	"github.com/pdiddy/literature-assistant/internal/rerank"
	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/internal/vector"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// maxQueryTopK caps the over-fetch sent to the vector store before reranking.
const maxQueryTopK = 100

// structuredRowLimit caps the paper rows passed into the insights prompt.
const structuredRowLimit = 16

// Engine executes the ask, insights, and gaps operations. Chat may be nil,
// which disables generative synthesis.
type Engine struct {
	Embedder embed.Embedder
	Store    vector.Store
	Chat     ChatBackend
	Config   types.RetrievalConfig
}

// retrieve embeds the question, over-fetches from the store, and reranks
// down to topK.
func (e *Engine) retrieve(ctx context.Context, question, namespace string, topK int, filter map[string]string) ([]types.Match, error) {
	vectors, err := e.Embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding question returned no vector")
	}

	fetch := topK * e.Config.RerankMultiplier
	if fetch < topK {
		fetch = topK
	}
	if fetch > maxQueryTopK {
		fetch = maxQueryTopK
	}
	raw, err := e.Store.Query(ctx, namespace, vectors[0], fetch, filter)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}
	return rerank.Hybrid(question, raw, topK), nil
}

func (e *Engine) retrievalInfo(topK, returned int, namespace string) types.RetrievalInfo {
	info := types.RetrievalInfo{
		TopK:           topK,
		Returned:       returned,
		Namespace:      namespace,
		EmbeddingModel: e.Embedder.Model(),
		Mode:           "hybrid",
	}
	if e.Chat != nil {
		info.ChatModel = e.Chat.Model()
	}
	return info
}

// Ask answers a question from retrieved evidence with inline citations.
func (e *Engine) Ask(ctx context.Context, s types.AskSettings) (types.AskResponse, error) {
	question := textutil.Clean(s.Question)
	if question == "" {
		return types.AskResponse{}, fmt.Errorf("question is required")
	}

	matches, err := e.retrieve(ctx, question, s.Namespace, s.TopK, s.MetadataFilter)
	if err != nil {
		return types.AskResponse{}, err
	}
	if len(matches) == 0 {
		return types.AskResponse{
			Question:            question,
			Task:                s.Task,
			Answer:              "No relevant documents were retrieved from the corpus.",
			CrossPaperSynthesis: []string{},
			Limitations:         []string{"No context retrieved from vector database."},
			NextQuestions:       []string{},
			Confidence:          "low",
			References:          []types.Reference{},
			Retrieval:           types.RetrievalInfo{TopK: s.TopK, Returned: 0, Namespace: s.Namespace},
		}, nil
	}

	references, paperToCitation := cite.BuildReferences(matches, s.CitationStyle)
	contextText, usedChunks := cite.BuildContext(matches, paperToCitation, e.Config.MaxContextChars)

	payload := e.synthesizeAnswer(ctx, question, s.Task, contextText, references, usedChunks)

	resp := types.AskResponse{
		Question:            question,
		Task:                s.Task,
		Answer:              payload.Answer,
		CrossPaperSynthesis: emptyIfNil(payload.CrossPaperSynthesis),
		Limitations:         emptyIfNil(payload.Limitations),
		NextQuestions:       emptyIfNil(payload.NextQuestions),
		Confidence:          payload.Confidence,
		References:          references,
		Retrieval:           e.retrievalInfo(s.TopK, len(matches), s.Namespace),
	}
	if resp.Confidence == "" {
		resp.Confidence = "medium"
	}
	if s.ReturnContexts {
		resp.Contexts = usedChunks
	}
	return resp, nil
}

func (e *Engine) synthesizeAnswer(ctx context.Context, question, task, contextText string, references []types.Reference, usedChunks []types.UsedChunk) types.AnswerPayload {
	if e.Chat == nil {
		payload := FallbackAnswer(question, usedChunks)
		payload.Limitations = append(payload.Limitations, "Generative synthesis is disabled because no chat API key is configured.")
		return payload
	}

	prompt, err := askPrompt(question, task, contextText, references)
	if err == nil {
		var payload types.AnswerPayload
		if err = e.Chat.CompleteJSON(ctx, prompt, &payload); err == nil {
			return payload
		}
	}
	payload := FallbackAnswer(question, usedChunks)
	payload.Limitations = append(payload.Limitations, err.Error())
	return payload
}

// FallbackAnswer builds an extractive answer from the top used chunks when
// generative synthesis is unavailable or fails.
func FallbackAnswer(question string, usedChunks []types.UsedChunk) types.AnswerPayload {
	if len(usedChunks) == 0 {
		return types.AnswerPayload{
			Answer:              "No relevant context was retrieved from the corpus.",
			CrossPaperSynthesis: []string{},
			Limitations:         []string{"No retrieved chunks available."},
			NextQuestions:       []string{},
			Confidence:          "low",
		}
	}
	top := usedChunks
	if len(top) > 3 {
		top = top[:3]
	}
	evidence := make([]string, 0, len(top))
	for _, item := range top {
		tag := "[?]"
		if item.CitationNumber > 0 {
			tag = fmt.Sprintf("[%d]", item.CitationNumber)
		}
		evidence = append(evidence, fmt.Sprintf("%s %s: %s", tag, item.Title, item.Snippet))
	}
	return types.AnswerPayload{
		Answer: fmt.Sprintf(
			"Retrieved %d relevant chunks for: %q. Generative synthesis is unavailable, so this is an extractive answer.",
			len(usedChunks), question),
		CrossPaperSynthesis: evidence,
		Limitations:         []string{},
		NextQuestions:       []string{},
		Confidence:          "low",
	}
}

// Insights maps the corpus around a topic: agreement clusters, timeline,
// methodological differences, and research gaps.
func (e *Engine) Insights(ctx context.Context, s types.CorpusSettings) (types.InsightsResponse, error) {
	topic := textutil.Clean(s.Topic)

	matches, err := e.retrieve(ctx, topic, s.Namespace, s.TopK, s.MetadataFilter)
	if err != nil {
		return types.InsightsResponse{}, err
	}
	if len(matches) == 0 {
		return types.InsightsResponse{
			Question: topic,
			Insights: types.InsightsPayload{
				AgreementClusters:         []string{},
				Contradictions:            []string{},
				MethodologicalDifferences: []string{},
				TimelineEvolution:         []string{},
				ResearchGaps:              []string{},
				PaperProfiles:             []types.PaperProfile{},
			},
			References: []types.Reference{},
			Retrieval:  types.RetrievalInfo{TopK: s.TopK, Returned: 0, Namespace: s.Namespace},
		}, nil
	}

	references, paperToCitation := cite.BuildReferences(matches, s.CitationStyle)
	contextText, usedChunks := cite.BuildContext(matches, paperToCitation, e.Config.MaxContextChars)
	profiles := PaperProfiles(capMatches(matches, e.Config.InsightsMaxPapers), paperToCitation)

	payload := e.synthesizeInsights(ctx, topic, contextText, references, profiles)
	payload.PaperProfiles = profiles

	resp := types.InsightsResponse{
		Question:   topic,
		Insights:   payload,
		References: references,
		Retrieval:  e.retrievalInfo(s.TopK, len(matches), s.Namespace),
	}
	if s.ReturnContexts {
		resp.Contexts = usedChunks
	}
	return resp, nil
}

func (e *Engine) synthesizeInsights(ctx context.Context, topic, contextText string, references []types.Reference, profiles []types.PaperProfile) types.InsightsPayload {
	if e.Chat == nil {
		return heuristicInsights(profiles)
	}

	prompt, err := insightsPrompt(topic, contextText, references, profiles)
	if err != nil {
		return heuristicInsights(profiles)
	}
	var raw struct {
		AgreementClusters         []string `json:"agreement_clusters"`
		Contradictions            []string `json:"contradictions"`
		MethodologicalDifferences []string `json:"methodological_differences"`
		TimelineEvolution         []string `json:"timeline_evolution"`
		ResearchGaps              []string `json:"research_gaps"`
	}
	if err := e.Chat.CompleteJSON(ctx, prompt, &raw); err != nil {
		return heuristicInsights(profiles)
	}
	return types.InsightsPayload{
		AgreementClusters:         emptyIfNil(raw.AgreementClusters),
		Contradictions:            emptyIfNil(raw.Contradictions),
		MethodologicalDifferences: emptyIfNil(raw.MethodologicalDifferences),
		TimelineEvolution:         emptyIfNil(raw.TimelineEvolution),
		ResearchGaps:              emptyIfNil(raw.ResearchGaps),
	}
}

// Gaps reports evidence-grounded research gaps with supporting statements.
func (e *Engine) Gaps(ctx context.Context, s types.CorpusSettings) (types.GapsResponse, error) {
	topic := textutil.Clean(s.Topic)

	matches, err := e.retrieve(ctx, topic, s.Namespace, s.TopK, s.MetadataFilter)
	if err != nil {
		return types.GapsResponse{}, err
	}

	references, paperToCitation := cite.BuildReferences(matches, s.CitationStyle)
	contextText, _ := cite.BuildContext(matches, paperToCitation, e.Config.MaxContextChars)
	profiles := PaperProfiles(capMatches(matches, e.Config.InsightsMaxPapers), paperToCitation)

	gaps := HeuristicGaps(profiles)
	var supporting []string

	if e.Chat != nil && len(matches) > 0 {
		if prompt, err := gapsPrompt(topic, contextText, references); err == nil {
			var raw struct {
				Gaps               []string `json:"gaps"`
				SupportingEvidence []string `json:"supporting_evidence"`
			}
			if err := e.Chat.CompleteJSON(ctx, prompt, &raw); err == nil {
				if len(raw.Gaps) > 0 {
					gaps = raw.Gaps
				}
				supporting = raw.SupportingEvidence
			}
		}
	}
	if supporting == nil {
		for _, p := range profiles {
			if p.Limitations != "" {
				supporting = append(supporting, p.Limitations)
			}
		}
		if len(supporting) > 8 {
			supporting = supporting[:8]
		}
	}

	return types.GapsResponse{
		Question:           topic,
		Gaps:               emptyIfNil(gaps),
		SupportingEvidence: emptyIfNil(supporting),
		References:         references,
		Retrieval:          e.retrievalInfo(s.TopK, len(matches), s.Namespace),
	}, nil
}

func capMatches(matches []types.Match, limit int) []types.Match {
	if limit > 0 && len(matches) > limit {
		return matches[:limit]
	}
	return matches
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Prompt construction. The user prompts are templates so the JSON response
// schema stays readable next to the inputs.

const answerSystemPrompt = "You are a rigorous research assistant. " +
	"Only use supplied context, and never invent sources. " +
	"If evidence is weak or missing, state uncertainty."

const insightsSystemPrompt = "You are a literature intelligence engine. " +
	"Only use provided context and structured rows. " +
	"Every factual statement must be source-grounded. Prefer concise bullets."

const gapsSystemPrompt = "Identify evidence-grounded research gaps only from provided material. " +
	"Every gap must include citation tags [n]."

var taskInstructions = map[string]string{
	"qa": "Answer the user question with grounded, source-aware reasoning. " +
		"Use citation tags like [1], [2] inline for each factual claim.",
	"synthesis": "Synthesize cross-paper consensus, disagreements, and evidence quality. " +
		"Use inline citations [n] and explicitly compare studies.",
	"comparison": "Provide a paper-to-paper comparison across methods, datasets, assumptions, and outcomes. " +
		"Use inline citations [n].",
	"outline": "Generate a structured literature review outline with section headings and key points. " +
		"Attach inline citations [n] to each key point.",
}

var askTemplate = template.Must(template.New("ask").Parse(`Task: {{.Task}}
Question: {{.Question}}

Instruction: {{.Instruction}}

Allowed citations:
{{.Refs}}

Context chunks:
{{.Context}}

Return valid JSON with:
{
  "answer": "Main answer with inline [n] citations.",
  "cross_paper_synthesis": ["cross-paper point 1", "cross-paper point 2"],
  "limitations": ["limitation 1", "limitation 2"],
  "next_questions": ["next query 1", "next query 2"],
  "confidence": "high|medium|low"
}
`))

var insightsTemplate = template.Must(template.New("insights").Parse(`Question: {{.Question}}

Allowed citations:
{{.Refs}}

Structured paper rows:
{{.Rows}}

Retrieved context:
{{.Context}}

Return JSON:
{
  "agreement_clusters": ["... [n]"],
  "contradictions": ["... [n][m]"],
  "methodological_differences": ["... [n]"],
  "timeline_evolution": ["YYYY: ... [n]"],
  "research_gaps": ["... [n]"]
}
`))

var gapsTemplate = template.Must(template.New("gaps").Parse(`Question: {{.Question}}

Allowed citations:
{{.Refs}}

Context:
{{.Context}}

Return JSON with:
{
  "gaps": ["gap statement [n]"],
  "supporting_evidence": ["evidence statement [n]"]
}
`))

// shortReferences renders one "[n] Title (year)" line per reference.
func shortReferences(references []types.Reference) string {
	lines := make([]string, 0, len(references))
	for _, r := range references {
		year := "n.d."
		if r.Year != 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		lines = append(lines, fmt.Sprintf("[%d] %s (%s)", r.CitationNumber, r.Title, year))
	}
	return strings.Join(lines, "\n")
}

func askPrompt(question, task, contextText string, references []types.Reference) (Prompt, error) {
	instruction, ok := taskInstructions[task]
	if !ok {
		instruction = taskInstructions["qa"]
	}
	var buf bytes.Buffer
	err := askTemplate.Execute(&buf, map[string]string{
		"Task":        task,
		"Question":    question,
		"Instruction": instruction,
		"Refs":        shortReferences(references),
		"Context":     contextText,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("rendering ask prompt: %w", err)
	}
	return Prompt{System: answerSystemPrompt, User: buf.String(), MaxTokens: 1200, Temperature: 0.2}, nil
}

func insightsPrompt(topic, contextText string, references []types.Reference, profiles []types.PaperProfile) (Prompt, error) {
	rows := profiles
	if len(rows) > structuredRowLimit {
		rows = rows[:structuredRowLimit]
	}
	type structuredRow struct {
		Citation    int    `json:"citation,omitempty"`
		Title       string `json:"title"`
		Year        int    `json:"year,omitempty"`
		Methodology string `json:"methodology,omitempty"`
		DatasetSize string `json:"datasetSize,omitempty"`
		ModelType   string `json:"modelType,omitempty"`
		KeyFindings string `json:"keyFindings,omitempty"`
		Limitations string `json:"limitations,omitempty"`
		FutureWork  string `json:"futureWork,omitempty"`
	}
	structured := make([]structuredRow, 0, len(rows))
	for _, p := range rows {
		structured = append(structured, structuredRow{
			Citation:    p.CitationNumber,
			Title:       p.Title,
			Year:        p.Year,
			Methodology: p.Methodology,
			DatasetSize: p.DatasetSize,
			ModelType:   p.ModelType,
			KeyFindings: p.KeyFindings,
			Limitations: p.Limitations,
			FutureWork:  p.FutureWork,
		})
	}
	encoded, err := json.Marshal(structured)
	if err != nil {
		return Prompt{}, fmt.Errorf("encoding structured rows: %w", err)
	}

	var buf bytes.Buffer
	err = insightsTemplate.Execute(&buf, map[string]string{
		"Question": topic,
		"Refs":     shortReferences(references),
		"Rows":     string(encoded),
		"Context":  contextText,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("rendering insights prompt: %w", err)
	}
	return Prompt{System: insightsSystemPrompt, User: buf.String(), MaxTokens: 1400, Temperature: 0.1}, nil
}

func gapsPrompt(topic, contextText string, references []types.Reference) (Prompt, error) {
	var buf bytes.Buffer
	err := gapsTemplate.Execute(&buf, map[string]string{
		"Question": topic,
		"Refs":     shortReferences(references),
		"Context":  contextText,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("rendering gaps prompt: %w", err)
	}
	return Prompt{System: gapsSystemPrompt, User: buf.String(), MaxTokens: 900, Temperature: 0.1}, nil
}
