// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

type stubEmbedder struct{ err error }

func (s *stubEmbedder) Model() string { return "stub-embed" }

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type stubStore struct {
	matches   []types.Match
	lastTopK  int
	lastSpace string
}

func (s *stubStore) Name() string { return "stub" }

func (s *stubStore) Upsert(ctx context.Context, namespace string, records []types.VectorRecord) error {
	return nil
}

func (s *stubStore) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]types.Match, error) {
	s.lastTopK = topK
	s.lastSpace = namespace
	return s.matches, nil
}

func (s *stubStore) Close() error { return nil }

type stubChat struct {
	reply   string
	err     error
	prompts []Prompt
}

func (s *stubChat) Model() string { return "stub-chat" }

func (s *stubChat) CompleteJSON(ctx context.Context, p Prompt, out any) error {
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.reply), out)
}

func floatp(v float64) *float64 { return &v }

func matchFor(paperID, title string, year int, score float64, chunkText string) types.Match {
	return types.Match{
		ID:    paperID + "::chunk::0",
		Score: score,
		Metadata: types.ChunkMetadata{
			PaperID:   paperID,
			Title:     title,
			Authors:   "A. Author",
			Year:      year,
			Section:   "body",
			ChunkText: chunkText,
		},
	}
}

func testEngine(store *stubStore, chat ChatBackend) *Engine {
	cfg := types.PipelineConfig{}.WithDefaults()
	return &Engine{
		Embedder: &stubEmbedder{},
		Store:    store,
		Chat:     chat,
		Config:   cfg.Retrieval,
	}
}

func askSettings(question string) types.AskSettings {
	cfg := types.PipelineConfig{}.WithDefaults()
	return types.AskRequest{Question: question}.Resolve(cfg.Retrieval, "default")
}

func corpusSettings(topic string) types.CorpusSettings {
	cfg := types.PipelineConfig{}.WithDefaults()
	return types.InsightsRequest{Topic: topic}.Resolve(cfg.Retrieval, "default")
}

func TestAskRequiresQuestion(t *testing.T) {
	e := testEngine(&stubStore{}, nil)
	if _, err := e.Ask(context.Background(), askSettings("   ")); err == nil {
		t.Fatal("want error for empty question")
	}
}

func TestAskEmptyCorpus(t *testing.T) {
	e := testEngine(&stubStore{}, nil)

	resp, err := e.Ask(context.Background(), askSettings("what is known?"))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer != "No relevant documents were retrieved from the corpus." {
		t.Fatalf("Answer = %q", resp.Answer)
	}
	if resp.Confidence != "low" || resp.Retrieval.Returned != 0 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestAskOverFetchesBeforeReranking(t *testing.T) {
	store := &stubStore{matches: []types.Match{
		matchFor("p1", "Paper One", 2021, 0.9, "sleep improves memory consolidation"),
	}}
	e := testEngine(store, nil)

	s := askSettings("does sleep improve memory?")
	if _, err := e.Ask(context.Background(), s); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	want := s.TopK * e.Config.RerankMultiplier
	if store.lastTopK != want {
		t.Fatalf("store topK = %d, want %d", store.lastTopK, want)
	}
	if store.lastSpace != "default" {
		t.Fatalf("namespace = %q", store.lastSpace)
	}
}

func TestAskFallbackWithoutChat(t *testing.T) {
	store := &stubStore{matches: []types.Match{
		matchFor("p1", "Paper One", 2021, 0.9, "sleep improves memory consolidation in adults"),
		matchFor("p2", "Paper Two", 2019, 0.5, "memory benefits of napping are disputed"),
	}}
	e := testEngine(store, nil)

	resp, err := e.Ask(context.Background(), askSettings("does sleep improve memory?"))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(resp.Answer, "extractive answer") {
		t.Fatalf("Answer = %q", resp.Answer)
	}
	if len(resp.CrossPaperSynthesis) != 2 {
		t.Fatalf("CrossPaperSynthesis = %v", resp.CrossPaperSynthesis)
	}
	if !strings.HasPrefix(resp.CrossPaperSynthesis[0], "[1] Paper One:") {
		t.Fatalf("evidence[0] = %q", resp.CrossPaperSynthesis[0])
	}
	found := false
	for _, l := range resp.Limitations {
		if strings.Contains(l, "no chat API key") {
			found = true
		}
	}
	if !found {
		t.Fatalf("Limitations = %v", resp.Limitations)
	}
	if resp.Confidence != "low" {
		t.Fatalf("Confidence = %q", resp.Confidence)
	}
	if len(resp.References) != 2 || resp.References[0].CitationNumber != 1 {
		t.Fatalf("References = %v", resp.References)
	}
	if resp.Retrieval.ChatModel != "" {
		t.Fatalf("ChatModel = %q, want empty without a backend", resp.Retrieval.ChatModel)
	}
}

func TestAskWithChatBackend(t *testing.T) {
	store := &stubStore{matches: []types.Match{
		matchFor("p1", "Paper One", 2021, 0.9, "sleep improves memory consolidation in adults"),
	}}
	chat := &stubChat{reply: `{
		"answer": "Sleep improves memory [1].",
		"cross_paper_synthesis": ["One study supports consolidation [1]."],
		"limitations": ["Single study."],
		"next_questions": ["Does age moderate the effect?"],
		"confidence": "medium"
	}`}
	e := testEngine(store, chat)

	s := askSettings("does sleep improve memory?")
	s.ReturnContexts = true
	resp, err := e.Ask(context.Background(), s)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer != "Sleep improves memory [1]." {
		t.Fatalf("Answer = %q", resp.Answer)
	}
	if resp.Confidence != "medium" {
		t.Fatalf("Confidence = %q", resp.Confidence)
	}
	if len(resp.Contexts) != 1 {
		t.Fatalf("Contexts = %v", resp.Contexts)
	}
	if resp.Retrieval.ChatModel != "stub-chat" || resp.Retrieval.Mode != "hybrid" {
		t.Fatalf("Retrieval = %+v", resp.Retrieval)
	}

	if len(chat.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(chat.prompts))
	}
	user := chat.prompts[0].User
	if !strings.Contains(user, "Question: does sleep improve memory?") {
		t.Fatalf("prompt missing question:\n%s", user)
	}
	if !strings.Contains(user, "[1] Paper One (2021)") {
		t.Fatalf("prompt missing allowed citation:\n%s", user)
	}
	if !strings.Contains(user, "Chunk 1 | Citation [1]") {
		t.Fatalf("prompt missing context block:\n%s", user)
	}
}

func TestAskChatFailureFallsBack(t *testing.T) {
	store := &stubStore{matches: []types.Match{
		matchFor("p1", "Paper One", 2021, 0.9, "sleep improves memory consolidation"),
	}}
	chat := &stubChat{err: fmt.Errorf("chat completion failed (503): upstream")}
	e := testEngine(store, chat)

	resp, err := e.Ask(context.Background(), askSettings("does sleep improve memory?"))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(resp.Answer, "extractive answer") {
		t.Fatalf("Answer = %q", resp.Answer)
	}
	found := false
	for _, l := range resp.Limitations {
		if strings.Contains(l, "503") {
			found = true
		}
	}
	if !found {
		t.Fatalf("Limitations = %v, want the chat error recorded", resp.Limitations)
	}
}

func TestAskUnknownTaskUsesQAInstruction(t *testing.T) {
	store := &stubStore{matches: []types.Match{
		matchFor("p1", "Paper One", 2021, 0.9, "some chunk text"),
	}}
	chat := &stubChat{reply: `{"answer":"ok","confidence":"high"}`}
	e := testEngine(store, chat)

	s := askSettings("q")
	s.Task = "qa"
	if _, err := e.Ask(context.Background(), s); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(chat.prompts[0].User, "grounded, source-aware reasoning") {
		t.Fatalf("prompt = %q", chat.prompts[0].User)
	}
}

func TestPaperProfilesKeepBestChunkPerPaper(t *testing.T) {
	m1 := matchFor("p1", "Paper One", 2021, 0.4, "weak chunk")
	m1.HybridScore = floatp(0.4)
	m1.Metadata.Methodology = "We use a weak method."
	m2 := matchFor("p1", "Paper One", 2021, 0.9, "strong chunk")
	m2.HybridScore = floatp(0.9)
	m2.Metadata.Methodology = "We use a randomized trial."
	m3 := matchFor("p2", "Paper Two", 2019, 0.7, "other paper")
	m3.HybridScore = floatp(0.7)

	profiles := PaperProfiles([]types.Match{m1, m2, m3}, map[string]int{
		"id:p1": 1,
		"id:p2": 2,
	})
	if len(profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(profiles))
	}
	if profiles[0].PaperID != "p1" || profiles[0].Methodology != "We use a randomized trial." {
		t.Fatalf("profiles[0] = %+v", profiles[0])
	}
	if profiles[0].CitationNumber != 1 || profiles[1].CitationNumber != 2 {
		t.Fatalf("citation numbers = %d, %d", profiles[0].CitationNumber, profiles[1].CitationNumber)
	}
}

func TestPaperProfilesKeepZeroHybridScore(t *testing.T) {
	// A reranked chunk can legitimately score 0.0; the profile must carry
	// that score rather than reverting to the raw similarity.
	m := matchFor("p1", "Paper One", 2021, 0.9, "floor chunk")
	m.HybridScore = floatp(0)

	profiles := PaperProfiles([]types.Match{m}, map[string]int{"id:p1": 1})
	if len(profiles) != 1 {
		t.Fatalf("profiles = %d, want 1", len(profiles))
	}
	if profiles[0].Score != 0 {
		t.Fatalf("Score = %v, want 0", profiles[0].Score)
	}
}

func TestHeuristicGapsRequireRecurrence(t *testing.T) {
	profiles := []types.PaperProfile{
		{Limitations: "The study is limited by a small sample size."},
		{Limitations: "A small sample restricts power."},
		{Limitations: "Single site only."},
	}
	gaps := HeuristicGaps(profiles)
	if len(gaps) != 1 {
		t.Fatalf("gaps = %v", gaps)
	}
	if !strings.Contains(gaps[0], "small sample") {
		t.Fatalf("gaps[0] = %q", gaps[0])
	}
}

func TestHeuristicGapsFallbackWhenNoRecurrence(t *testing.T) {
	profiles := []types.PaperProfile{
		{Limitations: "Results may not transfer across domains."},
	}
	gaps := HeuristicGaps(profiles)
	if len(gaps) != 1 || !strings.Contains(gaps[0], "methodological constraints") {
		t.Fatalf("gaps = %v", gaps)
	}
}

func TestHeuristicInsightsTimelineAndClusters(t *testing.T) {
	profiles := []types.PaperProfile{
		{Title: "Newest", Year: 2023, CitationNumber: 1, Methodology: "We use surveys."},
		{Title: "Oldest", Year: 2015, CitationNumber: 2, Methodology: "We use surveys."},
		{Title: "Middle", Year: 2019, Methodology: "We propose a model."},
	}
	payload := heuristicInsights(profiles)
	if len(payload.TimelineEvolution) != 3 || !strings.HasPrefix(payload.TimelineEvolution[0], "2015: Oldest") {
		t.Fatalf("timeline = %v", payload.TimelineEvolution)
	}
	if len(payload.AgreementClusters) == 0 || !strings.Contains(payload.AgreementClusters[0], "appears in 2 high-ranked papers") {
		t.Fatalf("clusters = %v", payload.AgreementClusters)
	}
	if len(payload.MethodologicalDifferences) != 3 {
		t.Fatalf("methods = %v", payload.MethodologicalDifferences)
	}
}

func TestInsightsEmptyCorpus(t *testing.T) {
	e := testEngine(&stubStore{}, nil)

	resp, err := e.Insights(context.Background(), corpusSettings("anything"))
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if resp.Retrieval.Returned != 0 || resp.Insights.PaperProfiles == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Insights.ResearchGaps) != 0 {
		t.Fatalf("ResearchGaps = %v", resp.Insights.ResearchGaps)
	}
}

func TestInsightsHeuristicWithoutChat(t *testing.T) {
	m := matchFor("p1", "Paper One", 2021, 0.9, "chunk text")
	m.Metadata.Methodology = "We use a cohort design."
	m.Metadata.LimitationsText = "Limited by a small sample."
	store := &stubStore{matches: []types.Match{m}}
	e := testEngine(store, nil)

	resp, err := e.Insights(context.Background(), corpusSettings("cohort designs"))
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if len(resp.Insights.PaperProfiles) != 1 {
		t.Fatalf("PaperProfiles = %v", resp.Insights.PaperProfiles)
	}
	if len(resp.Insights.TimelineEvolution) != 1 {
		t.Fatalf("Timeline = %v", resp.Insights.TimelineEvolution)
	}
	if len(resp.References) != 1 {
		t.Fatalf("References = %v", resp.References)
	}
}

func TestInsightsWithChatBackend(t *testing.T) {
	m := matchFor("p1", "Paper One", 2021, 0.9, "chunk text")
	store := &stubStore{matches: []types.Match{m}}
	chat := &stubChat{reply: `{
		"agreement_clusters": ["Consensus on X [1]."],
		"contradictions": [],
		"methodological_differences": ["Different cohorts [1]."],
		"timeline_evolution": ["2021: Paper One [1]."],
		"research_gaps": ["No longitudinal data [1]."]
	}`}
	e := testEngine(store, chat)

	resp, err := e.Insights(context.Background(), corpusSettings("topic"))
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if resp.Insights.AgreementClusters[0] != "Consensus on X [1]." {
		t.Fatalf("clusters = %v", resp.Insights.AgreementClusters)
	}
	if len(resp.Insights.PaperProfiles) != 1 {
		t.Fatal("profiles must be attached alongside model output")
	}
	if !strings.Contains(chat.prompts[0].User, "Structured paper rows:") {
		t.Fatalf("prompt = %q", chat.prompts[0].User)
	}
}

func TestGapsHeuristicWithoutChat(t *testing.T) {
	m1 := matchFor("p1", "Paper One", 2021, 0.9, "chunk")
	m1.Metadata.LimitationsText = "Limited by a small sample of volunteers."
	m2 := matchFor("p2", "Paper Two", 2020, 0.8, "chunk")
	m2.Metadata.LimitationsText = "A small sample reduces statistical power."
	store := &stubStore{matches: []types.Match{m1, m2}}
	e := testEngine(store, nil)

	resp, err := e.Gaps(context.Background(), corpusSettings("gaps"))
	if err != nil {
		t.Fatalf("Gaps: %v", err)
	}
	if len(resp.Gaps) == 0 || !strings.Contains(resp.Gaps[0], "small sample") {
		t.Fatalf("Gaps = %v", resp.Gaps)
	}
	if len(resp.SupportingEvidence) != 2 {
		t.Fatalf("SupportingEvidence = %v", resp.SupportingEvidence)
	}
}

func TestGapsChatOverridesHeuristics(t *testing.T) {
	m := matchFor("p1", "Paper One", 2021, 0.9, "chunk")
	store := &stubStore{matches: []types.Match{m}}
	chat := &stubChat{reply: `{
		"gaps": ["No replication in clinical settings [1]."],
		"supporting_evidence": ["Authors note single-site data [1]."]
	}`}
	e := testEngine(store, chat)

	resp, err := e.Gaps(context.Background(), corpusSettings("gaps"))
	if err != nil {
		t.Fatalf("Gaps: %v", err)
	}
	if resp.Gaps[0] != "No replication in clinical settings [1]." {
		t.Fatalf("Gaps = %v", resp.Gaps)
	}
	if resp.SupportingEvidence[0] != "Authors note single-site data [1]." {
		t.Fatalf("SupportingEvidence = %v", resp.SupportingEvidence)
	}
}

func TestDecodeModelJSONExtractsEmbeddedObject(t *testing.T) {
	var out struct {
		Answer string `json:"answer"`
	}
	content := "Here you go:\n```json\n{\"answer\": \"hi\"}\n```"
	if err := decodeModelJSON(content, &out); err != nil {
		t.Fatalf("decodeModelJSON: %v", err)
	}
	if out.Answer != "hi" {
		t.Fatalf("Answer = %q", out.Answer)
	}
	if err := decodeModelJSON("no json here", &out); err == nil {
		t.Fatal("want error for content without a JSON object")
	}
}
