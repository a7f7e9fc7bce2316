// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/literature-assistant/internal/answer"
	"github.com/pdiddy/literature-assistant/internal/ingest"
	"github.com/pdiddy/literature-assistant/internal/pdftext"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

type stubEmbedder struct{}

func (stubEmbedder) Model() string { return "stub-embed" }

func (stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type stubStore struct {
	records []types.VectorRecord
	matches []types.Match
}

func (s *stubStore) Name() string { return "stub" }

func (s *stubStore) Upsert(ctx context.Context, namespace string, records []types.VectorRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *stubStore) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]types.Match, error) {
	return s.matches, nil
}

func (s *stubStore) Close() error { return nil }

func testServer(store *stubStore) *Server {
	cfg := types.PipelineConfig{}.WithDefaults()
	return &Server{
		Ingest: &ingest.Orchestrator{
			Embedder: stubEmbedder{},
			Store:    store,
			PDF:      pdftext.NewExtractor(http.DefaultClient, cfg.Ingest, "test"),
			Config:   cfg,
		},
		Engine: &answer.Engine{
			Embedder: stubEmbedder{},
			Store:    store,
			Config:   cfg.Retrieval,
		},
		Config: cfg,
		Log:    zap.NewNop().Sugar(),
	}
}

func doPost(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := testServer(&stubStore{})
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["vectorProvider"] != "stub" {
		t.Fatalf("body = %v", body)
	}
}

func TestInvalidAction(t *testing.T) {
	s := testServer(&stubStore{})
	w := doPost(t, s, `{"action":"summarize"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid action") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestMalformedJSON(t *testing.T) {
	s := testServer(&stubStore{})
	w := doPost(t, s, `{"action":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	s := testServer(&stubStore{})
	w := doPost(t, s, `{"action":"ask"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "question is required") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestDefaultActionIsAsk(t *testing.T) {
	s := testServer(&stubStore{})
	w := doPost(t, s, `{"question":"what is known?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp types.AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Question != "what is known?" || resp.Task != "qa" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Retrieval.Returned != 0 {
		t.Fatalf("Returned = %d, want 0 for empty corpus", resp.Retrieval.Returned)
	}
}

func TestIngestAction(t *testing.T) {
	store := &stubStore{}
	s := testServer(store)

	abstract := strings.Repeat("evidence accumulates steadily across cohorts ", 30)
	body, _ := json.Marshal(types.IngestRequest{
		Papers: []types.Paper{{Title: "A Study", Abstract: abstract}},
	})
	w := doPost(t, s, string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var report types.IngestReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.IngestedPapers != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(store.records) == 0 {
		t.Fatal("no vectors written")
	}
}

func TestAskWithMatches(t *testing.T) {
	store := &stubStore{matches: []types.Match{{
		ID:    "p1::chunk::0",
		Score: 0.9,
		Metadata: types.ChunkMetadata{
			PaperID:   "p1",
			Title:     "Paper One",
			Authors:   "A. Author",
			Year:      2021,
			Section:   "body",
			ChunkText: "strong evidence of the effect",
		},
	}}}
	s := testServer(store)

	w := doPost(t, s, `{"action":"ask","question":"is there an effect?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp types.AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.References) != 1 || resp.References[0].CitationNumber != 1 {
		t.Fatalf("References = %v", resp.References)
	}
	if resp.Confidence != "low" {
		t.Fatalf("Confidence = %q, want low from extractive fallback", resp.Confidence)
	}
}

func TestInsightsAndGapsActions(t *testing.T) {
	store := &stubStore{matches: []types.Match{{
		ID:    "p1::chunk::0",
		Score: 0.9,
		Metadata: types.ChunkMetadata{
			PaperID:   "p1",
			Title:     "Paper One",
			Year:      2021,
			ChunkText: "chunk text",
			StructuredFields: types.StructuredFields{
				LimitationsText: "Limited by a small sample.",
			},
		},
	}}}
	s := testServer(store)

	w := doPost(t, s, `{"action":"insights","topic":"effects"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("insights status = %d, body = %s", w.Code, w.Body.String())
	}
	var insights types.InsightsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &insights); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(insights.Insights.PaperProfiles) != 1 {
		t.Fatalf("profiles = %v", insights.Insights.PaperProfiles)
	}

	w = doPost(t, s, `{"action":"gaps"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("gaps status = %d, body = %s", w.Code, w.Body.String())
	}
	var gaps types.GapsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &gaps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gaps.Question != types.DefaultGapsTopic {
		t.Fatalf("Question = %q", gaps.Question)
	}
	if len(gaps.SupportingEvidence) != 1 {
		t.Fatalf("SupportingEvidence = %v", gaps.SupportingEvidence)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := testServer(&stubStore{})
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}
