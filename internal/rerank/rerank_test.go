// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"math"
	"testing"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

func match(id string, score float64, text string, citations int) types.Match {
	return types.Match{
		ID:    id,
		Score: score,
		Metadata: types.ChunkMetadata{
			ChunkText:     text,
			CitationCount: citations,
		},
	}
}

func TestHybridScoreComponents(t *testing.T) {
	question := "neural network training"
	matches := []types.Match{
		match("low", 0.2, "nothing relevant here", 0),
		match("high", 0.8, "training deep neural models", 2500),
	}

	ranked := Hybrid(question, matches, 10)
	if len(ranked) != 2 {
		t.Fatalf("got %d matches", len(ranked))
	}
	if ranked[0].ID != "high" {
		t.Fatalf("order = %s, %s", ranked[0].ID, ranked[1].ID)
	}

	// high: semantic (0.8-0.2)/0.6 = 1, lexical 2/3, citations 2500/5000.
	want := 0.70*1 + 0.25*(2.0/3.0) + 0.05*0.5
	if ranked[0].HybridScore == nil {
		t.Fatal("HybridScore not set by reranking")
	}
	if math.Abs(*ranked[0].HybridScore-want) > 1e-9 {
		t.Errorf("HybridScore = %v, want %v", *ranked[0].HybridScore, want)
	}
}

func TestHybridLexicalOverridesSemantic(t *testing.T) {
	question := "bayesian optimization hyperparameters"
	matches := []types.Match{
		match("semantic", 1.0, "unrelated discussion of fruit flies", 0),
		match("lexical", 0.99, "bayesian optimization of hyperparameters", 0),
		match("floor", 0.0, "", 0),
	}

	// Near-tied semantic scores: full lexical overlap on the runner-up
	// (0.70*0.99 + 0.25) outweighs the semantic leader's 0.70.
	ranked := Hybrid(question, matches, 10)
	if ranked[0].ID != "lexical" {
		t.Errorf("order = %s, %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestHybridCitationCap(t *testing.T) {
	matches := []types.Match{
		match("capped", 0.5, "", 50000),
		match("atcap", 0.5, "", 5000),
	}
	ranked := Hybrid("q", matches, 10)
	if *ranked[0].HybridScore != *ranked[1].HybridScore {
		t.Errorf("scores differ above cap: %v vs %v", *ranked[0].HybridScore, *ranked[1].HybridScore)
	}
}

func TestHybridStableOnTies(t *testing.T) {
	matches := []types.Match{
		match("first", 0.5, "", 0),
		match("second", 0.5, "", 0),
	}
	ranked := Hybrid("q", matches, 10)
	if ranked[0].ID != "first" || ranked[1].ID != "second" {
		t.Errorf("tie order changed: %s, %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestHybridTopK(t *testing.T) {
	matches := []types.Match{
		match("a", 0.9, "", 0),
		match("b", 0.5, "", 0),
		match("c", 0.1, "", 0),
	}
	ranked := Hybrid("q", matches, 2)
	if len(ranked) != 2 {
		t.Fatalf("got %d matches", len(ranked))
	}
	if ranked[0].ID != "a" || ranked[1].ID != "b" {
		t.Errorf("order = %s, %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestHybridEmpty(t *testing.T) {
	if got := Hybrid("q", nil, 5); got != nil {
		t.Fatalf("got %v", got)
	}
}

func TestHybridIdenticalScores(t *testing.T) {
	// All same semantic score: normalization must not divide by zero, and
	// lexical overlap decides.
	matches := []types.Match{
		match("miss", 0.5, "irrelevant words", 0),
		match("hit", 0.5, "exact question words", 0),
	}
	ranked := Hybrid("exact question words", matches, 10)
	if ranked[0].ID != "hit" {
		t.Errorf("order = %s, %s", ranked[0].ID, ranked[1].ID)
	}
}
