// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"strings"
	"testing"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

func floatp(v float64) *float64 { return &v }

func meta(paperID, title, authors string, year int) types.ChunkMetadata {
	return types.ChunkMetadata{
		PaperID: paperID,
		Title:   title,
		Authors: authors,
		Year:    year,
	}
}

func TestPaperKey(t *testing.T) {
	if k := PaperKey(types.ChunkMetadata{PaperID: "p1", DOI: "10.1/x"}); k != "id:p1" {
		t.Errorf("got %q", k)
	}
	if k := PaperKey(types.ChunkMetadata{DOI: "10.1/X"}); k != "doi:10.1/x" {
		t.Errorf("got %q", k)
	}
	if k := PaperKey(types.ChunkMetadata{Title: "Some Title"}); k != "title:some title" {
		t.Errorf("got %q", k)
	}
}

func TestBuildReferencesSharedPaper(t *testing.T) {
	matches := []types.Match{
		{Metadata: meta("p1", "First Paper", "Ada Lovelace", 2020)},
		{Metadata: meta("p2", "Second Paper", "Alan Turing", 2021)},
		{Metadata: meta("p1", "First Paper", "Ada Lovelace", 2020)},
	}
	refs, numbering := BuildReferences(matches, "apa")
	if len(refs) != 2 {
		t.Fatalf("got %d references", len(refs))
	}
	if refs[0].CitationNumber != 1 || refs[1].CitationNumber != 2 {
		t.Errorf("numbers = %d, %d", refs[0].CitationNumber, refs[1].CitationNumber)
	}
	// Both chunks of p1 resolve to citation 1.
	if numbering["id:p1"] != 1 || numbering["id:p2"] != 2 {
		t.Errorf("numbering = %v", numbering)
	}
}

func TestFormatReferenceAPA(t *testing.T) {
	m := meta("p1", "A Study of Things", "Ada Augusta Lovelace, Alan Turing", 2020)
	m.Venue = "Journal of Things"
	m.DOI = "10.1/things"

	got := FormatReference(m, 1, "apa")
	want := "Lovelace, A. A., & Turing, A. (2020). A Study of Things. Journal of Things. https://doi.org/10.1/things"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestFormatReferenceAPAManyAuthors(t *testing.T) {
	authors := "A One, B Two, C Three, D Four, E Five, F Six, G Seven, H Eight"
	got := FormatReference(meta("p", "T", authors, 2020), 1, "apa")
	if strings.Contains(got, "Eight") {
		t.Errorf("APA should cap at seven authors: %q", got)
	}
	if !strings.Contains(got, ", & Seven, G.") {
		t.Errorf("missing ampersand before final author: %q", got)
	}
}

func TestFormatReferenceMLA(t *testing.T) {
	two := FormatReference(meta("p", "Pair Work", "Ada Lovelace, Alan Turing", 2021), 1, "mla")
	if !strings.HasPrefix(two, "Lovelace, Ada, and Alan Turing.") {
		t.Errorf("two authors: %q", two)
	}

	three := FormatReference(meta("p", "Trio Work", "A One, B Two, C Three", 2021), 1, "mla")
	if !strings.HasPrefix(three, "One, A, et al.") {
		t.Errorf("three authors: %q", three)
	}
}

func TestFormatReferenceIEEE(t *testing.T) {
	m := meta("p", "Circuits", "Grace Hopper, Alan Turing", 1952)
	m.Venue = "IRE Transactions"

	got := FormatReference(m, 3, "ieee")
	if !strings.HasPrefix(got, "[3] G. Hopper, A. Turing, \"Circuits,\" IRE Transactions, 1952.") {
		t.Errorf("got %q", got)
	}

	authors := "A One, B Two, C Three, D Four, E Five, F Six, G Seven"
	many := FormatReference(meta("p", "T", authors, 2020), 1, "ieee")
	if !strings.Contains(many, "et al.") {
		t.Errorf("seven authors should abbreviate: %q", many)
	}
}

func TestFormatReferenceFallbacks(t *testing.T) {
	got := FormatReference(types.ChunkMetadata{}, 1, "apa")
	if !strings.HasPrefix(got, "Unknown author (n.d.). Untitled.") {
		t.Errorf("got %q", got)
	}

	withURL := types.ChunkMetadata{Title: "T", URL: "https://example.org/t"}
	if !strings.Contains(FormatReference(withURL, 1, "apa"), "https://example.org/t") {
		t.Error("URL should be used when no DOI")
	}
}

func TestBuildContext(t *testing.T) {
	m1 := meta("p1", "First", "A", 2020)
	m1.ChunkText = "alpha evidence text"
	m1.Section = "results"
	m2 := meta("p2", "Second", "B", 2021)
	m2.ChunkText = "beta evidence text"

	matches := []types.Match{
		{Score: 0.9, HybridScore: floatp(0.85), Metadata: m1},
		{Score: 0.8, HybridScore: floatp(0.75), Metadata: m2},
	}
	numbering := map[string]int{"id:p1": 1, "id:p2": 2}

	context, used := BuildContext(matches, numbering, 100000)
	if !strings.Contains(context, "Citation [1]") || !strings.Contains(context, "Citation [2]") {
		t.Errorf("context missing citation tags:\n%s", context)
	}
	if !strings.Contains(context, "Section: results") {
		t.Errorf("context missing section:\n%s", context)
	}
	if len(used) != 2 {
		t.Fatalf("got %d used chunks", len(used))
	}
	if used[0].Rank != 1 || used[0].CitationNumber != 1 || used[0].Snippet != "alpha evidence text" {
		t.Errorf("used[0] = %+v", used[0])
	}
}

func TestBuildContextKeepsZeroHybridScore(t *testing.T) {
	// The worst-ranked reranked chunk legitimately normalizes to 0.0; it
	// must not be replaced by the raw similarity.
	m := meta("p1", "Floor", "A", 2020)
	m.ChunkText = "floor chunk"
	matches := []types.Match{{Score: 0.9, HybridScore: floatp(0), Metadata: m}}

	context, used := BuildContext(matches, map[string]int{"id:p1": 1}, 100000)
	if !strings.Contains(context, "Hybrid: 0.0000") {
		t.Errorf("context lost the zero hybrid score:\n%s", context)
	}
	if used[0].HybridScore != 0 {
		t.Errorf("HybridScore = %v, want 0", used[0].HybridScore)
	}
	if used[0].Score != 0.9 {
		t.Errorf("Score = %v, want 0.9", used[0].Score)
	}
}

func TestBuildContextFallsBackToRawScore(t *testing.T) {
	m := meta("p1", "Raw", "A", 2020)
	m.ChunkText = "raw chunk"
	matches := []types.Match{{Score: 0.6, Metadata: m}}

	context, used := BuildContext(matches, map[string]int{"id:p1": 1}, 100000)
	if !strings.Contains(context, "Hybrid: 0.6000") {
		t.Errorf("unreranked match should fall back to the raw score:\n%s", context)
	}
	if used[0].HybridScore != 0.6 {
		t.Errorf("HybridScore = %v, want 0.6", used[0].HybridScore)
	}
}

func TestBuildContextHaltsAtBudget(t *testing.T) {
	big := meta("p1", "Big", "A", 2020)
	big.ChunkText = strings.Repeat("x ", 300)
	small := meta("p2", "Small", "B", 2021)
	small.ChunkText = "tiny"

	matches := []types.Match{
		{Score: 0.9, Metadata: big},
		{Score: 0.8, Metadata: small},
	}
	numbering := map[string]int{"id:p1": 1, "id:p2": 2}

	// Budget too small for the big chunk: assembly halts entirely, the
	// small chunk is not pulled forward.
	context, used := BuildContext(matches, numbering, 200)
	if context != "" || len(used) != 0 {
		t.Errorf("context = %q, used = %+v", context, used)
	}
}

func TestBuildContextSkipsEmptyChunks(t *testing.T) {
	empty := meta("p1", "Empty", "A", 2020)
	full := meta("p2", "Full", "B", 2021)
	full.ChunkText = "content"

	_, used := BuildContext([]types.Match{
		{Metadata: empty},
		{Metadata: full},
	}, map[string]int{"id:p2": 2}, 100000)
	if len(used) != 1 || used[0].PaperID != "p2" {
		t.Fatalf("used = %+v", used)
	}
	// Rank reflects the original match position.
	if used[0].Rank != 2 {
		t.Errorf("Rank = %d, want 2", used[0].Rank)
	}
}

func TestBuildContextUnknownPaperTag(t *testing.T) {
	m := meta("p9", "Stray", "A", 2020)
	m.ChunkText = "stray chunk"
	context, used := BuildContext([]types.Match{{Metadata: m}}, map[string]int{}, 100000)
	if !strings.Contains(context, "Citation [?]") {
		t.Errorf("context = %q", context)
	}
	if used[0].CitationNumber != 0 {
		t.Errorf("CitationNumber = %d", used[0].CitationNumber)
	}
}
