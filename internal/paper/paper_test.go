// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paper

import (
	"strings"
	"testing"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

func TestNormalize(t *testing.T) {
	p := Normalize(types.Paper{
		Title:   "  Attention  Is All\tYou Need ",
		DOI:     "https://doi.org/10.1000/XYZ",
		Authors: []string{" Vaswani ", "", "Shazeer"},
		Year:    2017,
	})
	if p.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.DOI != "10.1000/xyz" {
		t.Errorf("DOI = %q", p.DOI)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Vaswani" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if p.Source != "custom" {
		t.Errorf("Source = %q", p.Source)
	}
	if !strings.HasPrefix(p.PaperID, "paper_") || len(p.PaperID) != len("paper_")+16 {
		t.Errorf("PaperID = %q", p.PaperID)
	}
}

func TestNormalizeDeterministicID(t *testing.T) {
	a := Normalize(types.Paper{Title: "Same Title", Year: 2020})
	b := Normalize(types.Paper{Title: "Same Title", Year: 2020})
	if a.PaperID != b.PaperID {
		t.Errorf("ids differ: %q vs %q", a.PaperID, b.PaperID)
	}
	c := Normalize(types.Paper{Title: "Same Title", Year: 2021})
	if a.PaperID == c.PaperID {
		t.Error("different year should change id")
	}
}

func TestMergeKey(t *testing.T) {
	if k := MergeKey(types.Paper{DOI: "10.1/a", Title: "T"}); k != "doi:10.1/a" {
		t.Errorf("got %q", k)
	}
	if k := MergeKey(types.Paper{Title: "The  (Great) Paper!"}); k != "title:the great paper" {
		t.Errorf("got %q", k)
	}
	if k := MergeKey(types.Paper{PaperID: "paper_abc"}); k != "id:paper_abc" {
		t.Errorf("got %q", k)
	}
}

func TestMergeRicherWins(t *testing.T) {
	poor := types.Paper{Title: "A Study", DOI: "10.1/s", Authors: []string{"One", "Two", "Three"}, Venue: "Old Venue"}
	rich := types.Paper{Title: "A Study", DOI: "10.1/s", Abstract: "Findings.", PDFURL: "https://x/p.pdf", Authors: []string{"One"}}

	merged := Merge([]types.Paper{poor, rich})
	if len(merged) != 1 {
		t.Fatalf("got %d papers", len(merged))
	}
	got := merged[0]
	if got.Abstract != "Findings." || got.PDFURL != "https://x/p.pdf" {
		t.Errorf("winner fields lost: %+v", got)
	}
	// Longer author list survives regardless of which record wins.
	if len(got.Authors) != 3 {
		t.Errorf("Authors = %v, want the longer list", got.Authors)
	}
}

func TestMergeLoserBackfills(t *testing.T) {
	rich := types.Paper{Title: "A Study", DOI: "10.1/s", Abstract: "Findings.", CitationCount: 50}
	late := types.Paper{Title: "A Study", DOI: "10.1/s", Venue: "NeurIPS", URL: "https://x/a", Authors: []string{"One", "Two"}}

	merged := Merge([]types.Paper{rich, late})
	if len(merged) != 1 {
		t.Fatalf("got %d papers", len(merged))
	}
	got := merged[0]
	if got.Abstract != "Findings." || got.CitationCount != 50 {
		t.Errorf("existing record clobbered: %+v", got)
	}
	if got.Venue != "NeurIPS" || got.URL != "https://x/a" {
		t.Errorf("empty fields not back-filled: %+v", got)
	}
	if len(got.Authors) != 2 {
		t.Errorf("Authors = %v", got.Authors)
	}
}

func TestMergeDistinctKeysKeptInOrder(t *testing.T) {
	merged := Merge([]types.Paper{
		{Title: "First Paper"},
		{Title: "Second Paper"},
		{Title: "First Paper", Abstract: "abs"},
	})
	if len(merged) != 2 {
		t.Fatalf("got %d papers", len(merged))
	}
	if merged[0].Title != "First Paper" || merged[1].Title != "Second Paper" {
		t.Errorf("order not preserved: %v, %v", merged[0].Title, merged[1].Title)
	}
	if merged[0].Abstract != "abs" {
		t.Error("duplicate abstract not folded in")
	}
}

func TestPriorityOrdering(t *testing.T) {
	withText := Priority(types.Paper{Abstract: "a", CitationCount: 0})
	noText := Priority(types.Paper{CitationCount: 9999, Year: 2026})
	if PriorityLess(withText, noText) {
		t.Error("text should outrank citations")
	}
	older := Priority(types.Paper{Abstract: "a", Year: 2019})
	newer := Priority(types.Paper{Abstract: "a", Year: 2024})
	if !PriorityLess(older, newer) {
		t.Error("recency should break ties")
	}
}

func TestMetadataFallback(t *testing.T) {
	text := MetadataFallback(types.Paper{
		Title:   "Sparse Models",
		Authors: []string{"A", "B", "C", "D", "E", "F", "G"},
		Year:    2023,
		Venue:   "ICML",
		Source:  "openalex",
	})
	if !strings.Contains(text, "Title: Sparse Models.") {
		t.Errorf("missing title: %q", text)
	}
	if !strings.Contains(text, "E, F.") || strings.Contains(text, ", G") {
		t.Errorf("author list not capped at six: %q", text)
	}
	if !strings.HasSuffix(text, "metadata-level evidence.") {
		t.Errorf("missing closing marker: %q", text)
	}
	if MetadataFallback(types.Paper{}) != "" {
		t.Error("empty paper should yield empty fallback")
	}
}

func TestSplitAuthors(t *testing.T) {
	got := SplitAuthors("Ada Lovelace; Alan Turing, and Grace Hopper and Edsger Dijkstra")
	want := []string{"Ada Lovelace", "Alan Turing", "Grace Hopper", "Edsger Dijkstra"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("author %d = %q, want %q", i, got[i], want[i])
		}
	}
}
