// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paper normalizes, deduplicates, and prioritizes paper records
// arriving from the discovery backends and from caller-supplied payloads.
// Implements: prd010-ingestion (R1, R2); docs/ARCHITECTURE § Ingestion.
package paper

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

const doiPrefix = "https://doi.org/"

var (
	titleKeyRe    = regexp.MustCompile(`[^a-z0-9 ]`)
	authorSplitRe = regexp.MustCompile(`;|, and | and `)
)

// Normalize cleans every field of p in place conventions and fills a missing
// PaperID with a deterministic hash of title, DOI, and year. The DOI is
// lowercased and stripped of the resolver prefix so records from different
// sources compare equal.
func Normalize(p types.Paper) types.Paper {
	p.Title = textutil.Clean(p.Title)
	p.Abstract = textutil.Clean(p.Abstract)
	p.FullText = textutil.Clean(p.FullText)
	p.PublicationDate = textutil.Clean(p.PublicationDate)
	p.Venue = textutil.Clean(p.Venue)
	p.URL = textutil.Clean(p.URL)
	p.PDFURL = textutil.Clean(p.PDFURL)
	p.Source = textutil.Clean(p.Source)
	if p.Source == "" {
		p.Source = "custom"
	}

	p.DOI = strings.ToLower(textutil.Clean(p.DOI))
	p.DOI = strings.TrimPrefix(p.DOI, doiPrefix)

	authors := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if name := textutil.Clean(a); name != "" {
			authors = append(authors, name)
		}
	}
	p.Authors = authors

	p.PaperID = textutil.Clean(p.PaperID)
	if p.PaperID == "" {
		seed := fmt.Sprintf("%s|%s|%s", p.Title, p.DOI, yearSeed(p.Year))
		sum := sha1.Sum([]byte(seed))
		p.PaperID = "paper_" + hex.EncodeToString(sum[:])[:16]
	}
	return p
}

func yearSeed(year int) string {
	if year == 0 {
		return ""
	}
	return fmt.Sprintf("%d", year)
}

// SplitAuthors turns a single free-form author string into a name list,
// splitting on semicolons and "and" separators.
func SplitAuthors(raw string) []string {
	parts := authorSplitRe.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := textutil.Clean(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// MergeKey identifies a paper for deduplication: DOI when present, then a
// lowercased alphanumeric title, then the paper ID.
func MergeKey(p types.Paper) string {
	if p.DOI != "" {
		return "doi:" + p.DOI
	}
	title := strings.ToLower(p.Title)
	title = titleKeyRe.ReplaceAllString(title, "")
	title = strings.Join(strings.Fields(title), " ")
	if title != "" {
		return "title:" + title
	}
	if p.PaperID != "" {
		return "id:" + p.PaperID
	}
	// Nothing identifying at all; hash the whole record so it at least
	// dedupes against byte-identical copies.
	raw, _ := json.Marshal(p)
	sum := sha1.Sum(raw)
	return "id:" + hex.EncodeToString(sum[:])[:10]
}

// mergeScore ranks two records claiming the same identity.
func mergeScore(p types.Paper) [3]int {
	s := [3]int{}
	if p.Abstract != "" {
		s[0] = 1
	}
	if p.PDFURL != "" {
		s[1] = 1
	}
	s[2] = p.CitationCount
	return s
}

func scoreLess(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Merge normalizes and deduplicates papers. When two records share a key the
// richer one wins outright except that the longer author list is always kept;
// a poorer duplicate still back-fills empty abstract, pdfUrl, doi, url, and
// venue fields on the record already selected. Output order follows first
// appearance of each key.
func Merge(papers []types.Paper) []types.Paper {
	selected := make(map[string]int)
	var out []types.Paper
	for _, raw := range papers {
		p := Normalize(raw)
		k := MergeKey(p)
		idx, ok := selected[k]
		if !ok {
			selected[k] = len(out)
			out = append(out, p)
			continue
		}
		existing := out[idx]
		if scoreLess(mergeScore(existing), mergeScore(p)) {
			if len(existing.Authors) > len(p.Authors) {
				p.Authors = existing.Authors
			}
			out[idx] = p
		} else {
			if existing.Abstract == "" {
				existing.Abstract = p.Abstract
			}
			if existing.PDFURL == "" {
				existing.PDFURL = p.PDFURL
			}
			if existing.DOI == "" {
				existing.DOI = p.DOI
			}
			if existing.URL == "" {
				existing.URL = p.URL
			}
			if existing.Venue == "" {
				existing.Venue = p.Venue
			}
			if len(p.Authors) > len(existing.Authors) {
				existing.Authors = p.Authors
			}
			out[idx] = existing
		}
	}
	return out
}

// Priority ranks papers for ingestion order: any text beats none, then an
// abstract, then a PDF link, then citations, then recency.
func Priority(p types.Paper) [5]int {
	abstractLen := len(p.Abstract)
	fullTextLen := len(p.FullText)
	s := [5]int{}
	if abstractLen+fullTextLen > 0 {
		s[0] = 1
	}
	if abstractLen > 0 {
		s[1] = 1
	}
	if p.PDFURL != "" {
		s[2] = 1
	}
	s[3] = p.CitationCount
	s[4] = p.Year
	return s
}

// PriorityLess reports whether a ranks below b for ingestion.
func PriorityLess(a, b [5]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// MetadataFallback builds a short factual passage for papers with no usable
// text so the record is still represented in the index. The closing sentence
// marks the evidence as metadata-level for downstream synthesis.
func MetadataFallback(p types.Paper) string {
	var parts []string
	if p.Title != "" {
		parts = append(parts, fmt.Sprintf("Title: %s.", p.Title))
	}
	if len(p.Authors) > 0 {
		authors := p.Authors
		if len(authors) > 6 {
			authors = authors[:6]
		}
		parts = append(parts, fmt.Sprintf("Authors: %s.", strings.Join(authors, ", ")))
	}
	if p.Year > 0 {
		parts = append(parts, fmt.Sprintf("Year: %d.", p.Year))
	}
	if p.Venue != "" {
		parts = append(parts, fmt.Sprintf("Venue: %s.", p.Venue))
	}
	if p.Source != "" {
		parts = append(parts, fmt.Sprintf("Source: %s.", p.Source))
	}
	if p.DOI != "" {
		parts = append(parts, fmt.Sprintf("DOI: %s.", p.DOI))
	}
	if p.URL != "" {
		parts = append(parts, fmt.Sprintf("URL: %s.", p.URL))
	}
	if len(parts) > 0 {
		parts = append(parts, "This record has limited full text, so retrieval should be treated as metadata-level evidence.")
	}
	return textutil.Clean(strings.Join(parts, " "))
}
